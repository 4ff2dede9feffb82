package restore

import (
	"fmt"

	"go.uber.org/zap"

	"ordercart/internal/cart"
	"ordercart/internal/metrics"
)

// Restorer reopens a persisted cart and reports whether the derived fields
// it was saved with still match what its lines add up to.
type Restorer struct {
	persister cart.Persister
	metrics   *metrics.Registry
	rates     cart.Rates
	log       *zap.Logger
}

// NewRestorer builds a Restorer. reg and log may be nil.
func NewRestorer(p cart.Persister, rates cart.Rates, reg *metrics.Registry, log *zap.Logger) *Restorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Restorer{persister: p, metrics: reg, rates: rates, log: log}
}

type Report struct {
	Found      bool
	Lines      int
	Dropped    int
	Persisted  cart.Totals
	Recomputed cart.Totals
	Drifted    bool
}

// Audit loads the saved snapshot without opening a store and compares its
// totals against a fresh computation over its lines.
func (r *Restorer) Audit() (Report, error) {
	snap, err := r.persister.Load()
	if err != nil {
		return Report{}, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return Report{}, nil
	}
	lines := cart.Sanitize(snap.Items)
	rep := Report{
		Found:      true,
		Lines:      len(lines),
		Dropped:    len(snap.Items) - len(lines),
		Persisted:  snap.Totals,
		Recomputed: cart.Compute(lines, r.rates),
	}
	rep.Drifted = rep.Dropped > 0 || !rep.Persisted.Equal(rep.Recomputed)
	if rep.Drifted {
		r.log.Warn("persisted cart drifted",
			zap.Int("dropped", rep.Dropped),
			zap.String("persistedTotal", rep.Persisted.Total.String()),
			zap.String("recomputedTotal", rep.Recomputed.Total.String()))
		if r.metrics != nil {
			r.metrics.RehydrateDrift.Inc()
		}
	}
	return rep, nil
}

// Restore audits the saved cart and then opens a store over it with the
// restorer's rates.
func (r *Restorer) Restore(opts ...cart.Option) (*cart.Store, Report, error) {
	rep, err := r.Audit()
	if err != nil {
		return nil, Report{}, err
	}
	opts = append(opts, cart.WithRates(r.rates))
	st, err := cart.New(r.persister, opts...)
	if err != nil {
		return nil, rep, fmt.Errorf("open cart: %w", err)
	}
	return st, rep, nil
}
