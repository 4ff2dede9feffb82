package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ordercart/internal/cart"
)

type Registry struct {
	reg             *prometheus.Registry
	Mutations       *prometheus.CounterVec
	PersistFailures prometheus.Counter
	RehydrateDrift  prometheus.Counter
	Items           *prometheus.GaugeVec
	TotalAmount     *prometheus.GaugeVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ordercart_mutations_total"}, []string{"op"})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "ordercart_persist_failures_total"})
	drift := prometheus.NewCounter(prometheus.CounterOpts{Name: "ordercart_rehydrate_drift_total"})
	items := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "ordercart_items"}, []string{"cart"})
	total := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "ordercart_total_amount"}, []string{"cart"})

	r.MustRegister(mutations, persistFailures, drift, items, total)
	return &Registry{
		reg:             r,
		Mutations:       mutations,
		PersistFailures: persistFailures,
		RehydrateDrift:  drift,
		Items:           items,
		TotalAmount:     total,
	}
}

// Notify records a cart event; it never fails.
func (r *Registry) Notify(e cart.Event) error {
	r.Mutations.WithLabelValues(string(e.Op)).Inc()
	r.Items.WithLabelValues(e.CartID).Set(float64(e.ItemCount))
	r.TotalAmount.WithLabelValues(e.CartID).Set(e.Totals.Total.InexactFloat64())
	return nil
}

// Persister wraps p so that only failed saves count as persist failures.
func (r *Registry) Persister(p cart.Persister) cart.Persister {
	return countingPersister{Persister: p, failures: r.PersistFailures}
}

type countingPersister struct {
	cart.Persister
	failures prometheus.Counter
}

func (c countingPersister) Save(s cart.Snapshot) error {
	err := c.Persister.Save(s)
	if err != nil {
		c.failures.Inc()
	}
	return err
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
