package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercart/internal/cart"
	"ordercart/internal/menu"
)

func TestRegistry_TracksCartEvents(t *testing.T) {
	reg := NewRegistry()
	s, err := cart.New(nil, cart.WithCartID("t3"), cart.WithNotifier(reg))
	require.NoError(t, err)

	dish := menu.Item{ID: "m1", Price: decimal.NewFromInt(100)}
	li, err := s.AddItem(dish, 2, "")
	require.NoError(t, err)
	_, err = s.AddItem(dish, 1, "")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Mutations.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Mutations.WithLabelValues("merge")))
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.Items.WithLabelValues("t3")))
	assert.Equal(t, 345.0, testutil.ToFloat64(reg.TotalAmount.WithLabelValues("t3")))

	require.NoError(t, s.RemoveItem(li.ID))
	assert.Equal(t, 0.0, testutil.ToFloat64(reg.Items.WithLabelValues("t3")))
	assert.Equal(t, 0.0, testutil.ToFloat64(reg.TotalAmount.WithLabelValues("t3")))
}

func TestRegistry_Handler(t *testing.T) {
	reg := NewRegistry()
	reg.PersistFailures.Inc()

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "ordercart_persist_failures_total 1"), string(body))
}

type flakyPersister struct{ fail bool }

func (p *flakyPersister) Load() (*cart.Snapshot, error) { return nil, nil }

func (p *flakyPersister) Save(cart.Snapshot) error {
	if p.fail {
		return errors.New("disk full")
	}
	return nil
}

func TestRegistry_PersisterCountsOnlySaveFailures(t *testing.T) {
	reg := NewRegistry()
	fp := &flakyPersister{}
	sinkDown := errors.New("changelog down")
	notifyFails := false
	s, err := cart.New(reg.Persister(fp), cart.WithNotifier(cart.NotifierFunc(func(cart.Event) error {
		if notifyFails {
			return sinkDown
		}
		return nil
	})))
	require.NoError(t, err)
	dish := menu.Item{ID: "m1", Price: decimal.NewFromInt(100)}

	_, err = s.AddItem(dish, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(reg.PersistFailures))

	notifyFails = true
	_, err = s.AddItem(dish, 1, "")
	require.ErrorIs(t, err, sinkDown)
	assert.Equal(t, 0.0, testutil.ToFloat64(reg.PersistFailures), "saved but not announced is not a persist failure")

	notifyFails = false
	fp.fail = true
	_, err = s.AddItem(dish, 1, "")
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.PersistFailures))
}
