package cart

import (
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStore_ConcurrentAddsSerialize(t *testing.T) {
	s, p := newStore(t)
	menuIDs := []string{"m1", "m2", "m3", "m4"}
	iters := 20

	var wg sync.WaitGroup
	for _, id := range menuIDs {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				if _, err := s.AddItem(item(id, "2.50"), 1, ""); err != nil {
					t.Errorf("add: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got, want := s.ItemCount(), len(menuIDs)*iters; got != want {
		t.Fatalf("item count: got=%d want=%d", got, want)
	}
	if got := len(s.Items()); got != len(menuIDs) {
		t.Fatalf("lines: got=%d want=%d", got, len(menuIDs))
	}
	money(t, "200.00", s.Totals().Subtotal)
	if p.saves != len(menuIDs)*iters {
		t.Fatalf("saves: got=%d want=%d", p.saves, len(menuIDs)*iters)
	}
}
