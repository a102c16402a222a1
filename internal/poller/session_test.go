package poller

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sokoflow/marketplace/internal/domain"
)

func TestFileStore(t *testing.T) {
	t.Run("save and load round trip", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))

		saved := &domain.CheckoutSession{
			OrderIDs:      []string{"order-1", "order-2"},
			TotalAmount:   2500,
			ReferenceID:   "ref-abc",
			PaymentMethod: domain.PaymentMethodMobileMoney,
			Delivery:      domain.DeliveryInfo{Address: "Hostel B", Phone: "0788000001"},
			CreatedAt:     time.Now().UTC().Truncate(time.Second),
		}
		if err := store.Save(saved); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if loaded == nil {
			t.Fatal("expected a session")
		}
		if loaded.ReferenceID != saved.ReferenceID || loaded.TotalAmount != saved.TotalAmount {
			t.Fatalf("loaded session differs: %+v", loaded)
		}
		if len(loaded.OrderIDs) != 2 {
			t.Fatalf("expected 2 order ids, got %d", len(loaded.OrderIDs))
		}
	})

	t.Run("load without file", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
		session, err := store.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if session != nil {
			t.Fatalf("expected nil session, got %+v", session)
		}
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
		if err := store.Save(&domain.CheckoutSession{ReferenceID: "ref"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("repeat clear failed: %v", err)
		}
		session, _ := store.Load()
		if session != nil {
			t.Fatal("expected no session after clear")
		}
	})

	t.Run("save overwrites previous session", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
		if err := store.Save(&domain.CheckoutSession{ReferenceID: "ref-old"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := store.Save(&domain.CheckoutSession{ReferenceID: "ref-new"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		session, err := store.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if session.ReferenceID != "ref-new" {
			t.Fatalf("expected ref-new, got %s", session.ReferenceID)
		}
	})
}
