package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/repository/memory"
	"github.com/fastygo/taskpoints/usecase/board"
)

func newBoard(t *testing.T, balance int) *board.UseCase {
	t.Helper()
	b := board.New(memory.NewBoardStore(), nil, nil)
	ctx := context.Background()
	if err := b.Activate(ctx, "user_a"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if balance > 0 {
		if _, err := b.Credit(ctx, balance, ""); err != nil {
			t.Fatalf("Credit: %v", err)
		}
	}
	return b
}

func TestDefaultsAndCRUD(t *testing.T) {
	uc := New(nil, nil, nil)
	if items := uc.Items(); len(items) != 2 || items[0].Price != 50 || items[1].Price != 100 {
		t.Fatalf("items = %+v", items)
	}

	added, err := uc.Add(domain.StoreItem{Name: "Coffee", Price: 10})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID != 3 {
		t.Errorf("id = %d, want 3", added.ID)
	}
	if err := uc.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	// Ids follow the current maximum, not the count.
	if next, _ := uc.Add(domain.StoreItem{Name: "Tea", Price: 5}); next.ID != 4 {
		t.Errorf("id = %d, want 4", next.ID)
	}

	if err := uc.Update(domain.StoreItem{ID: 2, Name: "Extension", Price: 80}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if item, _ := uc.Get(2); item.Price != 80 {
		t.Errorf("price = %d, want 80", item.Price)
	}
	if err := uc.Update(domain.StoreItem{ID: 99, Name: "Ghost"}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("update unknown err = %v", err)
	}
	if err := uc.Remove(99); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("remove unknown err = %v", err)
	}
	if _, err := uc.Add(domain.StoreItem{Name: "Bad", Price: -1}); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Errorf("negative price err = %v", err)
	}
}

func TestPurchase(t *testing.T) {
	b := newBoard(t, 120)
	now := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	uc := New(nil, b, nil, WithClock(func() time.Time { return now }))

	receipt, err := uc.Purchase(context.Background(), 2)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if receipt.Points.Total != 20 {
		t.Errorf("balance = %d, want 20", receipt.Points.Total)
	}
	if receipt.Points.Ledger != "2025-05-06 07:08:09 purchased Time extension card\n" {
		t.Errorf("ledger = %q", receipt.Points.Ledger)
	}
}

func TestPurchaseInsufficientPoints(t *testing.T) {
	b := newBoard(t, 30)
	uc := New(nil, b, nil)

	if _, err := uc.Purchase(context.Background(), 1); !errors.Is(err, domain.ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}
	points, _ := b.Points()
	if points.Total != 30 || points.Ledger != "" {
		t.Errorf("points changed: %+v", points)
	}
	if _, err := uc.Purchase(context.Background(), 42); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("unknown item err = %v", err)
	}
}
