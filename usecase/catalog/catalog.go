package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/logger"
)

// DefaultItems seeds the store when no catalog file provides items.
func DefaultItems() []domain.StoreItem {
	return []domain.StoreItem{
		{ID: 1, Name: "Efficiency handbook", Price: 50, Description: "Tips for getting more done in less time"},
		{ID: 2, Name: "Time extension card", Price: 100, Description: "Extends the deadline of one task"},
	}
}

// Spender debits the active balance.
type Spender interface {
	Spend(ctx context.Context, amount int, line string) (domain.Points, error)
}

// Receipt is the result of a purchase.
type Receipt struct {
	Item   domain.StoreItem `json:"item"`
	Points domain.Points    `json:"points"`
}

// UseCase is the in-memory store catalog.
type UseCase struct {
	spender Spender
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.RWMutex
	items []domain.StoreItem
}

type Option func(*UseCase)

func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New builds the catalog. An empty items list uses DefaultItems.
func New(items []domain.StoreItem, spender Spender, log *zap.Logger, opts ...Option) *UseCase {
	if len(items) == 0 {
		items = DefaultItems()
	}
	if log == nil {
		log = zap.NewNop()
	}
	uc := &UseCase{
		spender: spender,
		logger:  log,
		now:     time.Now,
		items:   append([]domain.StoreItem(nil), items...),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *UseCase) Items() []domain.StoreItem {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return append([]domain.StoreItem(nil), uc.items...)
}

func (uc *UseCase) Get(id int) (domain.StoreItem, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	idx := uc.indexOf(id)
	if idx < 0 {
		return domain.StoreItem{}, domain.ErrItemNotFound
	}
	return uc.items[idx], nil
}

// Add appends item with the next free id (max existing id + 1).
func (uc *UseCase) Add(item domain.StoreItem) (domain.StoreItem, error) {
	if err := validate(item); err != nil {
		return domain.StoreItem{}, err
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()

	next := 1
	for _, it := range uc.items {
		if it.ID >= next {
			next = it.ID + 1
		}
	}
	item.ID = next
	uc.items = append(uc.items, item)
	return item, nil
}

func (uc *UseCase) Remove(id int) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	idx := uc.indexOf(id)
	if idx < 0 {
		return domain.ErrItemNotFound
	}
	uc.items = append(uc.items[:idx:idx], uc.items[idx+1:]...)
	return nil
}

// Update replaces the item with the same id.
func (uc *UseCase) Update(item domain.StoreItem) error {
	if err := validate(item); err != nil {
		return err
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	idx := uc.indexOf(item.ID)
	if idx < 0 {
		return domain.ErrItemNotFound
	}
	uc.items[idx] = item
	return nil
}

// Purchase spends the item's price and records it in the ledger. With
// insufficient points nothing changes. A receipt is also returned when only
// persisting the new balance failed.
func (uc *UseCase) Purchase(ctx context.Context, id int) (*Receipt, error) {
	item, err := uc.Get(id)
	if err != nil {
		return nil, err
	}
	line := fmt.Sprintf("%s purchased %s\n", uc.now().Format("2006-01-02 15:04:05"), item.Name)
	points, err := uc.spender.Spend(ctx, item.Price, line)
	if err != nil && !errors.Is(err, domain.ErrPersistFailed) {
		return nil, err
	}

	logger.FromContext(ctx, uc.logger).Info("item purchased",
		zap.Int("item_id", item.ID),
		zap.Int("price", item.Price),
		zap.Int("balance", points.Total),
	)
	return &Receipt{Item: item, Points: points}, err
}

func (uc *UseCase) indexOf(id int) int {
	for i := range uc.items {
		if uc.items[i].ID == id {
			return i
		}
	}
	return -1
}

func validate(item domain.StoreItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return domain.ErrInvalidPayload.With(errors.New("item name is required"))
	}
	if item.Price < 0 {
		return domain.ErrInvalidPayload.With(errors.New("price must not be negative"))
	}
	return nil
}
