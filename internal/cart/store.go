package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"Storefront/internal/kvstore"
)

const StorageKey = "storefrontCart"

// Store mirrors the cart to durable storage. It never returns storage errors:
// failures are logged and degrade to an empty cart or a no-op.
type Store struct {
	KV  kvstore.Store
	Log *zap.Logger
}

func (s *Store) Save(ctx context.Context, items []LineItem) {
	if items == nil {
		items = []LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		s.log().Error("encode cart failed", zap.String("kind", "storage_write_failure"), zap.Error(err))
		return
	}
	if err := s.KV.Set(ctx, StorageKey, string(raw)); err != nil {
		s.log().Error("save cart failed", zap.String("kind", "storage_write_failure"), zap.Error(err))
		return
	}
	s.log().Debug("cart saved", zap.Int("lines", len(items)))
}

// Load returns the saved cart, or an empty one when nothing usable is stored.
func (s *Store) Load(ctx context.Context) []LineItem {
	raw, err := s.KV.Get(ctx, StorageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		s.log().Debug("no saved cart")
		return []LineItem{}
	}
	if err != nil {
		s.log().Error("load cart failed", zap.String("kind", "storage_read_failure"), zap.Error(err))
		return []LineItem{}
	}

	items, err := decode(raw)
	if err != nil {
		s.log().Warn("discarding malformed cart", zap.String("kind", "storage_read_failure"), zap.Error(err))
		return []LineItem{}
	}
	s.log().Debug("cart restored", zap.Int("lines", len(items)))
	return items
}

func (s *Store) Clear(ctx context.Context) {
	if err := s.KV.Delete(ctx, StorageKey); err != nil {
		s.log().Error("clear cart failed", zap.String("kind", "storage_write_failure"), zap.Error(err))
	}
}

func decode(raw string) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: quantity %d", it.ID, it.Quantity)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("product %d: negative price", it.ID)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("product %d: duplicate line", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

func (s *Store) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
