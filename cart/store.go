// Package cart is the single source of truth for the active shopping cart.
//
// The store keeps the cart in memory and writes through to an injected
// Repository after every mutation. Persistence is read exactly once, at
// construction; concurrent mutation of the underlying record by another
// process is not observed until a new store is built. That staleness is an
// accepted trade-off for a single-user cart.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"myaje.io/checkout/models"
	"myaje.io/checkout/models/enum"
)

// ErrBusinessView is reported when an identity operating in the business
// view tries to add to the cart. Business accounts cannot purchase.
var ErrBusinessView = errors.New("cart: business accounts cannot purchase")

// snowflakeNodeID identifies this process in generated cart IDs.
const snowflakeNodeID = 1

// Store holds the active cart for one owner.
type Store struct {
	mu       sync.Mutex
	items    []models.CartItem
	repo     Repository
	identity models.IdentityProvider
	node     *snowflake.Node
	logger   *zap.Logger
}

// NewStore builds a store primed from the repository. A missing or corrupt
// record yields an empty cart, never an error; other repository failures
// are returned.
func NewStore(ctx context.Context, repo Repository, identity models.IdentityProvider, logger *zap.Logger) (*Store, error) {
	node, err := snowflake.NewNode(snowflakeNodeID)
	if err != nil {
		return nil, fmt.Errorf("create id node: %w", err)
	}

	s := &Store{
		repo:     repo,
		identity: identity,
		node:     node,
		logger:   logger,
	}

	items, err := repo.Load(ctx)
	switch {
	case err == nil:
		s.items = items
	case errors.Is(err, ErrNotFound):
		// First use, nothing saved yet.
	case errors.Is(err, ErrCorrupt):
		logger.Warn("Discarding corrupt cart record", zap.Error(err))
	default:
		return nil, fmt.Errorf("load cart: %w", err)
	}

	return s, nil
}

// Items returns a snapshot of the cart lines in insertion order.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.CartItem, len(s.items))
	copy(items, s.items)
	return items
}

// Len returns the number of cart lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Total returns the cart total.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CartTotal(s.items)
}

// AddToCart appends a product, merging into the existing line when the
// product is already present. A quantity below one means one. The business
// view is rejected with ErrBusinessView before any mutation.
func (s *Store) AddToCart(ctx context.Context, product models.Product, quantity int64) error {
	if user := s.identity.Current(); user != nil && user.ActiveView == enum.ActiveViewBusiness {
		return ErrBusinessView
	}

	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.items {
		if s.items[i].ID == product.ID {
			s.items[i].Quantity += quantity
			merged = true
			break
		}
	}

	if !merged {
		s.items = append(s.items, models.CartItem{
			Product:  product,
			CartID:   s.node.Generate().Int64(),
			Quantity: quantity,
		})
	}

	return s.persist(ctx)
}

// UpdateQuantity replaces the quantity of the matching line. Quantities
// below one are ignored; removal is a distinct, explicit action.
func (s *Store) UpdateQuantity(ctx context.Context, cartID, quantity int64) error {
	if quantity < 1 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.items {
		if s.items[i].CartID == cartID {
			s.items[i].Quantity = quantity
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	return s.persist(ctx)
}

// Remove deletes the line with the given cart ID, if present.
func (s *Store) Remove(ctx context.Context, cartID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].CartID == cartID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return s.persist(ctx)
		}
	}
	return nil
}

// Clear empties the cart and removes the persisted record entirely.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	if err := s.repo.Delete(ctx); err != nil {
		s.logger.Error("Failed to delete cart record", zap.Error(err))
		return err
	}
	return nil
}

// persist writes the in-memory state through to the repository. The caller
// must hold s.mu. Memory stays authoritative even when the write fails.
func (s *Store) persist(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.items); err != nil {
		s.logger.Error("Failed to persist cart", zap.Error(err))
		return err
	}
	return nil
}
