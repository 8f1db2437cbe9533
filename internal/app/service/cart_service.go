package service

import (
	"context"
	"sync"
	"time"

	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/repository"
	"github.com/vitaboost/storefront/pkg/logger"
)

const persistTimeout = 5 * time.Second

// ClampQuantity bounds a requested quantity to [1, max].
func ClampQuantity(qty, max int) int {
	if qty < 1 {
		return 1
	}
	if max > 0 && qty > max {
		return max
	}
	return qty
}

// Cart is one session's cart. Operations mutate in-memory state under a
// mutex and never fail; persistence happens behind them on the cart's own
// writer goroutine.
type Cart struct {
	sessionID string
	repo      repository.CartRepository
	now       func() time.Time

	mu            sync.Mutex
	state         model.CartState
	dirtyItems    bool
	dirtySelected bool
	cleared       bool
	lastUsed      time.Time
	closed        bool

	wake    chan struct{}
	flushes chan chan struct{}
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newCart(sessionID string, repo repository.CartRepository, state model.CartState, now func() time.Time) *Cart {
	c := &Cart{
		sessionID: sessionID,
		repo:      repo,
		now:       now,
		state:     state,
		lastUsed:  now(),
		wake:      make(chan struct{}, 1),
		flushes:   make(chan chan struct{}),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Cart) SessionID() string {
	return c.sessionID
}

// State returns a deep copy of the current cart.
func (c *Cart) State() model.CartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = c.now()
	return c.state.Clone()
}

// AddToCart adds qty of product, merging with an existing line. The product
// also becomes the selected product.
func (c *Cart) AddToCart(product model.Product, qty int) {
	c.mutate(func() { c.addLocked(product, qty) })
}

// UpdateCartItem replaces a line's quantity; qty <= 0 removes the line.
func (c *Cart) UpdateCartItem(productID int64, qty int) {
	c.mutate(func() { c.updateLocked(productID, qty) })
}

func (c *Cart) RemoveFromCart(productID int64) {
	c.mutate(func() { c.removeLocked(productID) })
}

// ClearCart empties the cart and erases both persisted entries.
func (c *Cart) ClearCart() {
	c.mutate(c.clearLocked)
}

// SetQuantity is the single-product page's quantity control. With a
// selected product it adds qty to that product's line rather than setting it.
func (c *Cart) SetQuantity(qty int) {
	c.mutate(func() {
		switch {
		case qty <= 0:
			c.clearLocked()
		case c.state.SelectedProduct != nil:
			c.addLocked(*c.state.SelectedProduct, qty)
		case len(c.state.Items) > 0:
			c.updateLocked(c.state.Items[0].ProductID, qty)
		}
	})
}

// SetSelectedProduct replaces the selection; nil clears it.
func (c *Cart) SetSelectedProduct(product *model.Product) {
	c.mutate(func() { c.selectLocked(product) })
}

func (c *Cart) addLocked(product model.Product, qty int) {
	if qty < 1 {
		return
	}
	if i := c.state.Find(product.ID); i >= 0 {
		c.state.Items[i].Quantity += qty
	} else {
		c.state.Items = append(c.state.Items, model.CartLineItem{
			ProductID: product.ID,
			Quantity:  qty,
			Product:   product.Clone(),
		})
	}
	c.dirtyItems = true
	c.selectLocked(&product)
}

func (c *Cart) updateLocked(productID int64, qty int) {
	if qty <= 0 {
		c.removeLocked(productID)
		return
	}
	if i := c.state.Find(productID); i >= 0 {
		c.state.Items[i].Quantity = qty
		c.dirtyItems = true
	}
}

func (c *Cart) removeLocked(productID int64) {
	i := c.state.Find(productID)
	if i < 0 {
		return
	}
	c.state.Items = append(c.state.Items[:i], c.state.Items[i+1:]...)
	c.dirtyItems = true
	if c.state.SelectedProduct != nil && c.state.SelectedProduct.ID == productID {
		c.selectLocked(nil)
	}
}

func (c *Cart) clearLocked() {
	c.state = model.CartState{Items: []model.CartLineItem{}}
	c.cleared = true
	c.dirtyItems = false
	c.dirtySelected = false
}

func (c *Cart) selectLocked(product *model.Product) {
	if product == nil {
		c.state.SelectedProduct = nil
	} else {
		p := product.Clone()
		c.state.SelectedProduct = &p
	}
	c.dirtySelected = true
}

func (c *Cart) mutate(fn func()) {
	c.mu.Lock()
	fn()
	c.lastUsed = c.now()
	closed := c.closed
	c.mu.Unlock()

	if closed {
		// no writer left; persist inline
		c.persist()
		return
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Cart) run() {
	defer close(c.stopped)
	for {
		select {
		case <-c.wake:
			c.persist()
		case done := <-c.flushes:
			c.persist()
			close(done)
		case <-c.quit:
			c.persist()
			return
		}
	}
}

// persist writes whatever changed since the last write. The snapshot is
// taken under the lock so a later write always carries newer state.
func (c *Cart) persist() {
	c.mu.Lock()
	cleared, dirtyItems, dirtySelected := c.cleared, c.dirtyItems, c.dirtySelected
	c.cleared, c.dirtyItems, c.dirtySelected = false, false, false
	snapshot := c.state.Clone()
	c.mu.Unlock()

	if !cleared && !dirtyItems && !dirtySelected {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	// storage errors are logged by the repository and otherwise ignored
	if cleared {
		_ = c.repo.Clear(ctx, c.sessionID)
	}
	if dirtyItems {
		_ = c.repo.SaveItems(ctx, c.sessionID, snapshot.Items)
	}
	if dirtySelected {
		_ = c.repo.SaveSelectedProduct(ctx, c.sessionID, snapshot.SelectedProduct)
	}
}

// Flush blocks until every change made before the call is written.
func (c *Cart) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case c.flushes <- done:
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and stops the writer. Later mutations are
// persisted synchronously.
func (c *Cart) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.quit)
	})
	<-c.stopped
}

func (c *Cart) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// CartService owns the per-session carts.
type CartService interface {
	// Session returns the live cart for sessionID, rehydrating it from the
	// store on first use.
	Session(ctx context.Context, sessionID string) *Cart
	// EvictIdle closes and forgets carts unused for longer than maxIdle and
	// returns their session ids.
	EvictIdle(maxIdle time.Duration) []string
	ActiveSessions() int
	Close()
}

type cartService struct {
	repo repository.CartRepository
	now  func() time.Time

	mu    sync.RWMutex
	carts map[string]*Cart
}

func NewCartService(repo repository.CartRepository) CartService {
	return newCartService(repo, time.Now)
}

func newCartService(repo repository.CartRepository, now func() time.Time) *cartService {
	return &cartService{
		repo:  repo,
		now:   now,
		carts: make(map[string]*Cart),
	}
}

func (s *cartService) Session(ctx context.Context, sessionID string) *Cart {
	s.mu.RLock()
	cart, ok := s.carts[sessionID]
	s.mu.RUnlock()
	if ok {
		return cart
	}

	state := model.CartState{
		Items:           s.repo.LoadItems(ctx, sessionID),
		SelectedProduct: s.repo.LoadSelectedProduct(ctx, sessionID),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cart, ok := s.carts[sessionID]; ok {
		return cart
	}
	cart = newCart(sessionID, s.repo, state, s.now)
	s.carts[sessionID] = cart

	logger.Debug("Cart session loaded", map[string]interface{}{
		"session_id": sessionID,
		"items":      len(state.Items),
	})
	return cart
}

func (s *cartService) EvictIdle(maxIdle time.Duration) []string {
	cutoff := s.now().Add(-maxIdle)

	// carts are closed under the registry lock so a concurrent Session
	// rehydrates only after the final write has landed
	s.mu.Lock()
	var ids []string
	for id, cart := range s.carts {
		if cart.idleSince().Before(cutoff) {
			cart.Close()
			delete(s.carts, id)
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	if len(ids) > 0 {
		logger.Info("Evicted idle cart sessions", map[string]interface{}{
			"count": len(ids),
		})
	}
	return ids
}

func (s *cartService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}

func (s *cartService) Close() {
	s.mu.Lock()
	carts := make([]*Cart, 0, len(s.carts))
	for _, cart := range s.carts {
		carts = append(carts, cart)
	}
	s.carts = make(map[string]*Cart)
	s.mu.Unlock()

	for _, cart := range carts {
		cart.Close()
	}
}
