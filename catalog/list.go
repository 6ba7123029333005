package catalog

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync"

	"product-console/client"
	"product-console/models"

	"go.uber.org/zap"
)

// User-facing messages. Failures are not told apart for the user; the
// underlying error is logged.
const (
	MsgLoadFailed   = "Error fetching products"
	MsgCreateFailed = "Error adding product"
	MsgUpdateFailed = "Error updating product"
	MsgDeleteFailed = "Error deleting product"
)

var (
	// ErrLoggedOut is returned by Load when no session is present
	ErrLoggedOut = errors.New("not logged in")
	// ErrClosed is returned for calls made after Close
	ErrClosed = errors.New("list closed")
	// ErrNotFound is returned by BeginEdit for an unknown product
	ErrNotFound = errors.New("product not found")
)

// API is the part of the product client the list needs
type API interface {
	ListAll(ctx context.Context) ([]models.Product, error)
	List(ctx context.Context, q client.Query) ([]models.Product, error)
	Create(ctx context.Context, in models.ProductInput) (models.Product, error)
	Update(ctx context.Context, id string, update models.ProductUpdate) (models.Product, error)
	Delete(ctx context.Context, id string) error
}

// Sessions is the part of the session provider the list needs
type Sessions interface {
	LoggedIn(ctx context.Context) bool
	End(ctx context.Context) error
}

// ListModel owns the session's copy of the product collection. Every mutation
// is applied only after the backend confirmed it. It is safe for concurrent
// use: responses may arrive in any order, and responses that arrive after
// Close are discarded.
type ListModel struct {
	mu        sync.RWMutex
	api       API
	sessions  Sessions
	logger    *zap.Logger
	prefilter bool

	products []models.Product
	criteria Criteria
	editing  string
	status   string
	closed   bool
}

// ListOption configures a ListModel
type ListOption func(*ListModel)

// WithSessions makes Load skip the fetch when logged out and enables Logout
func WithSessions(s Sessions) ListOption {
	return func(m *ListModel) { m.sessions = s }
}

// WithServerPrefilter makes Load use the backend's filtered listing for the
// first applicable constraint. The client-side filter still applies on top,
// so the visible list is the same as with a full load.
func WithServerPrefilter(enabled bool) ListOption {
	return func(m *ListModel) { m.prefilter = enabled }
}

// WithListLogger sets the logger
func WithListLogger(l *zap.Logger) ListOption {
	return func(m *ListModel) { m.logger = l }
}

// NewListModel creates an empty list
func NewListModel(api API, opts ...ListOption) *ListModel {
	m := &ListModel{
		api:    api,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the collection with the backend's. On failure the collection
// is left unchanged.
func (m *ListModel) Load(ctx context.Context) error {
	if m.isClosed() {
		return ErrClosed
	}
	if m.sessions != nil && !m.sessions.LoggedIn(ctx) {
		return ErrLoggedOut
	}

	m.mu.RLock()
	criteria := m.criteria
	m.mu.RUnlock()

	var (
		products []models.Product
		err      error
	)
	if m.prefilter {
		products, err = m.api.List(ctx, criteria.ServerQuery())
	} else {
		products, err = m.api.ListAll(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		m.logger.Debug("Discarding product list for closed view")
		return err
	}
	if err != nil {
		m.logger.Error("Error fetching products", zap.Error(err))
		m.status = MsgLoadFailed
		return err
	}

	m.products = products
	m.status = ""
	if m.editing != "" && m.indexLocked(m.editing) < 0 {
		m.editing = ""
	}
	m.logger.Info("Products loaded", zap.Int("count", len(products)), zap.Bool("prefilter", m.prefilter))
	return nil
}

// Create submits a new product and appends the confirmed product
func (m *ListModel) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	if m.isClosed() {
		return models.Product{}, ErrClosed
	}

	created, err := m.api.Create(ctx, in)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return created, err
	}
	if err != nil {
		m.logger.Error("Error adding product", zap.Error(err))
		m.status = MsgCreateFailed
		return models.Product{}, err
	}

	if i := m.indexLocked(created.ID); i >= 0 {
		m.products[i] = created
	} else {
		m.products = append(m.products, created)
	}
	m.status = ""
	m.logger.Info("Product added", zap.String("product_id", created.ID))
	return created, nil
}

// Update submits a change and replaces the entry with the backend's version.
// On success the edit slot is released; on failure it stays open.
func (m *ListModel) Update(ctx context.Context, id string, update models.ProductUpdate) (models.Product, error) {
	if m.isClosed() {
		return models.Product{}, ErrClosed
	}

	updated, err := m.api.Update(ctx, id, update)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return updated, err
	}
	if err != nil {
		m.logger.Error("Error updating product", zap.Error(err), zap.String("product_id", id))
		m.status = MsgUpdateFailed
		return models.Product{}, err
	}

	if updated.ID == "" {
		updated.ID = id
	}
	if i := m.indexLocked(id); i >= 0 {
		m.products[i] = updated
	} else {
		// removed while the request was in flight
		m.logger.Debug("Dropping update for product no longer listed", zap.String("product_id", id))
	}
	if m.editing == id {
		m.editing = ""
	}
	m.status = ""
	return updated, nil
}

// Delete removes a product. Deleting an id that is not listed does nothing.
func (m *ListModel) Delete(ctx context.Context, id string) error {
	if m.isClosed() {
		return ErrClosed
	}
	m.mu.RLock()
	listed := m.indexLocked(id) >= 0
	m.mu.RUnlock()
	if !listed {
		return nil
	}

	err := m.api.Delete(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return err
	}
	i := m.indexLocked(id)
	if err != nil {
		// a faster request already removed it
		var apiErr *client.APIError
		if i < 0 && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil
		}
		m.logger.Error("Error deleting product", zap.Error(err), zap.String("product_id", id))
		m.status = MsgDeleteFailed
		return err
	}

	if i >= 0 {
		m.products = append(m.products[:i:i], m.products[i+1:]...)
	}
	if m.editing == id {
		m.editing = ""
	}
	m.status = ""
	m.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// Logout ends the session. The collection is left as is; callers leave the view.
func (m *ListModel) Logout(ctx context.Context) error {
	if m.sessions == nil {
		return nil
	}
	return m.sessions.End(ctx)
}

// BeginEdit puts a product into the single edit slot, replacing any other
func (m *ListModel) BeginEdit(id string) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return models.Product{}, ErrNotFound
	}
	m.editing = id
	return m.products[i], nil
}

// CancelEdit releases the edit slot
func (m *ListModel) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editing = ""
}

// Editing returns the product in the edit slot
func (m *ListModel) Editing() (models.Product, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.editing == "" {
		return models.Product{}, false
	}
	i := m.indexLocked(m.editing)
	if i < 0 {
		return models.Product{}, false
	}
	return m.products[i], true
}

// SetCriteria replaces the filter criteria. It reports whether the change
// needs a Load because the server-side listing depends on it.
func (m *ListModel) SetCriteria(c Criteria) bool {
	c = c.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.criteria
	m.criteria = c
	return m.prefilter && !reflect.DeepEqual(old.ServerQuery(), c.ServerQuery())
}

// Criteria returns the current criteria
func (m *ListModel) Criteria() Criteria {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.criteria
}

// Products returns a copy of the collection
func (m *ListModel) Products() []models.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Product(nil), m.products...)
}

// Visible returns the products passing the current criteria
func (m *ListModel) Visible() []models.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Filter(m.products, m.criteria)
}

// Status returns the last user-facing error message, "" if the last operation succeeded
func (m *ListModel) Status() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Close marks the view as gone; later responses are discarded
func (m *ListModel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *ListModel) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *ListModel) indexLocked(id string) int {
	for i, p := range m.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
