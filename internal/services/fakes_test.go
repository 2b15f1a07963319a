package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/repositories"
)

// fakeRepoError satisfies repositories.RepositoryError for tests.
type fakeRepoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *fakeRepoError) Error() string       { return e.msg }
func (e *fakeRepoError) IsNotFound() bool    { return e.notFound }
func (e *fakeRepoError) IsConflict() bool    { return e.conflict }
func (e *fakeRepoError) IsUnavailable() bool { return e.unavailable }

func repoNotFound() error    { return &fakeRepoError{msg: "not found", notFound: true} }
func repoConflict() error    { return &fakeRepoError{msg: "conflict", conflict: true} }
func repoUnavailable() error { return &fakeRepoError{msg: "unavailable", unavailable: true} }

type stockAdjustment struct {
	ProductID string
	Delta     int
}

type fakeProductRepo struct {
	products     map[string]domain.Product
	adjustments  []stockAdjustment
	adjustErr    error
	findErr      error
	insertCalled []domain.Product
	updateCalled []domain.Product
	deleted      []string
}

func newFakeProductRepo(products ...domain.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: make(map[string]domain.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (f *fakeProductRepo) Insert(_ context.Context, product domain.Product) (domain.Product, error) {
	f.insertCalled = append(f.insertCalled, product)
	if _, ok := f.products[product.ID]; ok {
		return domain.Product{}, repoConflict()
	}
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductRepo) Update(_ context.Context, product domain.Product) (domain.Product, error) {
	f.updateCalled = append(f.updateCalled, product)
	if _, ok := f.products[product.ID]; !ok {
		return domain.Product{}, repoNotFound()
	}
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductRepo) Delete(_ context.Context, productID string) error {
	if _, ok := f.products[productID]; !ok {
		return repoNotFound()
	}
	delete(f.products, productID)
	f.deleted = append(f.deleted, productID)
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, productID string) (domain.Product, error) {
	if f.findErr != nil {
		return domain.Product{}, f.findErr
	}
	product, ok := f.products[productID]
	if !ok {
		return domain.Product{}, repoNotFound()
	}
	return product, nil
}

func (f *fakeProductRepo) List(_ context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	var items []domain.Product
	for _, p := range f.products {
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		items = append(items, p)
	}
	return domain.CursorPage[domain.Product]{Items: items}, nil
}

func (f *fakeProductRepo) Count(context.Context) (int, error) { return len(f.products), nil }

func (f *fakeProductRepo) AdjustStock(_ context.Context, productID string, delta int) (int, error) {
	f.adjustments = append(f.adjustments, stockAdjustment{ProductID: productID, Delta: delta})
	if f.adjustErr != nil {
		return 0, f.adjustErr
	}
	product, ok := f.products[productID]
	if !ok {
		return 0, repoNotFound()
	}
	product.Stock += delta
	if product.Stock < 0 {
		product.Stock = 0
	}
	f.products[productID] = product
	return product.Stock, nil
}

type fakeOrderRepo struct {
	orders map[string]domain.Order
	// shortIDConflicts makes the first N inserts fail with a conflict.
	shortIDConflicts int
	insertErr        error
	inserted         []domain.Order
	exported         map[string]time.Time
	markExportedErr  error
	takenShortIDs    map[string]bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:        make(map[string]domain.Order),
		exported:      make(map[string]time.Time),
		takenShortIDs: make(map[string]bool),
	}
}

func (f *fakeOrderRepo) Insert(_ context.Context, order domain.Order) (domain.Order, error) {
	f.inserted = append(f.inserted, order)
	if f.insertErr != nil {
		return domain.Order{}, f.insertErr
	}
	if f.shortIDConflicts > 0 {
		f.shortIDConflicts--
		return domain.Order{}, repoConflict()
	}
	if f.takenShortIDs[order.ShortOrderID] {
		return domain.Order{}, repoConflict()
	}
	f.takenShortIDs[order.ShortOrderID] = true
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, repoNotFound()
	}
	return order, nil
}

func (f *fakeOrderRepo) FindByShortID(_ context.Context, shortOrderID string) (domain.Order, error) {
	for _, order := range f.orders {
		if order.ShortOrderID == shortOrderID {
			return order, nil
		}
	}
	return domain.Order{}, repoNotFound()
}

func (f *fakeOrderRepo) List(_ context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	var items []domain.Order
	for _, order := range f.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		items = append(items, order)
	}
	return domain.CursorPage[domain.Order]{Items: items}, nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID string, _ domain.Pagination) (domain.CursorPage[domain.Order], error) {
	var items []domain.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			items = append(items, order)
		}
	}
	return domain.CursorPage[domain.Order]{Items: items}, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, repoNotFound()
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	f.orders[orderID] = order
	return order, nil
}

func (f *fakeOrderRepo) UpdateFulfilment(_ context.Context, orderID string, update repositories.OrderFulfilmentUpdate) (domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, repoNotFound()
	}
	if update.TrackingNumber != nil {
		order.TrackingNumber = *update.TrackingNumber
	}
	if update.Notes != nil {
		order.Notes = *update.Notes
	}
	order.UpdatedAt = update.UpdatedAt
	f.orders[orderID] = order
	return order, nil
}

func (f *fakeOrderRepo) MarkExported(_ context.Context, orderID string, exportedAt time.Time) error {
	if f.markExportedErr != nil {
		return f.markExportedErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return repoNotFound()
	}
	order.ExportedAt = &exportedAt
	f.orders[orderID] = order
	f.exported[orderID] = exportedAt
	return nil
}

func (f *fakeOrderRepo) ListUnexported(_ context.Context, limit int) ([]domain.Order, error) {
	var items []domain.Order
	for _, order := range f.orders {
		if order.ExportedAt == nil {
			items = append(items, order)
		}
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (f *fakeOrderRepo) CountByStatus(context.Context) (map[domain.OrderStatus]int, error) {
	counts := make(map[domain.OrderStatus]int)
	for _, order := range f.orders {
		counts[order.Status]++
	}
	return counts, nil
}

func (f *fakeOrderRepo) SumTotals(_ context.Context, exclude []domain.OrderStatus) (int64, error) {
	excluded := make(map[domain.OrderStatus]bool, len(exclude))
	for _, status := range exclude {
		excluded[status] = true
	}
	var sum int64
	for _, order := range f.orders {
		if excluded[order.Status] {
			continue
		}
		sum += order.Total
	}
	return sum, nil
}

type fakeCartRepo struct {
	carts    map[string]domain.CartState
	cleared  []string
	getErr   error
	saveErr  error
	clearErr error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]domain.CartState)}
}

func (f *fakeCartRepo) Get(_ context.Context, userID string) (domain.CartState, error) {
	if f.getErr != nil {
		return domain.CartState{}, f.getErr
	}
	cart, ok := f.carts[userID]
	if !ok {
		return domain.CartState{}, repoNotFound()
	}
	return cart, nil
}

func (f *fakeCartRepo) Save(_ context.Context, cart domain.CartState) (domain.CartState, error) {
	if f.saveErr != nil {
		return domain.CartState{}, f.saveErr
	}
	f.carts[cart.UserID] = cart
	return cart, nil
}

func (f *fakeCartRepo) Clear(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	if f.clearErr != nil {
		return f.clearErr
	}
	delete(f.carts, userID)
	return nil
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) Upsert(_ context.Context, user domain.User) (domain.User, error) {
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, userID string) (domain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return domain.User{}, repoNotFound()
	}
	return user, nil
}

func (f *fakeUserRepo) List(_ context.Context, _ domain.Pagination) (domain.CursorPage[domain.User], error) {
	var items []domain.User
	for _, u := range f.users {
		items = append(items, u)
	}
	return domain.CursorPage[domain.User]{Items: items}, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, userID string, role domain.UserRole, updatedAt time.Time) (domain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return domain.User{}, repoNotFound()
	}
	user.Role = role
	user.UpdatedAt = updatedAt
	f.users[userID] = user
	return user, nil
}

func (f *fakeUserRepo) Count(context.Context) (int, error) { return len(f.users), nil }

type fakeSettingsRepo struct {
	settings domain.Settings
	getErr   error
}

func (f *fakeSettingsRepo) Get(context.Context) (domain.Settings, error) {
	if f.getErr != nil {
		return domain.Settings{}, f.getErr
	}
	return f.settings, nil
}

func (f *fakeSettingsRepo) Save(_ context.Context, settings domain.Settings) (domain.Settings, error) {
	f.settings = settings
	return settings, nil
}

type fakeExporter struct {
	exported []domain.Order
	err      error
}

func (f *fakeExporter) ExportOrder(_ context.Context, order domain.Order) error {
	f.exported = append(f.exported, order)
	return f.err
}

type fakePublisher struct {
	events []OrderEvent
	err    error
}

func (f *fakePublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type fakeSettingsService struct {
	settings Settings
	err      error
}

func (f *fakeSettingsService) GetSettings(context.Context) (Settings, error) {
	if f.err != nil {
		return Settings{}, f.err
	}
	return f.settings, nil
}

var errFakeDownstream = errors.New("downstream blew up")
