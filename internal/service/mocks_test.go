package service

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cloudsupply/storebot/internal/model"
)

// monotonic CreatedAt source so insertion order is deterministic.
var clockSeq int64

func nextTime() time.Time {
	n := atomic.AddInt64(&clockSeq, 1)
	return time.Unix(0, n*int64(time.Millisecond))
}

type mockCartRepo struct {
	entries map[uuid.UUID]*model.CartEntry
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{entries: make(map[uuid.UUID]*model.CartEntry)}
}

func (m *mockCartRepo) AddEntry(_ context.Context, userID, productID uuid.UUID, quantity int) (*model.CartEntry, error) {
	for _, e := range m.entries {
		if e.UserID == userID && e.ProductID == productID {
			e.Quantity += quantity
			copied := *e
			return &copied, nil
		}
	}
	e := &model.CartEntry{
		ID: uuid.New(), UserID: userID, ProductID: productID,
		Quantity: quantity, CreatedAt: nextTime(),
	}
	m.entries[e.ID] = e
	copied := *e
	return &copied, nil
}

// insert bypasses the merge, planting the duplicate rows repair removes.
func (m *mockCartRepo) insert(userID, productID uuid.UUID, quantity int) *model.CartEntry {
	e := &model.CartEntry{
		ID: uuid.New(), UserID: userID, ProductID: productID,
		Quantity: quantity, CreatedAt: nextTime(),
	}
	m.entries[e.ID] = e
	return e
}

func (m *mockCartRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.CartEntry, error) {
	var out []model.CartEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockCartRepo) GetEntry(_ context.Context, entryID uuid.UUID) (*model.CartEntry, error) {
	e, ok := m.entries[entryID]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (m *mockCartRepo) UpdateQuantity(_ context.Context, entryID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		delete(m.entries, entryID)
		return nil
	}
	if e, ok := m.entries[entryID]; ok {
		e.Quantity = quantity
	}
	return nil
}

func (m *mockCartRepo) RemoveEntry(_ context.Context, entryID uuid.UUID) error {
	delete(m.entries, entryID)
	return nil
}

func (m *mockCartRepo) ClearByUser(_ context.Context, userID uuid.UUID) error {
	for id, e := range m.entries {
		if e.UserID == userID {
			delete(m.entries, id)
		}
	}
	return nil
}

func (m *mockCartRepo) ClearAll(_ context.Context) error {
	m.entries = make(map[uuid.UUID]*model.CartEntry)
	return nil
}

func (m *mockCartRepo) Coalesce(ctx context.Context, userID uuid.UUID) (int, error) {
	rows, _ := m.ListByUser(ctx, userID)
	keepers := make(map[uuid.UUID]uuid.UUID)
	removed := 0
	for _, row := range rows {
		keeperID, ok := keepers[row.ProductID]
		if !ok {
			keepers[row.ProductID] = row.ID
			continue
		}
		m.entries[keeperID].Quantity += row.Quantity
		delete(m.entries, row.ID)
		removed++
	}
	return removed, nil
}

type mockCatalogRepo struct {
	models   map[uuid.UUID]*model.ProductModel
	products map[uuid.UUID]*model.Product
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		models:   make(map[uuid.UUID]*model.ProductModel),
		products: make(map[uuid.UUID]*model.Product),
	}
}

func (m *mockCatalogRepo) addProduct(price decimal.Decimal, stock int) *model.Product {
	p := &model.Product{
		ID: uuid.New(), ModelID: uuid.New(), Flavor: "test",
		Price: price, Stock: stock, Available: true, CreatedAt: nextTime(),
	}
	m.products[p.ID] = p
	return p
}

func (m *mockCatalogRepo) CreateModel(_ context.Context, pm *model.ProductModel) error {
	pm.ID = uuid.New()
	pm.CreatedAt = nextTime()
	m.models[pm.ID] = pm
	return nil
}

func (m *mockCatalogRepo) GetModelByID(_ context.Context, id uuid.UUID) (*model.ProductModel, error) {
	pm, ok := m.models[id]
	if !ok {
		return nil, nil
	}
	copied := *pm
	return &copied, nil
}

func (m *mockCatalogRepo) ListModels(_ context.Context, availableOnly bool) ([]model.ProductModel, error) {
	var out []model.ProductModel
	for _, pm := range m.models {
		if availableOnly && !pm.Available {
			continue
		}
		out = append(out, *pm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockCatalogRepo) UpdateModel(_ context.Context, pm *model.ProductModel) error {
	copied := *pm
	m.models[pm.ID] = &copied
	return nil
}

func (m *mockCatalogRepo) DeleteModel(_ context.Context, id uuid.UUID) error {
	delete(m.models, id)
	for pid, p := range m.products {
		if p.ModelID == id {
			delete(m.products, pid)
		}
	}
	return nil
}

func (m *mockCatalogRepo) CreateProduct(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	p.CreatedAt = nextTime()
	m.products[p.ID] = p
	return nil
}

func (m *mockCatalogRepo) GetProductByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *mockCatalogRepo) ListProductsByModel(_ context.Context, modelID uuid.UUID, availableOnly bool) ([]model.Product, error) {
	var out []model.Product
	for _, p := range m.products {
		if p.ModelID != modelID {
			continue
		}
		if availableOnly && (!p.Available || p.Stock <= 0) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockCatalogRepo) UpdateProduct(_ context.Context, p *model.Product) error {
	copied := *p
	m.products[p.ID] = &copied
	return nil
}

func (m *mockCatalogRepo) DeleteProduct(_ context.Context, id uuid.UUID) error {
	delete(m.products, id)
	return nil
}

func (m *mockCatalogRepo) AdjustStock(_ context.Context, productID uuid.UUID, delta int) (int, error) {
	p, ok := m.products[productID]
	if !ok {
		return 0, errors.New("no product row")
	}
	p.Stock += delta
	if p.Stock < 0 {
		p.Stock = 0
	}
	return p.Stock, nil
}

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
	items  map[uuid.UUID]*model.OrderLineItem
	seq    map[uuid.UUID]time.Time
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[uuid.UUID]*model.Order),
		items:  make(map[uuid.UUID]*model.OrderLineItem),
		seq:    make(map[uuid.UUID]time.Time),
	}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = nextTime()
	order.UpdatedAt = order.CreatedAt
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *o
	copied.Items, _ = m.ListItems(ctx, id)
	return &copied, nil
}

func (m *mockOrderRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	var latest *model.Order
	for _, o := range m.orders {
		if o.UserID != userID || o.Status != model.OrderStatusProcessing {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	if latest == nil {
		return nil, nil
	}
	return m.GetByID(ctx, latest.ID)
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID != userID {
			continue
		}
		full, _ := m.GetByID(ctx, o.ID)
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		full, _ := m.GetByID(ctx, o.ID)
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) error {
	if o, ok := m.orders[id]; ok {
		o.Status = status
		o.UpdatedAt = nextTime()
	}
	return nil
}

func (m *mockOrderRepo) AddToTotal(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	if o, ok := m.orders[id]; ok {
		o.TotalPrice = o.TotalPrice.Add(amount)
		o.UpdatedAt = nextTime()
	}
	return nil
}

func (m *mockOrderRepo) SetTotal(_ context.Context, id uuid.UUID, total decimal.Decimal) error {
	if o, ok := m.orders[id]; ok {
		o.TotalPrice = total
		o.UpdatedAt = nextTime()
	}
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.orders, id)
	for itemID, item := range m.items {
		if item.OrderID == id {
			delete(m.items, itemID)
		}
	}
	return nil
}

func (m *mockOrderRepo) WipeAll(_ context.Context) error {
	m.orders = make(map[uuid.UUID]*model.Order)
	m.items = make(map[uuid.UUID]*model.OrderLineItem)
	return nil
}

func (m *mockOrderRepo) InsertItem(_ context.Context, item *model.OrderLineItem) error {
	item.ID = uuid.New()
	copied := *item
	m.items[item.ID] = &copied
	m.seq[item.ID] = nextTime()
	return nil
}

func (m *mockOrderRepo) ListItems(_ context.Context, orderID uuid.UUID) ([]model.OrderLineItem, error) {
	var out []model.OrderLineItem
	for _, item := range m.items {
		if item.OrderID == orderID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.seq[out[i].ID].Before(m.seq[out[j].ID]) })
	return out, nil
}

func (m *mockOrderRepo) ItemsByKey(ctx context.Context, orderID, productID uuid.UUID, price decimal.Decimal) ([]model.OrderLineItem, error) {
	all, _ := m.ListItems(ctx, orderID)
	var out []model.OrderLineItem
	for _, item := range all {
		if item.ProductID == productID && item.PriceAtOrder.Equal(price) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	if item, ok := m.items[itemID]; ok {
		item.Quantity = quantity
	}
	return nil
}

func (m *mockOrderRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	delete(m.items, itemID)
	return nil
}

type mockUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) GetOrCreate(_ context.Context, user *model.User) (*model.User, error) {
	for _, u := range m.users {
		if u.TelegramID == user.TelegramID {
			u.Username = user.Username
			u.FirstName = user.FirstName
			u.LastName = user.LastName
			copied := *u
			return &copied, nil
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = nextTime()
	copied := *user
	m.users[user.ID] = &copied
	result := copied
	return &result, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	for _, u := range m.users {
		if u.TelegramID == telegramID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) SetBanned(_ context.Context, id uuid.UUID, banned bool) error {
	if u, ok := m.users[id]; ok {
		u.Banned = banned
	}
	return nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockUserRepo) Count(_ context.Context) (int, error) {
	return len(m.users), nil
}

type mockSettingRepo struct {
	values map[string]string
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{values: make(map[string]string)}
}

func (m *mockSettingRepo) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockSettingRepo) Set(_ context.Context, key, value string) error {
	m.values[key] = value
	return nil
}
