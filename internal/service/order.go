package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cloudsupply/storebot/internal/model"
	"github.com/cloudsupply/storebot/internal/repository"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNothingToOrder = errors.New("no purchasable items in cart")
	ErrInvalidStatus  = errors.New("invalid order status")
)

// OrderPublisher emits order events to the notification queue. A nil-safe
// no-op implementation is acceptable when messaging is disabled.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, msg model.OrderPlaced) error
}

// CheckoutResult reports what the checkout actually did: the resulting
// order, whether an existing processing order was amended, and the ids of
// cart entries' products that were skipped because they were unavailable
// or out of stock at commit time.
type CheckoutResult struct {
	Order   *model.Order
	Amended bool
	Skipped []uuid.UUID
}

// OrderService turns carts into orders and keeps the stock ledger and
// order totals consistent with the line items.
type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
	publisher   OrderPublisher
	deliveryFee decimal.Decimal
	log         *slog.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	catalogRepo repository.CatalogRepository,
	publisher OrderPublisher,
	deliveryFee decimal.Decimal,
	log *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		publisher:   publisher,
		deliveryFee: deliveryFee,
		log:         log,
	}
}

// Checkout converts the user's cart into an order. If the user already has
// an order in processing status, the cart is folded into it and only item
// prices are added to the total; otherwise a new order is created and the
// delivery fee is charged once. Entries whose product is unavailable or
// lacks stock at commit time are skipped, not failed; the cart is cleared
// either way.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, method model.DeliveryMethod, contactInfo string) (*CheckoutResult, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("unknown delivery method %q", method)
	}

	if _, err := s.cartRepo.Coalesce(ctx, userID); err != nil {
		return nil, fmt.Errorf("coalesce cart: %w", err)
	}
	entries, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCart
	}

	active, err := s.orderRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get active order: %w", err)
	}

	var result *CheckoutResult
	if active != nil {
		result, err = s.amendOrder(ctx, active, entries)
	} else {
		result, err = s.createOrder(ctx, userID, method, contactInfo, entries)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.ClearByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if s.publisher != nil {
		msg := model.OrderPlaced{OrderID: result.Order.ID, UserID: userID, Amended: result.Amended}
		if err := s.publisher.PublishOrderPlaced(ctx, msg); err != nil {
			// Never fail the checkout over notification delivery.
			s.log.Warn("publish order placed", "order_id", result.Order.ID, "error", err)
		}
	}
	return result, nil
}

func (s *OrderService) createOrder(ctx context.Context, userID uuid.UUID, method model.DeliveryMethod, contactInfo string, entries []model.CartEntry) (*CheckoutResult, error) {
	var (
		items   []model.OrderLineItem
		total   decimal.Decimal
		skipped []uuid.UUID
	)
	for _, entry := range entries {
		product, err := s.catalogRepo.GetProductByID(ctx, entry.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil || !product.Available || product.Stock < entry.Quantity {
			skipped = append(skipped, entry.ProductID)
			continue
		}
		items = append(items, model.OrderLineItem{
			ProductID:    product.ID,
			Quantity:     entry.Quantity,
			PriceAtOrder: product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))))
	}
	if len(items) == 0 {
		return nil, ErrNothingToOrder
	}

	fee := decimal.Zero
	if method == model.DeliveryCourier {
		fee = s.deliveryFee
	}
	order := &model.Order{
		UserID:         userID,
		Status:         model.OrderStatusProcessing,
		TotalPrice:     total.Add(fee),
		DeliveryMethod: method,
		DeliveryFee:    fee,
		ContactInfo:    contactInfo,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	for i := range items {
		items[i].OrderID = order.ID
		if err := s.orderRepo.InsertItem(ctx, &items[i]); err != nil {
			return nil, fmt.Errorf("insert line item: %w", err)
		}
		if _, err := s.catalogRepo.AdjustStock(ctx, items[i].ProductID, -items[i].Quantity); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}
	order.Items = items
	return &CheckoutResult{Order: order, Skipped: skipped}, nil
}

// amendOrder folds cart entries into an existing processing order. Line
// items merge with existing rows that share (product, price at order);
// the order total grows by item prices only, never a second delivery fee.
func (s *OrderService) amendOrder(ctx context.Context, order *model.Order, entries []model.CartEntry) (*CheckoutResult, error) {
	var (
		added   decimal.Decimal
		skipped []uuid.UUID
		folded  int
	)
	for _, entry := range entries {
		product, err := s.catalogRepo.GetProductByID(ctx, entry.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil || !product.Available || product.Stock < entry.Quantity {
			skipped = append(skipped, entry.ProductID)
			continue
		}

		if err := s.addToOrder(ctx, order.ID, product.ID, entry.Quantity, product.Price); err != nil {
			return nil, err
		}
		if _, err := s.catalogRepo.AdjustStock(ctx, product.ID, -entry.Quantity); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		added = added.Add(product.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))))
		folded++
	}
	if folded == 0 {
		return nil, ErrNothingToOrder
	}

	if err := s.orderRepo.AddToTotal(ctx, order.ID, added); err != nil {
		return nil, fmt.Errorf("add to total: %w", err)
	}
	updated, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}
	return &CheckoutResult{Order: updated, Amended: true, Skipped: skipped}, nil
}

// addToOrder merges quantity into the line item for (product, price) or
// inserts a fresh one. Stray duplicate rows are collapsed into the oldest
// before the merge.
func (s *OrderService) addToOrder(ctx context.Context, orderID, productID uuid.UUID, quantity int, price decimal.Decimal) error {
	rows, err := s.orderRepo.ItemsByKey(ctx, orderID, productID, price)
	if err != nil {
		return fmt.Errorf("find line items: %w", err)
	}
	if len(rows) == 0 {
		item := &model.OrderLineItem{
			OrderID:      orderID,
			ProductID:    productID,
			Quantity:     quantity,
			PriceAtOrder: price,
		}
		if err := s.orderRepo.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}
		return nil
	}

	keeper := rows[0]
	sum := keeper.Quantity + quantity
	for _, dup := range rows[1:] {
		sum += dup.Quantity
		if err := s.orderRepo.DeleteItem(ctx, dup.ID); err != nil {
			return fmt.Errorf("delete duplicate line item: %w", err)
		}
	}
	if err := s.orderRepo.UpdateItemQuantity(ctx, keeper.ID, sum); err != nil {
		return fmt.Errorf("update line item: %w", err)
	}
	return nil
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *OrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	return s.orderRepo.ListAll(ctx)
}

// ActiveUnits returns the unit count of the user's processing order, or
// zero when none exists. The transport layer adds cart units on top when
// computing quota headroom.
func (s *OrderService) ActiveUnits(ctx context.Context, userID uuid.UUID) (int, error) {
	order, err := s.orderRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get active order: %w", err)
	}
	if order == nil {
		return 0, nil
	}
	units := 0
	for _, item := range order.Items {
		units += item.Quantity
	}
	return units, nil
}

// UpdateStatus transitions an order within the closed status set.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// Delete removes the order and returns its reserved units to stock.
// Items whose product has since left the catalog have nothing to
// restore and are skipped.
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}
	for _, item := range order.Items {
		product, err := s.catalogRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			continue
		}
		if _, err := s.catalogRepo.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// MergeDuplicateLineItems collapses duplicate (product, price at order)
// rows of one order into the oldest row, summing quantities. Returns the
// number of rows removed. Idempotent.
func (s *OrderService) MergeDuplicateLineItems(ctx context.Context, orderID uuid.UUID) (int, error) {
	items, err := s.orderRepo.ListItems(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("list line items: %w", err)
	}

	type key struct {
		product uuid.UUID
		price   string
	}
	keepers := make(map[key]*model.OrderLineItem)
	sums := make(map[key]int)
	removed := 0
	for i := range items {
		k := key{product: items[i].ProductID, price: items[i].PriceAtOrder.String()}
		sums[k] += items[i].Quantity
		if _, ok := keepers[k]; !ok {
			keepers[k] = &items[i]
			continue
		}
		if err := s.orderRepo.DeleteItem(ctx, items[i].ID); err != nil {
			return removed, fmt.Errorf("delete duplicate line item: %w", err)
		}
		removed++
	}
	for k, keeper := range keepers {
		if sums[k] == keeper.Quantity {
			continue
		}
		if err := s.orderRepo.UpdateItemQuantity(ctx, keeper.ID, sums[k]); err != nil {
			return removed, fmt.Errorf("update line item: %w", err)
		}
	}
	return removed, nil
}

// RepairAll merges duplicate line items across every order and recomputes
// each order's total as the sum of its items plus its delivery fee.
// Returns the number of orders whose state changed.
func (s *OrderService) RepairAll(ctx context.Context) (int, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list orders: %w", err)
	}
	repaired := 0
	for _, order := range orders {
		removed, err := s.MergeDuplicateLineItems(ctx, order.ID)
		if err != nil {
			return repaired, err
		}

		items, err := s.orderRepo.ListItems(ctx, order.ID)
		if err != nil {
			return repaired, fmt.Errorf("list line items: %w", err)
		}
		total := order.DeliveryFee
		for _, item := range items {
			total = total.Add(item.PriceAtOrder.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		if removed == 0 && total.Equal(order.TotalPrice) {
			continue
		}
		if err := s.orderRepo.SetTotal(ctx, order.ID, total); err != nil {
			return repaired, fmt.Errorf("set total: %w", err)
		}
		repaired++
	}
	return repaired, nil
}
