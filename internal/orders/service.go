package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/storefronthq/storefront-backend/internal/activity"
	"github.com/storefronthq/storefront-backend/internal/notifications"
	"github.com/storefronthq/storefront-backend/internal/users"
	"github.com/storefronthq/storefront-backend/pkg/db"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
	"github.com/storefronthq/storefront-backend/pkg/logger"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Store      Store
	Stock      StockStore
	Accounts   AccountStore
	Promotions PromotionApplier
	Mailer     ConfirmationSender
	Activity   activity.Recorder
	Logger     *logger.Logger
}

// Service owns checkout, the customer order views, and the staff-side
// order administration operations.
type Service interface {
	Create(ctx context.Context, userID string, input CreateOrderInput) (*Order, error)
	ListMine(ctx context.Context, userID string, page, limit int) ([]Order, error)
	Get(ctx context.Context, userID string, isAdmin bool, orderID string) (*Order, error)
	Cancel(ctx context.Context, userID, orderID string) (*Order, error)

	ListAll(ctx context.Context, page, limit int) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, target enums.OrderStatus) (*Order, error)
	Delete(ctx context.Context, orderID string) error
	Report(ctx context.Context) (*SalesReport, error)
}

type service struct {
	store      Store
	stock      StockStore
	accounts   AccountStore
	promotions PromotionApplier
	mailer     ConfirmationSender
	activity   activity.Recorder
	logg       *logger.Logger
}

// NewService builds the order service. The mailer is optional; with none
// configured confirmations are skipped.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock store is required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if params.Promotions == nil {
		return nil, fmt.Errorf("promotion applier is required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		store:      params.Store,
		stock:      params.Stock,
		accounts:   params.Accounts,
		promotions: params.Promotions,
		mailer:     params.Mailer,
		activity:   params.Activity,
		logg:       params.Logger,
	}, nil
}

// Create runs checkout. Stock is claimed per line with a conditional
// decrement; any line failure rolls back every decrement already made, so
// the order either exists with all of its stock claimed or not at all.
func (s *service) Create(ctx context.Context, userID string, input CreateOrderInput) (*Order, error) {
	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	for _, line := range input.Lines {
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be at least 1")
		}
	}

	lines, err := s.claimStock(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	var subtotal int64
	for _, line := range lines {
		subtotal += line.TotalCents
	}

	var discount int64
	promoCode := strings.ToUpper(strings.TrimSpace(input.PromoCode))
	if promoCode != "" {
		applied, err := s.promotions.Apply(ctx, promoCode)
		if err != nil {
			s.releaseStock(ctx, lines)
			return nil, err
		}
		discount = applied.DiscountCents(subtotal)
	}

	order := &Order{
		UserID:          userID,
		Lines:           lines,
		SubtotalCents:   subtotal,
		DiscountCents:   discount,
		TotalCents:      subtotal - discount,
		PromoCode:       promoCode,
		ShippingAddress: addressFromInput(input.ShippingAddress),
		PaymentMethod:   strings.TrimSpace(input.PaymentMethod),
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusUnpaid,
	}
	if err := s.store.Insert(ctx, order); err != nil {
		s.releaseStock(ctx, lines)
		if promoCode != "" {
			s.releasePromo(ctx, promoCode)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	orderID := order.ID.Hex()
	if err := s.accounts.AppendOrderRef(ctx, userID, orderID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "order_id", orderID), "order.append_ref_failed")
	}
	if err := s.accounts.ClearCart(ctx, userID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "order_id", orderID), "order.clear_cart_failed")
	}

	s.sendConfirmation(ctx, account, order)
	s.activity.Record(ctx, userID, enums.ActivityPurchase,
		fmt.Sprintf("placed order %s", orderID))

	return order, nil
}

// claimStock snapshots each product and decrements its stock. On any
// failure every decrement made so far is released before returning.
func (s *service) claimStock(ctx context.Context, inputs []OrderLineInput) ([]LineItem, error) {
	lines := make([]LineItem, 0, len(inputs))
	for _, in := range inputs {
		product, err := s.stock.FindByID(ctx, in.ProductID)
		if err != nil {
			s.releaseStock(ctx, lines)
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]string{"product_id": in.ProductID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		found, ok, err := s.stock.DecrementStock(ctx, in.ProductID, in.Quantity)
		if err != nil {
			s.releaseStock(ctx, lines)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !found {
			s.releaseStock(ctx, lines)
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]string{"product_id": in.ProductID})
		}
		if !ok {
			s.releaseStock(ctx, lines)
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", product.Name)).
				WithDetails(map[string]any{
					"product_id": in.ProductID,
					"requested":  in.Quantity,
				})
		}

		lines = append(lines, LineItem{
			ProductID:      in.ProductID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       in.Quantity,
			TotalCents:     product.PriceCents * in.Quantity,
		})
	}
	return lines, nil
}

// releaseStock undoes stock decrements. Failures are logged; a missed
// increment means an operator fixup, not a broken checkout response.
func (s *service) releaseStock(ctx context.Context, lines []LineItem) {
	for _, line := range lines {
		if err := s.stock.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "product_id", line.ProductID),
				"order.stock_release_failed", err)
		}
	}
}

// releasePromo hands back the promo use consumed by a failed checkout.
func (s *service) releasePromo(ctx context.Context, code string) {
	if err := s.promotions.Release(ctx, code); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "promo_code", code),
			"order.promo_release_failed", err)
	}
}

func (s *service) sendConfirmation(ctx context.Context, account *users.User, order *Order) {
	if s.mailer == nil {
		return
	}
	data := notifications.OrderConfirmation{
		To:            account.Email,
		CustomerName:  account.Name,
		OrderID:       order.ID.Hex(),
		Subtotal:      formatCents(order.SubtotalCents),
		Total:         formatCents(order.TotalCents),
		PaymentMethod: order.PaymentMethod,
	}
	// An empty Discount suppresses the discount row in the template.
	if order.DiscountCents > 0 {
		data.Discount = formatCents(order.DiscountCents)
	}
	for _, line := range order.Lines {
		data.Lines = append(data.Lines, notifications.OrderConfirmationLine{
			Name:     line.Name,
			Quantity: line.Quantity,
			Total:    formatCents(line.TotalCents),
		})
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		if err := s.mailer.SendOrderConfirmation(detached, data); err != nil {
			s.logg.Warn(s.logg.WithField(detached, "order_id", data.OrderID),
				"order.confirmation_send_failed")
		}
	}()
}

func (s *service) ListMine(ctx context.Context, userID string, page, limit int) ([]Order, error) {
	page, limit = normalizePaging(page, limit)
	orders, err := s.store.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// Get returns one order. Customers only ever see their own orders; a
// foreign id reads the same as a missing one.
func (s *service) Get(ctx context.Context, userID string, isAdmin bool, orderID string) (*Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// Cancel moves a Pending order to Cancelled and restores its stock. The
// status swap is a conditional write, so a racing fulfilment transition
// and a cancel cannot both win and stock is restored exactly once.
func (s *service) Cancel(ctx context.Context, userID, orderID string) (*Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	cancelled, err := s.store.TransitionStatus(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusCancelled)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}

	s.restoreStock(ctx, cancelled)
	s.activity.Record(ctx, userID, enums.ActivityOther,
		fmt.Sprintf("cancelled order %s", orderID))
	return cancelled, nil
}

func (s *service) ListAll(ctx context.Context, page, limit int) ([]Order, error) {
	page, limit = normalizePaging(page, limit)
	orders, err := s.store.List(ctx, page, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// UpdateStatus moves an order along the fulfilment graph. Cancelling via
// this path restores stock the same way a customer cancel does.
func (s *service) UpdateStatus(ctx context.Context, orderID string, target enums.OrderStatus) (*Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid order status %q", target))
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, target))
	}

	updated, err := s.store.TransitionStatus(ctx, orderID, order.Status, target)
	if err != nil {
		if db.IsNotFound(err) {
			// Lost a race with another transition since the read above.
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order is no longer in status %s", order.Status))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	if target == enums.OrderStatusCancelled {
		s.restoreStock(ctx, updated)
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, orderID string) error {
	if err := s.store.Delete(ctx, orderID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

func (s *service) Report(ctx context.Context) (*SalesReport, error) {
	report, err := s.store.SalesReport(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sales report")
	}
	return report, nil
}

func (s *service) loadOrder(ctx context.Context, orderID string) (*Order, error) {
	order, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) restoreStock(ctx context.Context, order *Order) {
	for _, line := range order.Lines {
		if err := s.stock.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "product_id", line.ProductID),
				"order.stock_restore_failed", err)
		}
	}
}

func addressFromInput(input users.AddressInput) users.Address {
	return users.Address{
		ID:         uuid.NewString(),
		Label:      strings.TrimSpace(input.Label),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      strings.TrimSpace(input.Line2),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.TrimSpace(input.Country),
		Phone:      strings.TrimSpace(input.Phone),
	}
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
