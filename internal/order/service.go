package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/northwind/storefront/internal/catalog"
)

var (
	ErrEmptyOrder     = errors.New("order has no items")
	ErrPriceMismatch  = errors.New("price mismatch")
	ErrInvalidStatus  = errors.New("invalid order status")
	ErrOrderCancelled = errors.New("order is cancelled")
)

// priceTolerance absorbs float rounding between client and catalog prices.
// Anything larger is treated as tampering and rejected.
var priceTolerance = decimal.NewFromFloat(0.01)

// CatalogClient is the slice of the catalog service the lifecycle needs.
type CatalogClient interface {
	FetchProduct(ctx context.Context, id string) (*catalog.Product, error)
	AdjustStock(ctx context.Context, productID string, delta int) error
}

// Service drives the order lifecycle: checkout, payment confirmation,
// status transitions and delivery. It is the only writer of order state and
// the only caller of stock adjustments.
type Service struct {
	repo    Repository
	catalog CatalogClient
	log     *zap.Logger
	now     func() time.Time
}

func NewService(repo Repository, cat CatalogClient, log *zap.Logger) *Service {
	return &Service{repo: repo, catalog: cat, log: log, now: time.Now}
}

// CreateOrder runs checkout: validate every line against the live catalog,
// then decrement stock, then persist. Validation touches nothing, so a
// failure on item 3 of 5 leaves no partial state. Decrements happen through
// the catalog's conditional-adjust operation; if one fails, the ones already
// applied are compensated and the order is never persisted.
func (s *Service) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*Order, []Item, error) {
	if len(req.Items) == 0 {
		return nil, nil, ErrEmptyOrder
	}

	// Validate-all-then-commit: every line passes before any stock moves.
	for _, it := range req.Items {
		p, err := s.catalog.FetchProduct(ctx, it.ProductID)
		if err != nil {
			return nil, nil, fmt.Errorf("product %s: %w", it.ProductID, err)
		}
		if p.CountInStock < it.Qty {
			return nil, nil, fmt.Errorf("product %s: %w", it.ProductID, catalog.ErrInsufficientStock)
		}
		if err := checkPrice(p.Price, it.Price); err != nil {
			return nil, nil, fmt.Errorf("product %s: %w", it.ProductID, err)
		}
	}

	// Client totals are persisted as supplied so historical orders show what
	// the customer saw; recompute only to surface disagreements.
	if diff := s.totalsDiff(req); diff != "" {
		s.log.Warn("client_totals_mismatch", zap.String("user_id", userID), zap.String("diff", diff))
	}

	// Commit stock first. Each decrement is atomic server-side; on failure,
	// roll the earlier ones back so no partial decrement survives.
	applied := make([]CreateOrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if err := s.catalog.AdjustStock(ctx, it.ProductID, -it.Qty); err != nil {
			s.compensate(ctx, applied)
			return nil, nil, fmt.Errorf("decrement product %s: %w", it.ProductID, err)
		}
		applied = append(applied, it)
	}

	o := &Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      req.ItemsPrice,
		TaxPrice:        req.TaxPrice,
		ShippingPrice:   req.ShippingPrice,
		TotalPrice:      req.TotalPrice,
		Status:          StatusPending,
	}
	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, Item{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Qty:       it.Qty,
		})
	}

	if err := s.repo.Create(ctx, o, items); err != nil {
		s.compensate(ctx, applied)
		return nil, nil, fmt.Errorf("persist order: %w", err)
	}

	s.log.Info("order_created",
		zap.String("order_id", o.ID), zap.String("user_id", userID), zap.Int("lines", len(items)))
	return o, items, nil
}

func (s *Service) compensate(ctx context.Context, applied []CreateOrderItem) {
	for _, it := range applied {
		if err := s.catalog.AdjustStock(ctx, it.ProductID, it.Qty); err != nil {
			// Stock is now short by it.Qty until someone reconciles.
			s.log.Error("stock_compensation_failed",
				zap.String("product_id", it.ProductID), zap.Int("qty", it.Qty), zap.Error(err))
		}
	}
}

func checkPrice(catalogPrice, clientPrice string) error {
	cp, err := decimal.NewFromString(catalogPrice)
	if err != nil {
		return fmt.Errorf("catalog price %q: %w", catalogPrice, err)
	}
	ip, err := decimal.NewFromString(clientPrice)
	if err != nil {
		return ErrPriceMismatch
	}
	if cp.Sub(ip).Abs().GreaterThan(priceTolerance) {
		return ErrPriceMismatch
	}
	return nil
}

// totalsDiff recomputes items/total prices from the lines and reports a
// non-empty description when the client totals disagree.
func (s *Service) totalsDiff(req CreateOrderRequest) string {
	items := decimal.Zero
	for _, it := range req.Items {
		p, err := decimal.NewFromString(it.Price)
		if err != nil {
			return "unparseable line price " + it.Price
		}
		items = items.Add(p.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	clientItems, err := decimal.NewFromString(req.ItemsPrice)
	if err != nil {
		return "unparseable items_price " + req.ItemsPrice
	}
	if !items.Equal(clientItems) {
		return fmt.Sprintf("items_price: client=%s server=%s", clientItems, items)
	}

	tax, err1 := decimal.NewFromString(req.TaxPrice)
	shipping, err2 := decimal.NewFromString(req.ShippingPrice)
	total, err3 := decimal.NewFromString(req.TotalPrice)
	if err1 != nil || err2 != nil || err3 != nil {
		return "unparseable totals"
	}
	if sum := items.Add(tax).Add(shipping); !sum.Equal(total) {
		return fmt.Sprintf("total_price: client=%s server=%s", total, sum)
	}
	return ""
}

// ConfirmPayment applies an external payment confirmation exactly once. An
// already-paid order is returned unchanged; the external channel is allowed
// to redeliver the same event.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, paymentID, paymentStatus, payerEmail string) (*Order, error) {
	o, _, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.IsPaid {
		s.log.Info("payment_already_confirmed",
			zap.String("order_id", orderID), zap.String("payment_id", paymentID))
		return o, nil
	}

	now := s.now().UTC()
	res := PaymentResult{
		ID:         paymentID,
		Status:     paymentStatus,
		UpdateTime: &now,
		Email:      payerEmail,
	}
	applied, err := s.repo.MarkPaid(ctx, orderID, res, now)
	if err != nil {
		return nil, err
	}
	if applied {
		s.log.Info("order_paid", zap.String("order_id", orderID), zap.String("payment_id", paymentID))
	}
	// Either we applied it or a concurrent delivery beat us; the stored
	// order is authoritative in both cases.
	o, _, err = s.repo.GetByID(ctx, orderID)
	return o, err
}

// RecordPaymentFailure notes a failed payment attempt on a still-unpaid
// order. The order stays Pending for manual reconciliation; nothing is
// cancelled and no stock moves.
func (s *Service) RecordPaymentFailure(ctx context.Context, orderID, paymentID string) error {
	applied, err := s.repo.MarkPaymentFailed(ctx, orderID, paymentID)
	if err != nil {
		return err
	}
	if !applied {
		if _, _, gerr := s.repo.GetByID(ctx, orderID); gerr != nil {
			return gerr
		}
	}
	s.log.Warn("payment_failed", zap.String("order_id", orderID), zap.String("payment_id", paymentID))
	return nil
}

// UpdateStatus moves an order to a recognized status. Cancellation is a
// guarded transition that restores each line's stock exactly once.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, requested Status) (*Order, error) {
	if !ValidStatus(requested) {
		return nil, ErrInvalidStatus
	}

	if requested == StatusCancelled {
		applied, err := s.repo.TransitionToCancelled(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if applied {
			items, err := s.repo.GetItems(ctx, orderID)
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				if err := s.catalog.AdjustStock(ctx, it.ProductID, it.Qty); err != nil {
					s.log.Error("cancel_restock_failed",
						zap.String("order_id", orderID), zap.String("product_id", it.ProductID), zap.Error(err))
				}
			}
			s.log.Info("order_cancelled", zap.String("order_id", orderID))
		}
		o, _, err := s.repo.GetByID(ctx, orderID)
		return o, err
	}

	if err := s.repo.UpdateStatus(ctx, orderID, requested); err != nil {
		return nil, err
	}
	o, _, err := s.repo.GetByID(ctx, orderID)
	return o, err
}

// UpdateDeliveryStatus marks the order delivered. Cancelled orders are
// refused instead of silently resurrected.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, orderID string) (*Order, error) {
	applied, err := s.repo.MarkDelivered(ctx, orderID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !applied {
		o, _, gerr := s.repo.GetByID(ctx, orderID)
		if gerr != nil {
			return nil, gerr
		}
		if o.Status == StatusCancelled {
			return nil, ErrOrderCancelled
		}
		return o, nil
	}
	o, _, err := s.repo.GetByID(ctx, orderID)
	return o, err
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, []Item, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]Order, error) {
	return s.repo.ListAll(ctx, limit, offset)
}
