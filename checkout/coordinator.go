// Package checkout converts a verified payment and a cart into a persisted
// order. The order and its lines are one atomic write; clearing the cart
// is a separate step that may be owed and settled later.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oakmart/storecore/audit"
	"github.com/oakmart/storecore/domain"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCart is returned before any write is attempted when the
	// cart has no lines.
	ErrEmptyCart = errors.New("checkout: cart is empty")

	// ErrCommitFailed wraps datastore failures during order persistence.
	// The payment has already been captured by the gateway at this point,
	// so the caller decides whether to prompt a retry; replays with the
	// same payment reference resolve to the original order.
	ErrCommitFailed = errors.New("checkout: order commit failed")
)

// Store is the slice of the Datastore the coordinator needs.
type Store interface {
	domain.CatalogStorage
	domain.CartStorage
	domain.OrderStorage
	domain.DebtStorage
}

// CommitRequest carries everything a verified checkout provides. The
// caller has already obtained a successful payment verification for
// OrderRef/PaymentRef.
type CommitRequest struct {
	UserID        string
	OrderRef      string
	PaymentRef    string
	Shipping      domain.ShippingInfo
	PaymentMethod string
}

// Coordinator persists orders from carts. Prices are re-read from the
// catalog at commit time and captured on the order lines, decoupled from
// later catalog changes.
type Coordinator struct {
	store      Store
	auditStore audit.Store
	log        *zap.Logger
}

func NewCoordinator(store Store, log *zap.Logger) *Coordinator {
	auditStore, _ := store.(audit.Store)
	return &Coordinator{
		store:      store,
		auditStore: auditStore,
		log:        log,
	}
}

// Commit turns the user's cart into an order. Commits are keyed by
// (UserID, PaymentRef): a duplicate attempt returns the already-committed
// order's ID without writing anything. After the atomic order write, the
// cart is cleared; a cart-clear failure leaves the order authoritative and
// records a debt for a later sweep.
func (c *Coordinator) Commit(ctx context.Context, req CommitRequest) (string, error) {
	if existing, err := c.store.GetOrderByPaymentRef(ctx, req.UserID, req.PaymentRef); err == nil && existing != nil {
		c.record(ctx, audit.NewEvent(audit.EventOrderDuplicate, existing.ID, "success"))
		return existing.ID, nil
	}

	lines, err := c.store.ListCartLines(ctx, req.UserID)
	if err != nil {
		return "", fmt.Errorf("checkout: cart read failed: %w", err)
	}
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	order := &domain.Order{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		Status:        domain.OrderStatusProcessing,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
		OrderRef:      req.OrderRef,
		PaymentRef:    req.PaymentRef,
		CreatedAt:     time.Now(),
	}

	orderLines := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		product, err := c.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			return "", fmt.Errorf("checkout: price read for product %s failed: %w", line.ProductID, err)
		}
		orderLines = append(orderLines, domain.OrderLine{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.UnitPrice,
			Size:      line.Size,
			Color:     line.Color,
			Material:  line.Material,
		})
		order.Total += product.UnitPrice * float64(line.Quantity)
	}

	if err := c.store.CreateOrderWithLines(ctx, order, orderLines); err != nil {
		c.record(ctx, audit.NewEvent(audit.EventCommitFailed, req.UserID, "failure"))
		return "", fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	c.record(ctx, audit.NewEvent(audit.EventOrderCommitted, order.ID, "success"))

	if err := c.store.ClearCart(ctx, req.UserID); err != nil {
		// The order stands. Record the owed clear so a sweep can settle
		// it instead of leaving a silent inconsistency.
		c.log.Error("cart clear failed after committed order",
			zap.String("order_id", order.ID),
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		if derr := c.store.SaveCartClearDebt(ctx, &domain.CartClearDebt{
			OrderID:   order.ID,
			UserID:    req.UserID,
			CreatedAt: time.Now(),
		}); derr != nil {
			c.log.Error("cart clear debt write failed", zap.String("order_id", order.ID), zap.Error(derr))
		}
		c.record(ctx, audit.NewEvent(audit.EventCartClearOwed, order.ID, "failure"))
	}

	return order.ID, nil
}

// SweepCartDebts retries owed cart clears and deletes settled debts.
// Callable from an admin endpoint or an external cron; there is no
// in-process scheduler.
func (c *Coordinator) SweepCartDebts(ctx context.Context) (settled int, err error) {
	debts, err := c.store.ListCartClearDebts(ctx)
	if err != nil {
		return 0, fmt.Errorf("checkout: debt list failed: %w", err)
	}

	for _, debt := range debts {
		if err := c.store.ClearCart(ctx, debt.UserID); err != nil {
			c.log.Warn("owed cart clear still failing",
				zap.String("order_id", debt.OrderID),
				zap.Error(err),
			)
			continue
		}
		if err := c.store.DeleteCartClearDebt(ctx, debt.OrderID); err != nil {
			c.log.Warn("debt delete failed", zap.String("order_id", debt.OrderID), zap.Error(err))
			continue
		}
		c.record(ctx, audit.NewEvent(audit.EventCartDebtSettled, debt.OrderID, "success"))
		settled++
	}
	return settled, nil
}

func (c *Coordinator) record(ctx context.Context, e *audit.Event) {
	if c.auditStore == nil {
		return
	}
	e.ID = uuid.New().String()
	if err := c.auditStore.SaveEvent(ctx, e); err != nil {
		c.log.Warn("audit write failed", zap.String("type", e.Type), zap.Error(err))
	}
}
