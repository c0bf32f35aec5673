// Package persistence provides the GORM-backed Datastore for storecore.
// It implements every storage interface in the domain package against
// sqlite, postgres, or mysql.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oakmart/storecore/audit"
	"github.com/oakmart/storecore/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&gormUser{},
		&gormOneTimeCode{},
		&gormResetToken{},
		&gormProduct{},
		&gormCartLine{},
		&gormOrder{},
		&gormOrderLine{},
		&gormCartClearDebt{},
		&gormSession{},
		&gormAuditEvent{},
	)
}

// ---- Users ----

func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Create(fromDomainUser(u)).Error
}

func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u gormUser
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return toDomainUser(&u), nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u gormUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return toDomainUser(&u), nil
}

func (r *Repository) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&gormUser{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

// ---- One-time codes ----

func (r *Repository) SaveCode(ctx context.Context, c *domain.OneTimeCode) error {
	return r.db.WithContext(ctx).Create(fromDomainCode(c)).Error
}

func (r *Repository) LatestCode(ctx context.Context, email string) (*domain.OneTimeCode, error) {
	var c gormOneTimeCode
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("issued_at DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainCode(&c), nil
}

func (r *Repository) GetCode(ctx context.Context, id string) (*domain.OneTimeCode, error) {
	var c gormOneTimeCode
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return toDomainCode(&c), nil
}

func (r *Repository) ConsumeCode(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&gormOneTimeCode{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("persistence: code %s already consumed or missing", id)
	}
	return nil
}

// ---- Reset tokens ----

func (r *Repository) SaveResetToken(ctx context.Context, t *domain.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(&gormResetToken{
		Token:     t.Token,
		Email:     t.Email,
		ExpiresAt: t.ExpiresAt,
	}).Error
}

func (r *Repository) GetResetToken(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	var t gormResetToken
	if err := r.db.WithContext(ctx).First(&t, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &domain.PasswordResetToken{
		Token:     t.Token,
		Email:     t.Email,
		ExpiresAt: t.ExpiresAt,
	}, nil
}

func (r *Repository) DeleteResetToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Delete(&gormResetToken{}, "token = ?", token).Error
}

func (r *Repository) DeleteResetTokensForEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Delete(&gormResetToken{}, "email = ?", email).Error
}

// ---- Catalog ----

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p gormProduct
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &domain.Product{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

// ---- Cart ----

func (r *Repository) ListCartLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	var rows []gormCartLine
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]domain.CartLine, 0, len(rows))
	for i := range rows {
		lines = append(lines, toDomainCartLine(&rows[i]))
	}
	return lines, nil
}

func (r *Repository) ClearCart(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Delete(&gormCartLine{}, "user_id = ?", userID).Error
}

// ---- Orders ----

// CreateOrderWithLines writes the order and its lines in one transaction.
// If anything fails, including an order row without a usable identifier,
// nothing is persisted.
func (r *Repository) CreateOrderWithLines(ctx context.Context, o *domain.Order, lines []domain.OrderLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := fromDomainOrder(o)
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if row.ID == "" {
			return fmt.Errorf("persistence: order insert yielded no identifier")
		}
		for _, line := range lines {
			line.OrderID = row.ID
			lineRow := fromDomainOrderLine(line)
			if err := tx.Create(&lineRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) GetOrderByPaymentRef(ctx context.Context, userID, paymentRef string) (*domain.Order, error) {
	var o gormOrder
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND payment_ref = ?", userID, paymentRef).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainOrder(&o), nil
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o gormOrder
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return toDomainOrder(&o), nil
}

func (r *Repository) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	var rows []gormOrder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *toDomainOrder(&rows[i]))
	}
	return orders, nil
}

func (r *Repository) ListOrderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	var rows []gormOrderLine
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]domain.OrderLine, 0, len(rows))
	for i := range rows {
		lines = append(lines, toDomainOrderLine(&rows[i]))
	}
	return lines, nil
}

// ---- Cart clear debts ----

func (r *Repository) SaveCartClearDebt(ctx context.Context, d *domain.CartClearDebt) error {
	return r.db.WithContext(ctx).Create(&gormCartClearDebt{
		OrderID:   d.OrderID,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt,
	}).Error
}

func (r *Repository) ListCartClearDebts(ctx context.Context) ([]domain.CartClearDebt, error) {
	var rows []gormCartClearDebt
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	debts := make([]domain.CartClearDebt, 0, len(rows))
	for _, row := range rows {
		debts = append(debts, domain.CartClearDebt{
			OrderID:   row.OrderID,
			UserID:    row.UserID,
			CreatedAt: row.CreatedAt,
		})
	}
	return debts, nil
}

func (r *Repository) DeleteCartClearDebt(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Delete(&gormCartClearDebt{}, "order_id = ?", orderID).Error
}

// ---- Sessions ----

func (r *Repository) CreateSession(ctx context.Context, s *domain.Session) error {
	return r.db.WithContext(ctx).Create(&gormSession{
		ID:        s.ID,
		UserID:    s.UserID,
		IssuedAt:  s.IssuedAt,
		ExpiresAt: s.ExpiresAt,
	}).Error
}

func (r *Repository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var s gormSession
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:        s.ID,
		UserID:    s.UserID,
		IssuedAt:  s.IssuedAt,
		ExpiresAt: s.ExpiresAt,
	}, nil
}

func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&gormSession{}, "id = ?", id).Error
}

// ---- Audit ----

func (r *Repository) SaveEvent(ctx context.Context, e *audit.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(fromAuditEvent(e)).Error
}

var _ domain.Storage = (*Repository)(nil)
