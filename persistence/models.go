package persistence

import (
	"time"

	"github.com/oakmart/storecore/audit"
	"github.com/oakmart/storecore/domain"
)

type gormUser struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (gormUser) TableName() string { return "users" }

func toDomainUser(u *gormUser) *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromDomainUser(u *domain.User) *gormUser {
	if u == nil {
		return nil
	}
	return &gormUser{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type gormOneTimeCode struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"index"`
	Code      string
	IssuedAt  time.Time `gorm:"index"`
	ExpiresAt time.Time
	Consumed  bool
}

func (gormOneTimeCode) TableName() string { return "one_time_codes" }

func toDomainCode(c *gormOneTimeCode) *domain.OneTimeCode {
	if c == nil {
		return nil
	}
	return &domain.OneTimeCode{
		ID:        c.ID,
		Email:     c.Email,
		Code:      c.Code,
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
		Consumed:  c.Consumed,
	}
}

func fromDomainCode(c *domain.OneTimeCode) *gormOneTimeCode {
	if c == nil {
		return nil
	}
	return &gormOneTimeCode{
		ID:        c.ID,
		Email:     c.Email,
		Code:      c.Code,
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
		Consumed:  c.Consumed,
	}
}

type gormResetToken struct {
	Token     string `gorm:"primaryKey"`
	Email     string `gorm:"index"`
	ExpiresAt time.Time
}

func (gormResetToken) TableName() string { return "password_reset_tokens" }

type gormProduct struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	UnitPrice float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (gormProduct) TableName() string { return "products" }

type gormCartLine struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	ProductID string
	Quantity  int
	Size      string
	Color     string
	Material  string
	CreatedAt time.Time
}

func (gormCartLine) TableName() string { return "cart_items" }

func toDomainCartLine(l *gormCartLine) domain.CartLine {
	return domain.CartLine{
		ID:        l.ID,
		UserID:    l.UserID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		Size:      l.Size,
		Color:     l.Color,
		Material:  l.Material,
		CreatedAt: l.CreatedAt,
	}
}

type gormOrder struct {
	ID                 string `gorm:"primaryKey"`
	UserID             string `gorm:"index;index:idx_orders_user_payment,unique"`
	Total              float64
	Status             string
	ShippingName       string
	ShippingAddress    string
	ShippingCity       string
	ShippingPostalCode string
	PaymentMethod      string
	OrderRef           string
	PaymentRef         string    `gorm:"index:idx_orders_user_payment,unique"`
	CreatedAt          time.Time `gorm:"index"`
}

func (gormOrder) TableName() string { return "orders" }

func toDomainOrder(o *gormOrder) *domain.Order {
	if o == nil {
		return nil
	}
	return &domain.Order{
		ID:     o.ID,
		UserID: o.UserID,
		Total:  o.Total,
		Status: o.Status,
		Shipping: domain.ShippingInfo{
			Name:       o.ShippingName,
			Address:    o.ShippingAddress,
			City:       o.ShippingCity,
			PostalCode: o.ShippingPostalCode,
		},
		PaymentMethod: o.PaymentMethod,
		OrderRef:      o.OrderRef,
		PaymentRef:    o.PaymentRef,
		CreatedAt:     o.CreatedAt,
	}
}

func fromDomainOrder(o *domain.Order) *gormOrder {
	if o == nil {
		return nil
	}
	return &gormOrder{
		ID:                 o.ID,
		UserID:             o.UserID,
		Total:              o.Total,
		Status:             o.Status,
		ShippingName:       o.Shipping.Name,
		ShippingAddress:    o.Shipping.Address,
		ShippingCity:       o.Shipping.City,
		ShippingPostalCode: o.Shipping.PostalCode,
		PaymentMethod:      o.PaymentMethod,
		OrderRef:           o.OrderRef,
		PaymentRef:         o.PaymentRef,
		CreatedAt:          o.CreatedAt,
	}
}

type gormOrderLine struct {
	ID        string `gorm:"primaryKey"`
	OrderID   string `gorm:"index"`
	ProductID string
	Quantity  int
	UnitPrice float64
	Size      string
	Color     string
	Material  string
}

func (gormOrderLine) TableName() string { return "order_items" }

func toDomainOrderLine(l *gormOrderLine) domain.OrderLine {
	return domain.OrderLine{
		ID:        l.ID,
		OrderID:   l.OrderID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		Size:      l.Size,
		Color:     l.Color,
		Material:  l.Material,
	}
}

func fromDomainOrderLine(l domain.OrderLine) gormOrderLine {
	return gormOrderLine{
		ID:        l.ID,
		OrderID:   l.OrderID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		Size:      l.Size,
		Color:     l.Color,
		Material:  l.Material,
	}
}

type gormCartClearDebt struct {
	OrderID   string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	CreatedAt time.Time
}

func (gormCartClearDebt) TableName() string { return "cart_clear_debts" }

type gormSession struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (gormSession) TableName() string { return "sessions" }

type gormAuditEvent struct {
	ID        string `gorm:"primaryKey"`
	Type      string `gorm:"index"`
	ActorID   string `gorm:"index"`
	SubjectID string `gorm:"index"`
	Status    string
	Message   string
	CreatedAt time.Time `gorm:"index"`
}

func (gormAuditEvent) TableName() string { return "audit_events" }

func fromAuditEvent(e *audit.Event) *gormAuditEvent {
	if e == nil {
		return nil
	}
	return &gormAuditEvent{
		ID:        e.ID,
		Type:      e.Type,
		ActorID:   e.ActorID,
		SubjectID: e.SubjectID,
		Status:    e.Status,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
}
