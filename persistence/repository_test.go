package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/oakmart/storecore/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open("sqlite", filepath.Join(t.TempDir(), "storecore.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}, true)
	require.NoError(t, err)
	return repo
}

func TestCodeLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Now().Truncate(time.Second)

	require.NoError(t, repo.SaveCode(ctx, &domain.OneTimeCode{
		ID: "c1", Email: "a@b.co", Code: "111111",
		IssuedAt: base, ExpiresAt: base.Add(2 * time.Minute),
	}))
	require.NoError(t, repo.SaveCode(ctx, &domain.OneTimeCode{
		ID: "c2", Email: "a@b.co", Code: "222222",
		IssuedAt: base.Add(time.Minute), ExpiresAt: base.Add(6 * time.Minute),
	}))

	latest, err := repo.LatestCode(ctx, "a@b.co")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "c2", latest.ID, "the most recently issued code wins")
	assert.False(t, latest.Consumed)

	require.NoError(t, repo.ConsumeCode(ctx, "c2"))
	latest, err = repo.LatestCode(ctx, "a@b.co")
	require.NoError(t, err)
	assert.True(t, latest.Consumed)

	// A second consume of the same record is an error, not a silent no-op.
	assert.Error(t, repo.ConsumeCode(ctx, "c2"))
	assert.Error(t, repo.ConsumeCode(ctx, "missing"))
}

func TestLatestCodeNoRecords(t *testing.T) {
	repo := newTestRepository(t)

	code, err := repo.LatestCode(context.Background(), "nobody@b.co")
	require.NoError(t, err)
	assert.Nil(t, code)
}

func TestResetTokens(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveResetToken(ctx, &domain.PasswordResetToken{
		Token: "t1", Email: "a@b.co", ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, repo.SaveResetToken(ctx, &domain.PasswordResetToken{
		Token: "t2", Email: "a@b.co", ExpiresAt: time.Now().Add(time.Hour),
	}))

	got, err := repo.GetResetToken(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", got.Email)

	require.NoError(t, repo.DeleteResetTokensForEmail(ctx, "a@b.co"))
	_, err = repo.GetResetToken(ctx, "t1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.GetResetToken(ctx, "t2")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateOrderWithLines(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	order := &domain.Order{
		ID: "o1", UserID: "u1", Total: 690, Status: domain.OrderStatusProcessing,
		Shipping:   domain.ShippingInfo{Name: "A", Address: "1 Main", City: "X", PostalCode: "1"},
		OrderRef:   "ordA", PaymentRef: "payB", CreatedAt: time.Now(),
	}
	lines := []domain.OrderLine{
		{ID: "l1", ProductID: "p1", Quantity: 1, UnitPrice: 450},
		{ID: "l2", ProductID: "p2", Quantity: 2, UnitPrice: 120},
	}
	require.NoError(t, repo.CreateOrderWithLines(ctx, order, lines))

	got, err := repo.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 690.0, got.Total)
	assert.Equal(t, "X", got.Shipping.City)

	gotLines, err := repo.ListOrderLines(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, gotLines, 2)
	assert.Equal(t, "o1", gotLines[0].OrderID)
}

func TestCreateOrderWithLinesRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	order := &domain.Order{ID: "o1", UserID: "u1", Status: domain.OrderStatusProcessing, CreatedAt: time.Now()}
	// Duplicate line IDs make the second insert fail inside the transaction.
	lines := []domain.OrderLine{
		{ID: "dup", ProductID: "p1", Quantity: 1, UnitPrice: 450},
		{ID: "dup", ProductID: "p2", Quantity: 1, UnitPrice: 120},
	}
	require.Error(t, repo.CreateOrderWithLines(ctx, order, lines))

	// Neither the order nor any line survives the failed transaction.
	_, err := repo.GetOrder(ctx, "o1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	gotLines, err := repo.ListOrderLines(ctx, "o1")
	require.NoError(t, err)
	assert.Empty(t, gotLines)
}

func TestOrderPaymentRefUnique(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := &domain.Order{ID: "o1", UserID: "u1", PaymentRef: "payB", Status: domain.OrderStatusProcessing, CreatedAt: time.Now()}
	require.NoError(t, repo.CreateOrderWithLines(ctx, first, nil))

	// Same user, same payment reference: the unique index rejects the write.
	second := &domain.Order{ID: "o2", UserID: "u1", PaymentRef: "payB", Status: domain.OrderStatusProcessing, CreatedAt: time.Now()}
	assert.Error(t, repo.CreateOrderWithLines(ctx, second, nil))

	// A different user may reuse the gateway reference.
	other := &domain.Order{ID: "o3", UserID: "u2", PaymentRef: "payB", Status: domain.OrderStatusProcessing, CreatedAt: time.Now()}
	assert.NoError(t, repo.CreateOrderWithLines(ctx, other, nil))

	found, err := repo.GetOrderByPaymentRef(ctx, "u1", "payB")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "o1", found.ID)

	missing, err := repo.GetOrderByPaymentRef(ctx, "u1", "payZ")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCartAndDebts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	db := repo.DB()
	require.NoError(t, db.Create(&gormCartLine{ID: "l1", UserID: "u1", ProductID: "p1", Quantity: 1}).Error)
	require.NoError(t, db.Create(&gormCartLine{ID: "l2", UserID: "u1", ProductID: "p2", Quantity: 2}).Error)
	require.NoError(t, db.Create(&gormCartLine{ID: "l3", UserID: "u2", ProductID: "p1", Quantity: 1}).Error)

	lines, err := repo.ListCartLines(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	require.NoError(t, repo.ClearCart(ctx, "u1"))
	lines, err = repo.ListCartLines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	// u2's cart is untouched.
	lines, err = repo.ListCartLines(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	require.NoError(t, repo.SaveCartClearDebt(ctx, &domain.CartClearDebt{OrderID: "o1", UserID: "u2", CreatedAt: time.Now()}))
	debts, err := repo.ListCartClearDebts(ctx)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	assert.Equal(t, "o1", debts[0].OrderID)

	require.NoError(t, repo.DeleteCartClearDebt(ctx, "o1"))
	debts, err = repo.ListCartClearDebts(ctx)
	require.NoError(t, err)
	assert.Empty(t, debts)
}

func TestUsersAndSessions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &domain.User{ID: "u1", Email: "a@b.co", PasswordHash: "h1", Name: "A"}))
	assert.Error(t, repo.CreateUser(ctx, &domain.User{ID: "u2", Email: "a@b.co"}), "email is unique")

	got, err := repo.GetUserByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	require.NoError(t, repo.UpdateUserPassword(ctx, "u1", "h2"))
	got, err = repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, repo.CreateSession(ctx, &domain.Session{ID: "s1", UserID: "u1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}))
	sess, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)

	require.NoError(t, repo.DeleteSession(ctx, "s1"))
	_, err = repo.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
