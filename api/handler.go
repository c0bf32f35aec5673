// Package api exposes the credential lifecycle and checkout pipeline over
// HTTP. Expiry, mismatch, and rate-limit outcomes are mapped to structured
// JSON responses; nothing from the core escapes as a raw error.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oakmart/storecore/auth"
	"github.com/oakmart/storecore/checkout"
	"github.com/oakmart/storecore/domain"
	"github.com/oakmart/storecore/payment"
	"github.com/oakmart/storecore/session"
)

// recoveryMessage is fixed regardless of whether the email is registered,
// so the endpoint cannot be used to enumerate accounts.
const recoveryMessage = "If an account exists for that address, a reset link was sent."

type Handler struct {
	store           domain.Storage
	hasher          domain.Hasher
	issuer          *auth.Issuer
	verifier        *auth.Verifier
	sessions        *session.Manager
	paymentVerifier *payment.Verifier
	coordinator     *checkout.Coordinator
}

func NewHandler(
	store domain.Storage,
	hasher domain.Hasher,
	issuer *auth.Issuer,
	verifier *auth.Verifier,
	sessions *session.Manager,
	pv *payment.Verifier,
	coordinator *checkout.Coordinator,
) *Handler {
	return &Handler{
		store:           store,
		hasher:          hasher,
		issuer:          issuer,
		verifier:        verifier,
		sessions:        sessions,
		paymentVerifier: pv,
		coordinator:     coordinator,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/login", h.HandleLogin)
	g.POST("/login/resend", h.HandleResend)
	g.POST("/login/verify", h.HandleVerify)
	g.POST("/recovery", h.HandleRecovery)
	g.POST("/recovery/reset", h.HandleRecoveryReset)

	protected := g.Group("")
	protected.Use(h.AuthMiddleware)
	protected.POST("/logout", h.HandleLogout)
	protected.GET("/whoami", h.HandleWhoAmI)
	protected.POST("/checkout", h.HandleCheckout)
	protected.GET("/orders", h.HandleOrders)
}

// HandleLogin checks the password and, on success, issues a one-time code.
// The response says "code sent" whether or not delivery succeeded; sending
// failures are logged by the issuer, never surfaced here.
func (h *Handler) HandleLogin(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	ctx := c.Request().Context()
	user, err := h.store.GetUserByEmail(ctx, body.Email)
	if err != nil || !h.hasher.Compare(body.Password, user.PasswordHash) {
		return h.Error(c, http.StatusUnauthorized, "invalid credentials", auth.ErrInvalidCredentials)
	}

	token, err := h.issuer.IssueLoginCode(ctx, body.Email)
	if err != nil {
		return h.Error(c, http.StatusInternalServerError, "internal server error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":      "code_sent",
		"login_token": token,
	})
}

func (h *Handler) HandleResend(c echo.Context) error {
	var body struct {
		LoginToken string `json:"login_token"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	decoded, err := auth.DecodeLoginToken(body.LoginToken)
	if err != nil {
		return h.Error(c, http.StatusUnauthorized, "no login session", err)
	}

	token, err := h.issuer.ResendLoginCode(c.Request().Context(), decoded.Email)
	if err != nil {
		if rle, ok := auth.AsRateLimitError(err); ok {
			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"status":              "rate_limited",
				"retry_after_seconds": rle.RetryAfterSeconds(),
			})
		}
		return h.Error(c, http.StatusInternalServerError, "internal server error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":      "code_sent",
		"login_token": token,
	})
}

func (h *Handler) HandleVerify(c echo.Context) error {
	var body struct {
		LoginToken string `json:"login_token"`
		Code       string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	ctx := c.Request().Context()
	userID, err := h.verifier.VerifyLoginCode(ctx, body.LoginToken, body.Code)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"status": "rejected",
			"reason": verifyReason(err),
		})
	}

	sessionToken, err := h.sessions.Issue(ctx, userID)
	if err != nil {
		return h.Error(c, http.StatusInternalServerError, "internal server error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":        "authenticated",
		"user_id":       userID,
		"session_token": sessionToken,
	})
}

func verifyReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredCode):
		return "expired"
	case errors.Is(err, auth.ErrCodeMismatch):
		return "mismatch"
	default:
		return "no_session"
	}
}

func (h *Handler) HandleRecovery(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	if err := h.issuer.IssueResetToken(c.Request().Context(), body.Email); err != nil {
		return h.Error(c, http.StatusInternalServerError, "internal server error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"status": recoveryMessage})
}

func (h *Handler) HandleRecoveryReset(c echo.Context) error {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	ctx := c.Request().Context()
	email, err := h.verifier.VerifyResetToken(ctx, body.Token)
	if err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid or expired token", err)
	}

	user, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid or expired token", err)
	}

	hashed, err := h.hasher.Hash(body.Password)
	if err != nil {
		return h.Error(c, http.StatusInternalServerError, "internal server error", err)
	}

	mutErr := h.store.UpdateUserPassword(ctx, user.ID, hashed)
	// The token is single-purpose: consume it regardless of the mutation
	// outcome so it cannot silently stay valid.
	if err := h.verifier.ConsumeResetToken(ctx, body.Token); err != nil {
		return h.Error(c, http.StatusInternalServerError, "internal server error", err)
	}
	if mutErr != nil {
		return h.Error(c, http.StatusInternalServerError, "internal server error", mutErr)
	}

	return c.JSON(http.StatusOK, map[string]any{"status": "password_updated"})
}

func (h *Handler) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get("Authorization")
		if token == "" {
			return h.Error(c, http.StatusUnauthorized, "authorization header required", nil)
		}

		userID, err := h.sessions.Resolve(c.Request().Context(), token)
		if err != nil {
			return h.Error(c, http.StatusUnauthorized, "unauthorized", err)
		}

		c.Set("userID", userID)
		c.Set("sessionToken", token)
		return next(c)
	}
}

func (h *Handler) HandleLogout(c echo.Context) error {
	token := c.Get("sessionToken").(string)
	if err := h.sessions.Revoke(c.Request().Context(), token); err != nil {
		return h.Error(c, http.StatusInternalServerError, "internal server error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "signed_out"})
}

func (h *Handler) HandleWhoAmI(c echo.Context) error {
	userID := c.Get("userID").(string)
	user, err := h.store.GetUser(c.Request().Context(), userID)
	if err != nil {
		return h.Error(c, http.StatusUnauthorized, "unauthorized", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
	})
}

// HandleCheckout verifies the gateway signature and commits the cart as an
// order. A signature mismatch is a security-relevant rejection and is
// never retried here.
func (h *Handler) HandleCheckout(c echo.Context) error {
	var body struct {
		OrderRef      string `json:"order_ref"`
		PaymentRef    string `json:"payment_ref"`
		Signature     string `json:"signature"`
		Name          string `json:"name"`
		Address       string `json:"address"`
		City          string `json:"city"`
		PostalCode    string `json:"postal_code"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	if !h.paymentVerifier.Verify(body.OrderRef, body.PaymentRef, body.Signature) {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"status": "rejected",
			"reason": "signature_mismatch",
		})
	}

	userID := c.Get("userID").(string)
	orderID, err := h.coordinator.Commit(c.Request().Context(), checkout.CommitRequest{
		UserID:     userID,
		OrderRef:   body.OrderRef,
		PaymentRef: body.PaymentRef,
		Shipping: domain.ShippingInfo{
			Name:       body.Name,
			Address:    body.Address,
			City:       body.City,
			PostalCode: body.PostalCode,
		},
		PaymentMethod: body.PaymentMethod,
	})
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"status": "rejected",
				"reason": "empty_cart",
			})
		}
		return c.JSON(http.StatusBadGateway, map[string]any{
			"status": "rejected",
			"reason": "commit_failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":   "committed",
		"order_id": orderID,
	})
}

func (h *Handler) HandleOrders(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("userID").(string)

	orders, err := h.store.ListOrders(ctx, userID)
	if err != nil {
		return h.Error(c, http.StatusInternalServerError, "internal server error", err)
	}

	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		lines, err := h.store.ListOrderLines(ctx, o.ID)
		if err != nil {
			return h.Error(c, http.StatusInternalServerError, "internal server error", err)
		}
		out = append(out, map[string]any{
			"order_id":   o.ID,
			"total":      o.Total,
			"status":     o.Status,
			"created_at": o.CreatedAt,
			"lines":      lines,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"orders": out})
}

func (h *Handler) Error(c echo.Context, code int, message string, err error) error {
	resp := map[string]any{
		"status": message,
		"code":   code,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	return c.JSON(code, resp)
}
