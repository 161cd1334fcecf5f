package payment

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/handlers/response"
	"github.com/kevin07696/payment-intents/internal/services/ports"
	"go.uber.org/zap"
)

// Handler serves the payment endpoints
type Handler struct {
	service ports.PaymentService
	logger  *zap.Logger
}

// NewHandler creates a new payment handler
func NewHandler(service ports.PaymentService, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the payment endpoints on group
func (h *Handler) RegisterRoutes(group gin.IRouter) {
	payments := group.Group("/payments")
	payments.POST("/create-intent", h.CreateIntent)
	payments.POST("/confirm", h.Confirm)
	payments.GET("/:id", h.Get)
}

type createIntentRequest struct {
	IdempotencyKey *string `json:"idempotency_key"`
	UserID         string  `json:"user_id"`
	Currency       string  `json:"currency"`
	Amount         int64   `json:"amount"`
}

type createIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	PaymentID    int64  `json:"payment_id"`
}

type confirmRequest struct {
	IdempotencyKey  *string `json:"idempotency_key"`
	PaymentIntentID string  `json:"payment_intent_id"`
}

// paymentResponse is the public projection of a payment row
type paymentResponse struct {
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	ClientSecret    *string   `json:"client_secret"`
	UserID          string    `json:"user_id"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	StripePaymentID string    `json:"stripe_payment_id"`
	ID              int64     `json:"id"`
	Amount          int64     `json:"amount"`
}

// CreateIntent handles POST /payments/create-intent
func (h *Handler) CreateIntent(c *gin.Context) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	h.logger.Info("Create payment intent request received",
		zap.String("user_id", req.UserID),
		zap.Int64("amount", req.Amount),
		zap.String("currency", req.Currency),
	)

	result, err := h.service.CreatePayment(c.Request.Context(), &ports.CreatePaymentRequest{
		UserID:         req.UserID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		IdempotencyKey: deref(req.IdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, createIntentResponse{
		PaymentID:    result.PaymentID,
		ClientSecret: result.ClientSecret,
		Status:       string(result.Status),
	})
}

// Confirm handles POST /payments/confirm
func (h *Handler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	h.logger.Info("Confirm payment request received",
		zap.String("payment_intent_id", req.PaymentIntentID),
		zap.Bool("has_idempotency_key", req.IdempotencyKey != nil),
	)

	payment, err := h.service.ConfirmPayment(c.Request.Context(), &ports.ConfirmPaymentRequest{
		PaymentIntentID: req.PaymentIntentID,
		IdempotencyKey:  deref(req.IdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// Get handles GET /payments/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "payment id must be an integer")
		return
	}

	payment, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:              p.ID,
		UserID:          p.UserID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          string(p.Status),
		ClientSecret:    p.ClientSecret,
		StripePaymentID: p.StripePaymentID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
