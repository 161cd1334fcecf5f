package customer

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/handlers/response"
	"github.com/kevin07696/payment-intents/internal/services/ports"
	"go.uber.org/zap"
)

// Handler serves the customer token vault endpoints
type Handler struct {
	service ports.CustomerService
	logger  *zap.Logger
}

// NewHandler creates a new customer handler
func NewHandler(service ports.CustomerService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the customer endpoints on group
func (h *Handler) RegisterRoutes(group gin.IRouter) {
	customers := group.Group("/customers")
	customers.POST("", h.Upsert)
	customers.GET("/:user_id", h.Get)
}

type upsertRequest struct {
	UserID           string `json:"user_id" binding:"required"`
	StripeCustomerID string `json:"stripe_customer_id" binding:"required"`
}

type customerResponse struct {
	CreatedAt        time.Time `json:"created_at"`
	UserID           string    `json:"user_id"`
	StripeCustomerID string    `json:"stripe_customer_id"`
	DecryptedToken   string    `json:"decrypted_token"`
}

// Upsert handles POST /customers
func (h *Handler) Upsert(c *gin.Context) {
	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	record, err := h.service.UpsertCustomer(c.Request.Context(), req.UserID, req.StripeCustomerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(record))
}

// Get handles GET /customers/:user_id
func (h *Handler) Get(c *gin.Context) {
	record, err := h.service.GetCustomer(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrorCodeDecryptionFailed) {
			h.logger.Error("Customer token unreadable", zap.String("user_id", c.Param("user_id")))
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(record))
}

func toResponse(r *domain.CustomerRecord) customerResponse {
	return customerResponse{
		UserID:           r.UserID,
		StripeCustomerID: r.StripeCustomerID,
		DecryptedToken:   r.DecryptedToken,
		CreatedAt:        r.CreatedAt,
	}
}
