package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"go.uber.org/zap"
)

type errorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Path      string            `json:"path"`
	ProductID string            `json:"product_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// statusErrors maps sentinel errors to HTTP statuses, the first match wins.
var statusErrors = []struct {
	err    error
	status int
}{
	{domain.ErrOrderNotFound, http.StatusNotFound},
	{domain.ErrCustomerNotFound, http.StatusNotFound},
	{domain.ErrProductNotFound, http.StatusNotFound},
	{domain.ErrItemNotFound, http.StatusNotFound},
	{domain.ErrInvalidQuantity, http.StatusBadRequest},
	{domain.ErrInvalidUnitPrice, http.StatusBadRequest},
	{domain.ErrOrderNotMutable, http.StatusConflict},
	{domain.ErrInsufficientStock, http.StatusConflict},
	{domain.ErrCurrencyMismatch, http.StatusConflict},
}

func (h *handler) writeError(c *gin.Context, err error) {
	resp := errorResponse{
		Timestamp: time.Now().UTC(),
		Status:    http.StatusInternalServerError,
		Message:   "internal error",
		Path:      c.Request.URL.Path,
	}

	for _, se := range statusErrors {
		if errors.Is(err, se.err) {
			resp.Status = se.status
			resp.Message = se.err.Error()
			break
		}
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		resp.Message = stockErr.Error()
		resp.ProductID = stockErr.ProductID.String()
	}

	if resp.Status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", resp.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err))
	}

	resp.Error = http.StatusText(resp.Status)
	c.AbortWithStatusJSON(resp.Status, resp)
}

func (h *handler) writeBadRequest(c *gin.Context, message string, err error) {
	resp := errorResponse{
		Timestamp: time.Now().UTC(),
		Status:    http.StatusBadRequest,
		Error:     http.StatusText(http.StatusBadRequest),
		Message:   message,
		Path:      c.Request.URL.Path,
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		resp.Fields = make(map[string]string, len(ve))
		for _, fe := range ve {
			resp.Fields[fe.Namespace()] = fe.Tag()
		}
	}

	c.AbortWithStatusJSON(resp.Status, resp)
}
