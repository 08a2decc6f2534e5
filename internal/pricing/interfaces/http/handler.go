package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/utils"
)

// PricingHandler exposes the calculation API over HTTP.
type PricingHandler struct {
	service *application.PricingService
}

func NewPricingHandler(service *application.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

func (h *PricingHandler) RegisterRoutes(r *gin.RouterGroup) {
	v1 := r.Group("/v1/calculations")
	{
		v1.POST("", h.CreateCalculation)
		v1.POST("/batch", h.BatchCalculate)
		v1.GET("", h.ListCalculations)
		v1.GET("/count", h.CountCalculations)
		v1.GET("/:id", h.GetCalculation)
		v1.DELETE("", h.DeleteCalculations)
	}
}

// calculateRequest carries one pricing input. Pointer fields distinguish an
// absent field from a legitimate zero, since r and d may be 0.
type calculateRequest struct {
	S0 *float64 `json:"s0" binding:"required"`
	X  *float64 `json:"x" binding:"required"`
	T  *float64 `json:"t" binding:"required"`
	R  *float64 `json:"r" binding:"required"`
	D  *float64 `json:"d" binding:"required"`
	V  *float64 `json:"v" binding:"required"`
}

func (r calculateRequest) toCommand() application.CalculateCommand {
	return application.CalculateCommand{S0: *r.S0, X: *r.X, T: *r.T, R: *r.R, D: *r.D, V: *r.V}
}

type batchCalculateRequest struct {
	BatchID string             `json:"batch_id"`
	Inputs  []calculateRequest `json:"inputs" binding:"required,min=1,dive"`
}

type deleteCalculationsRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

func (h *PricingHandler) CreateCalculation(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.service.Calculate(c.Request.Context(), req.toCommand())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

func (h *PricingHandler) BatchCalculate(c *gin.Context) {
	var req batchCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmds := make([]application.CalculateCommand, len(req.Inputs))
	for i, in := range req.Inputs {
		cmds[i] = in.toCommand()
	}

	result, err := h.service.CalculateBatch(c.Request.Context(), application.BatchCalculateCommand{
		BatchID: req.BatchID,
		Inputs:  cmds,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PricingHandler) ListCalculations(c *gin.Context) {
	offset := 0
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		offset = v
	}
	limit := 10
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		limit = v
	}

	dtos, total, err := h.service.ListCalculations(c.Request.Context(), offset, limit)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"calculations": dtos,
		"pagination":   utils.NewPagination(offset, limit, total),
	})
}

func (h *PricingHandler) CountCalculations(c *gin.Context) {
	total, err := h.service.CountCalculations(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (h *PricingHandler) GetCalculation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	dto, err := h.service.GetCalculation(c.Request.Context(), uint(id))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if dto == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "calculation not found"})
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *PricingHandler) DeleteCalculations(c *gin.Context) {
	var req deleteCalculationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := h.service.DeleteCalculations(c.Request.Context(), application.DeleteCalculationsCommand{IDs: req.IDs})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *PricingHandler) renderError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "invalid calculation input",
			"violations": verr.Violations,
		})
	case errors.Is(err, domain.ErrResultNotFinite):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, application.ErrEmptyBatch),
		errors.Is(err, application.ErrBatchTooLarge),
		errors.Is(err, application.ErrNoIDs):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(c.Request.Context(), "calculation request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
