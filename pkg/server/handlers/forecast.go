package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/cliodyn"
	"github.com/soundprediction/cliodyn/pkg/server/dto"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// ForecastHandler serves the tracked-record routes.
type ForecastHandler struct {
	engine cliodyn.Cliodyn
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(engine cliodyn.Cliodyn) *ForecastHandler {
	return &ForecastHandler{engine: engine}
}

// CreateRecord handles POST /api/v1/forecast/records
func (h *ForecastHandler) CreateRecord(c *gin.Context) {
	var req dto.CreateForecastRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	record := &types.ForecastRecord{
		Reference:    req.Reference,
		Text:         req.Text,
		DeclaredYear: req.DeclaredYear,
		RecordType:   req.RecordType,
		Scope:        req.Scope,
		Elements:     req.Elements,
	}

	created, err := h.engine.CreateForecastRecord(c.Request.Context(), record)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Result{Success: true, Data: created})
}

// ListRecords handles GET /api/v1/forecast/records
func (h *ForecastHandler) ListRecords(c *gin.Context) {
	records, err := h.engine.ForecastRecords(c.Request.Context())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: records})
}

// AddFulfillment handles POST /api/v1/forecast/records/:id/fulfillments
func (h *ForecastHandler) AddFulfillment(c *gin.Context) {
	var req dto.AddFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	fulfillment, err := h.engine.AddFulfillment(c.Request.Context(), c.Param("id"), req.EventID, req.Type, req.Explanation, req.Confidence)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Result{Success: true, Data: fulfillment})
}

// ListFulfillments handles GET /api/v1/forecast/records/:id/fulfillments
func (h *ForecastHandler) ListFulfillments(c *gin.Context) {
	fulfillments, err := h.engine.Fulfillments(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: fulfillments})
}

// Rollup handles GET /api/v1/forecast/rollup
func (h *ForecastHandler) Rollup(c *gin.Context) {
	rollup, err := h.engine.FulfillmentRollup(c.Request.Context())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: rollup})
}
