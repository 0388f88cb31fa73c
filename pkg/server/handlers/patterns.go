package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/cliodyn"
	"github.com/soundprediction/cliodyn/pkg/server/dto"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// PatternsHandler serves the pattern vocabulary routes.
type PatternsHandler struct {
	engine cliodyn.Cliodyn
}

// NewPatternsHandler creates a new patterns handler
func NewPatternsHandler(engine cliodyn.Cliodyn) *PatternsHandler {
	return &PatternsHandler{engine: engine}
}

// CreatePattern handles POST /api/v1/patterns
func (h *PatternsHandler) CreatePattern(c *gin.Context) {
	var req dto.CreatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	pattern := &types.Pattern{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		TypicalDurationYears: req.TypicalDurationYears,
		Preconditions:        req.Preconditions,
		Indicators:           req.Indicators,
		Outcomes:             req.Outcomes,
		Basis:                req.Basis,
	}

	created, err := h.engine.CreatePattern(c.Request.Context(), pattern)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Result{Success: true, Data: created})
}

// ListPatterns handles GET /api/v1/patterns
func (h *PatternsHandler) ListPatterns(c *gin.Context) {
	patterns, err := h.engine.Patterns(c.Request.Context())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: patterns})
}

// GetPattern handles GET /api/v1/patterns/:id
func (h *PatternsHandler) GetPattern(c *gin.Context) {
	pattern, err := h.engine.Pattern(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: pattern})
}

// Link handles POST /api/v1/patterns/link
func (h *PatternsHandler) Link(c *gin.Context) {
	var req dto.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	link, err := h.engine.LinkEventToPattern(c.Request.Context(), req.EventID, req.PatternID, req.Strength)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Result{Success: true, Data: link})
}

// Instances handles GET /api/v1/patterns/:id/instances
func (h *PatternsHandler) Instances(c *gin.Context) {
	instances, err := h.engine.PatternInstances(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: instances})
}

// Recurrence handles GET /api/v1/patterns/:id/recurrence
func (h *PatternsHandler) Recurrence(c *gin.Context) {
	recurrence, err := h.engine.PatternRecurrence(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: recurrence})
}

// Detect handles GET /api/v1/patterns/detect/:eventID
func (h *PatternsHandler) Detect(c *gin.Context) {
	detections, err := h.engine.DetectPatterns(c.Request.Context(), c.Param("eventID"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: detections})
}

// Seed handles POST /api/v1/patterns/seed
func (h *PatternsHandler) Seed(c *gin.Context) {
	created, err := h.engine.SeedCorePatterns(c.Request.Context())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: gin.H{"created": len(created)}})
}
