package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/cliodyn"
	"github.com/soundprediction/cliodyn/pkg/server/dto"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// SimulationHandler serves the projection and scenario routes.
type SimulationHandler struct {
	engine cliodyn.Cliodyn
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(engine cliodyn.Cliodyn) *SimulationHandler {
	return &SimulationHandler{engine: engine}
}

// AddIndicator handles POST /api/v1/simulation/indicators
func (h *SimulationHandler) AddIndicator(c *gin.Context) {
	var req dto.CreateIndicatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	indicator := &types.Indicator{
		Name:        req.Name,
		Category:    req.Category,
		Value:       req.Value,
		Description: req.Description,
		Source:      req.Source,
		ExtraData:   req.ExtraData,
	}

	created, err := h.engine.AddIndicator(c.Request.Context(), indicator)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Result{Success: true, Data: created})
}

// AssessIndicators handles GET /api/v1/simulation/indicators/assessment
func (h *SimulationHandler) AssessIndicators(c *gin.Context) {
	assessment, err := h.engine.AssessIndicators(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: assessment})
}

// MatchPreconditions handles GET /api/v1/simulation/match/:patternID
func (h *SimulationHandler) MatchPreconditions(c *gin.Context) {
	match, err := h.engine.MatchPreconditions(c.Request.Context(), c.Param("patternID"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: match})
}

// Trajectory handles GET /api/v1/simulation/trajectory/:patternID
func (h *SimulationHandler) Trajectory(c *gin.Context) {
	currentYear := 0
	if v, ok := intQuery(c, "current_year"); ok {
		currentYear = v
	}

	trajectory, err := h.engine.ProjectTrajectory(c.Request.Context(), c.Param("patternID"), currentYear)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: trajectory})
}

// RiskScore handles GET /api/v1/simulation/risk
func (h *SimulationHandler) RiskScore(c *gin.Context) {
	assessment, err := h.engine.RiskScore(c.Request.Context())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: assessment})
}

// CreateScenario handles POST /api/v1/simulation/scenarios
func (h *SimulationHandler) CreateScenario(c *gin.Context) {
	var req dto.CreateScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	scenario, err := h.engine.CreateScenario(c.Request.Context(), req.Name, req.Description, req.IndicatorIDs, req.PatternIDs, req.Assumptions)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Result{Success: true, Data: scenario})
}

// GetScenario handles GET /api/v1/simulation/scenarios/:id
func (h *SimulationHandler) GetScenario(c *gin.Context) {
	scenario, err := h.engine.Scenario(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: scenario})
}

// ListScenarios handles GET /api/v1/simulation/scenarios
func (h *SimulationHandler) ListScenarios(c *gin.Context) {
	scenarios, err := h.engine.Scenarios(c.Request.Context())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: scenarios})
}

// Analogs handles POST /api/v1/simulation/analogs
func (h *SimulationHandler) Analogs(c *gin.Context) {
	var req dto.AnalogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeBadRequest(c, err)
		return
	}

	analogs, err := h.engine.HistoricalAnalogs(c.Request.Context(), req.Keywords)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: analogs})
}

// SuggestAnnotations handles POST /api/v1/simulation/suggest/:eventID
func (h *SimulationHandler) SuggestAnnotations(c *gin.Context) {
	suggestion, err := h.engine.SuggestAnnotations(c.Request.Context(), c.Param("eventID"))
	if err != nil {
		if errors.Is(err, cliodyn.ErrAssistDisabled) {
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Error:   "assist_disabled",
				Message: err.Error(),
				Code:    http.StatusServiceUnavailable,
			})
			return
		}
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: suggestion})
}
