package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/cliodyn"
	"github.com/soundprediction/cliodyn/pkg/server/dto"
	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// ChronologyHandler serves the event ledger routes.
type ChronologyHandler struct {
	engine cliodyn.Cliodyn
}

// NewChronologyHandler creates a new chronology handler
func NewChronologyHandler(engine cliodyn.Cliodyn) *ChronologyHandler {
	return &ChronologyHandler{engine: engine}
}

// CreateEvent handles POST /api/v1/chronology/events
func (h *ChronologyHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	event := &types.Event{
		Name:             req.Name,
		Description:      req.Description,
		YearStart:        req.YearStart,
		YearEnd:          req.YearEnd,
		YearStartMin:     req.YearStartMin,
		YearStartMax:     req.YearStartMax,
		YearEndMin:       req.YearEndMin,
		YearEndMax:       req.YearEndMax,
		Era:              types.Era(req.Era),
		Type:             types.EventType(req.EventType),
		CanonSource:      req.CanonSource,
		HistoricalSource: req.HistoricalSource,
		ExtraData:        req.ExtraData,
	}

	created, err := h.engine.AddEvent(c.Request.Context(), event)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Result{Success: true, Data: created})
}

// GetEvent handles GET /api/v1/chronology/events/:id
func (h *ChronologyHandler) GetEvent(c *gin.Context) {
	event, err := h.engine.Event(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: event})
}

// ListEvents handles GET /api/v1/chronology/events
func (h *ChronologyHandler) ListEvents(c *gin.Context) {
	filter := store.EventFilter{}
	if era := c.Query("era"); era != "" {
		e := types.Era(era)
		filter.Era = &e
	}
	if eventType := c.Query("event_type"); eventType != "" {
		t := types.EventType(eventType)
		filter.Type = &t
	}
	if v, ok := intQuery(c, "year_start_min"); ok {
		filter.YearStartMin = &v
	}
	if v, ok := intQuery(c, "year_start_max"); ok {
		filter.YearStartMax = &v
	}

	events, err := h.engine.Events(c.Request.Context(), filter)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: events})
}

// EventsInRange handles GET /api/v1/chronology/range
func (h *ChronologyHandler) EventsInRange(c *gin.Context) {
	startYear, ok := intQuery(c, "start_year")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "start_year is required", Code: http.StatusBadRequest})
		return
	}
	endYear, ok := intQuery(c, "end_year")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "end_year is required", Code: http.StatusBadRequest})
		return
	}
	includeUncertain := c.DefaultQuery("include_uncertain", "true") == "true"

	events, err := h.engine.EventsInRange(c.Request.Context(), startYear, endYear, includeUncertain)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: events})
}

// EventsByYear handles GET /api/v1/chronology/year/:year
func (h *ChronologyHandler) EventsByYear(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	tolerance := 0
	if v, ok := intQuery(c, "tolerance"); ok {
		tolerance = v
	}

	events, err := h.engine.EventsByYear(c.Request.Context(), year, tolerance)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: events})
}

// EventsByEra handles GET /api/v1/chronology/era/:era
func (h *ChronologyHandler) EventsByEra(c *gin.Context) {
	events, err := h.engine.EventsByEra(c.Request.Context(), types.Era(c.Param("era")))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: events})
}

// Contemporaneous handles GET /api/v1/chronology/events/:id/contemporaneous
func (h *ChronologyHandler) Contemporaneous(c *gin.Context) {
	window := 50
	if v, ok := intQuery(c, "window_years"); ok {
		window = v
	}

	events, err := h.engine.Contemporaneous(c.Request.Context(), c.Param("id"), window)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: events})
}

// TemporalDistance handles GET /api/v1/chronology/distance
func (h *ChronologyHandler) TemporalDistance(c *gin.Context) {
	firstID := c.Query("from")
	secondID := c.Query("to")
	if firstID == "" || secondID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "from and to are required", Code: http.StatusBadRequest})
		return
	}

	distance, err := h.engine.TemporalDistance(c.Request.Context(), firstID, secondID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: gin.H{"distance_years": distance}})
}

// Summary handles GET /api/v1/chronology/summary
func (h *ChronologyHandler) Summary(c *gin.Context) {
	var startYear, endYear *int
	if v, ok := intQuery(c, "start_year"); ok {
		startYear = &v
	}
	if v, ok := intQuery(c, "end_year"); ok {
		endYear = &v
	}

	summary, err := h.engine.TimelineSummary(c.Request.Context(), startYear, endYear)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: summary})
}

// intQuery parses an optional integer query parameter.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
