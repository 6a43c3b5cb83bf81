package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/salesdeck/automation/pkg/engine"
	"github.com/salesdeck/automation/pkg/graphrun"
	"github.com/salesdeck/automation/pkg/perf"
	"github.com/salesdeck/automation/pkg/persistence"
)

type APIHandlers struct {
	persistence persistence.Persistence
	engine      *engine.Engine
	tracker     *perf.Tracker
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewAPIHandlers(
	persistence persistence.Persistence,
	engine *engine.Engine,
	tracker *perf.Tracker,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		persistence: persistence,
		engine:      engine,
		tracker:     tracker,
		validator:   validator,
		logger:      logger.With("module", "web"),
	}
}

func (h *APIHandlers) GetRules(c fiber.Ctx) error {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		return badRequest(c, "owner_id query parameter is required")
	}

	rules, err := h.persistence.ActiveRulesByOwner(c.Context(), ownerID)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(fiber.Map{"rules": rules, "count": len(rules)})
}

func (h *APIHandlers) GetRule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "rule ID is required")
	}

	rule, err := h.persistence.RuleByID(c.Context(), id)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(rule)
}

// SaveRule creates or updates a rule and invalidates the engine's cache so
// the next trigger sees the change.
func (h *APIHandlers) SaveRule(c fiber.Ctx) error {
	var req SaveRuleRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	rule := req.toRule()

	if err := h.persistence.SaveRule(c.Context(), rule); err != nil {
		return handleStoreError(c, err)
	}

	h.engine.ReloadRules()

	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}

	return c.Status(status).JSON(rule)
}

func (h *APIHandlers) ReloadRules(c fiber.Ctx) error {
	h.engine.ReloadRules()

	return c.JSON(fiber.Map{"reloaded": true})
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		return badRequest(c, "owner_id query parameter is required")
	}

	limit, offset, err := parsePagination(c)
	if err != nil {
		return badRequest(c, "invalid pagination: "+err.Error())
	}

	records, err := h.persistence.ExecutionsByOwner(c.Context(), ownerID, limit, offset)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": records,
		"count":      len(records),
		"pagination": fiber.Map{"limit": limit, "offset": offset},
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "execution ID is required")
	}

	record, err := h.persistence.ExecutionByID(c.Context(), id)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(record)
}

// TestRun walks a workflow graph synchronously with mocked actions and
// returns node states, the execution path and the log.
func (h *APIHandlers) TestRun(c fiber.Ctx) error {
	var req TestRunRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	runner, err := graphrun.New(req.Graph,
		graphrun.WithStepDelay(0),
		graphrun.WithTracker(h.tracker),
		graphrun.WithLogger(h.logger),
	)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := runner.Run(c.Context(), req.Data)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(result)
}

// GetStats exposes the in-process timing aggregates.
func (h *APIHandlers) GetStats(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"operations": h.tracker.Snapshot()})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}

func parsePagination(c fiber.Ctx) (int, int, error) {
	limit, offset := 50, 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, err
		}

		limit = parsed
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, err
		}

		offset = parsed
	}

	return limit, offset, nil
}
