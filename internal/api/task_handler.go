package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shakhov/paycore/internal/domain"
)

// EnqueueTask ставит задачу в очередь на асинхронное выполнение.
// POST /api/v1/tasks
func (h *Handler) EnqueueTask(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.TaskName == "" {
		BadRequest(w, "task_name is required")
		return
	}

	maxRetries := h.maxRetries
	if req.MaxRetries != nil {
		if *req.MaxRetries < 0 {
			BadRequest(w, "max_retries must be non-negative")
			return
		}
		maxRetries = *req.MaxRetries
	}

	unit := domain.NewWorkUnit(req.TaskName, req.Args, maxRetries)
	if req.CorrelationID != "" {
		unit.CorrelationID = req.CorrelationID
	}

	queue, err := h.publisher.EnqueueUnit(r.Context(), unit)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("task enqueued via api",
		"unit_id", unit.ID,
		"task", unit.TaskName,
		"queue", queue,
	)

	Accepted(w, EnqueueResponse{
		UnitID:        unit.ID.String(),
		TaskName:      unit.TaskName,
		Queue:         string(queue),
		Status:        string(unit.Status),
		CorrelationID: unit.CorrelationID,
	})
}

// GetUnit возвращает work unit из журнала.
// GET /api/v1/tasks/{id}
func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	if h.units == nil {
		NotFound(w, "unit journal is not enabled")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid unit id")
		return
	}

	unit, err := h.units.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "unit not found") {
		return
	}

	Success(w, UnitFromDomain(*unit))
}

// ListDeadLetters возвращает dead letters, новые первыми.
// GET /api/v1/dead-letters?limit=...
func (h *Handler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	if h.deadLetters == nil {
		List(w, []DeadLetterResponse{}, 0)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	letters, err := h.deadLetters.List(r.Context(), limit)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]DeadLetterResponse, len(letters))
	for i, dl := range letters {
		result[i] = DeadLetterFromDomain(dl)
	}

	List(w, result, len(result))
}
