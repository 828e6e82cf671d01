package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/repo"
)

// Default configuration values.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ListFlowcells возвращает запуски с фильтрацией.
// GET /api/v1/flowcells?flowcell=...&status=...&limit=...&offset=...
func (h *Handler) ListFlowcells(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repo.FlowcellFilter{
		Flowcell: q.Get("flowcell"),
		Status:   domain.FlowcellStatus(strings.ToUpper(q.Get("status"))),
		Limit:    min(intParam(q.Get("limit"), defaultListLimit), maxListLimit),
		Offset:   intParam(q.Get("offset"), 0),
	}
	if filter.Limit <= 0 || filter.Offset < 0 {
		BadRequest(w, "invalid limit or offset")
		return
	}

	runs, err := h.flowcells.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]FlowcellRunResponse, len(runs))
	for i, run := range runs {
		result[i] = FlowcellRunFromDomain(run)
	}

	List(w, result, len(result))
}

// GetFlowcell возвращает запуск по ID.
// GET /api/v1/flowcells/{id}
func (h *Handler) GetFlowcell(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flowcell run id")
		return
	}

	run, err := h.flowcells.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "flowcell run not found") {
		return
	}

	Success(w, FlowcellRunFromDomain(*run))
}

// ListFlowcellSamples возвращает образцы запуска в порядке run sheet.
// GET /api/v1/flowcells/{id}/samples
func (h *Handler) ListFlowcellSamples(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flowcell run id")
		return
	}

	// 404 для несуществующего запуска, а не пустой список
	if _, err := h.flowcells.GetByID(r.Context(), id); HandleRepoError(w, h.logger, err, "flowcell run not found") {
		return
	}

	samples, err := h.samples.ListByRun(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]SampleRunResponse, len(samples))
	for i, s := range samples {
		result[i] = SampleRunFromDomain(s)
	}

	List(w, result, len(result))
}

// EnqueueFlowcell публикует flowcell.pending.
// POST /api/v1/flowcells/{flowcell}/enqueue
func (h *Handler) EnqueueFlowcell(w http.ResponseWriter, r *http.Request) {
	flowcell := strings.TrimSpace(r.PathValue("flowcell"))
	if flowcell == "" {
		BadRequest(w, "flowcell is required")
		return
	}

	// Тело необязательно
	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	if h.skip != nil && h.skip.Contains(flowcell) {
		Conflict(w, "flowcell is in skip list")
		return
	}
	if h.enqueuer == nil {
		ServiceUnavailable(w, "message broker is not available")
		return
	}

	if err := h.enqueuer.PublishFlowcellPending(r.Context(), flowcell, req.RunSheet); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("flowcell enqueued", "flowcell", flowcell, "run_sheet", req.RunSheet)
	JSON(w, http.StatusAccepted, DataResponse{Data: EnqueueResponse{
		Flowcell: flowcell,
		RunSheet: req.RunSheet,
		Queued:   true,
	}})
}

// intParam разбирает целый query-параметр; пустое или нечисловое значение даёт def.
func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
