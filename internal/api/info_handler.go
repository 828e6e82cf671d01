package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shaiso/scauto/internal/domain"
	"github.com/shaiso/scauto/internal/orchestrator"
)

// GetResources возвращает бюджет ресурсов для батча.
// GET /api/v1/resources?samples=N
func (h *Handler) GetResources(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("samples"))
	if err != nil {
		BadRequest(w, "samples must be an integer")
		return
	}

	budget, err := orchestrator.AllocateResources(n)
	if errors.Is(err, orchestrator.ErrEmptyBatch) {
		BadRequest(w, "samples must be positive")
		return
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	cores, memory := budget.Totals(n)
	Success(w, ResourcesResponse{
		Samples:           n,
		CoresPerSample:    budget.CoresPerSample,
		MemoryPerSampleGB: budget.MemoryPerSampleGB,
		TotalCores:        cores,
		TotalMemoryGB:     memory,
	})
}

// ListChemistries возвращает поддерживаемые chemistry.
// GET /api/v1/chemistries
func (h *Handler) ListChemistries(w http.ResponseWriter, r *http.Request) {
	chems := domain.Chemistries()
	result := make([]ChemistryResponse, len(chems))
	for i, c := range chems {
		result[i] = ChemistryResponse{
			Code:    c,
			RNA:     c.IsRNA(),
			Spatial: c.IsSpatial(),
			VDJ:     c.IsVDJ(),
		}
	}
	List(w, result, len(result))
}

// GetSkipList возвращает skip-лист.
// GET /api/v1/skiplist
func (h *Handler) GetSkipList(w http.ResponseWriter, r *http.Request) {
	if h.skip == nil {
		ServiceUnavailable(w, "skip list is not configured")
		return
	}
	Success(w, SkipListResponse{
		Flowcells:   h.skip.Flowcells(),
		LastUpdated: h.skip.LastUpdated(),
	})
}

// AddToSkipList добавляет flowcell в skip-лист.
// POST /api/v1/skiplist
func (h *Handler) AddToSkipList(w http.ResponseWriter, r *http.Request) {
	if h.skip == nil {
		ServiceUnavailable(w, "skip list is not configured")
		return
	}

	var req SkipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	req.Flowcell = strings.TrimSpace(req.Flowcell)
	if req.Flowcell == "" {
		BadRequest(w, "flowcell is required")
		return
	}

	added, err := h.skip.Add(req.Flowcell, req.Reason)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	resp := SkipResponse{Flowcell: req.Flowcell, Added: added}
	if added {
		Created(w, resp)
		return
	}
	Success(w, resp)
}
