package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Flowcells
	mux.Handle("GET /api/v1/flowcells", chain(http.HandlerFunc(h.ListFlowcells)))
	mux.Handle("GET /api/v1/flowcells/{id}", chain(http.HandlerFunc(h.GetFlowcell)))
	mux.Handle("GET /api/v1/flowcells/{id}/samples", chain(http.HandlerFunc(h.ListFlowcellSamples)))
	mux.Handle("POST /api/v1/flowcells/{flowcell}/enqueue", chain(http.HandlerFunc(h.EnqueueFlowcell)))

	// Справочники
	mux.Handle("GET /api/v1/resources", chain(http.HandlerFunc(h.GetResources)))
	mux.Handle("GET /api/v1/chemistries", chain(http.HandlerFunc(h.ListChemistries)))

	// Skip list
	mux.Handle("GET /api/v1/skiplist", chain(http.HandlerFunc(h.GetSkipList)))
	mux.Handle("POST /api/v1/skiplist", chain(http.HandlerFunc(h.AddToSkipList)))
}
