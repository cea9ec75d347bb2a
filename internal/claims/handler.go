package claims

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/cct/pkg/handlers"
	"github.com/JaimeStill/cct/pkg/pagination"
	"github.com/JaimeStill/cct/pkg/routes"
)

// Handler provides HTTP endpoints for the claim ledger.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchResult is the response of an identity search. Identity is empty when
// nothing matched.
type SearchResult struct {
	Query    string `json:"query"`
	Identity string `json:"identity,omitempty"`
	Found    bool   `json:"found"`
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "claims"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for claim endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/claims",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Record},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/identity/{identity}", Handler: h.History},
			{Method: "GET", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats},
		},
	}
}

// List returns a page of claims, newest first unless sort is given.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())
	handlers.RespondJSON(w, http.StatusOK, h.sys.List(page, filters))
}

// Record appends a ledger claim. The outcome is computed by the ledger.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var cmd RecordCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	c, err := h.sys.Record(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, c)
}

// Find returns a single claim by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	c, err := h.sys.Find(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// History returns every claim against a device identity, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.History(r.Context(), r.PathValue("identity")))
}

// Search resolves the q parameter to a device identity.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	identity, found := h.sys.Search(r.Context(), q)
	handlers.RespondJSON(w, http.StatusOK, SearchResult{Query: q, Identity: identity, Found: found})
}

// Stats returns ledger totals.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Stats())
}
