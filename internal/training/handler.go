package training

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	"github.com/frahmantamala/training-records/internal/transport"
	"github.com/frahmantamala/training-records/pkg/logger"
)

type ServiceAPI interface {
	ListRecords(ctx context.Context, caller auth.Identity, filter ListFilter) ([]*Record, error)
	GetRecord(ctx context.Context, caller auth.Identity, id int64) (*Record, error)
	CreateRecord(ctx context.Context, caller auth.Identity, dto RecordDTO) (*Record, error)
	UpdateRecord(ctx context.Context, caller auth.Identity, id int64, dto RecordDTO) (*Record, error)
	DeleteRecord(ctx context.Context, caller auth.Identity, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListRecords handles GET /trainings?year=&owner_id=
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	year, err := h.QueryYear(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	filter := ListFilter{Year: year}
	if raw := r.URL.Query().Get("owner_id"); raw != "" {
		ownerID, err := h.ParseID("owner_id", raw)
		if err != nil {
			h.WriteAppError(w, err)
			return
		}
		filter.OwnerID = &ownerID
	}

	records, err := h.Service.ListRecords(r.Context(), caller, filter)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RecordsResponse{Records: records, Total: len(records)})
}

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	id, err := h.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	rec, err := h.Service.GetRecord(r.Context(), caller, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	var dto RecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Service.CreateRecord(r.Context(), caller, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	id, err := h.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var dto RecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Service.UpdateRecord(r.Context(), caller, id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	id, err := h.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	if err := h.Service.DeleteRecord(r.Context(), caller, id); err != nil {
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
