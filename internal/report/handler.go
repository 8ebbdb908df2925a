package report

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	"github.com/frahmantamala/training-records/internal/stats"
	"github.com/frahmantamala/training-records/internal/transport"
	"github.com/frahmantamala/training-records/pkg/logger"
)

type ServiceAPI interface {
	Statistics(ctx context.Context, caller auth.Identity, year *int) (stats.Snapshot, error)
	MyProgress(ctx context.Context, caller auth.Identity, year *int) (stats.EmployeeProgress, error)
	ExportStatistics(ctx context.Context, caller auth.Identity, year *int) (*Export, error)
	ExportTrainings(ctx context.Context, caller auth.Identity, year *int) (*Export, error)
	ExportUsers(ctx context.Context, caller auth.Identity) (*Export, error)
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

// GetStatistics handles GET /reports/statistics?year=
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	caller, year, ok := h.callerAndYear(w, r)
	if !ok {
		return
	}

	snap, err := h.Service.Statistics(r.Context(), caller, year)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, snap)
}

// GetMyProgress handles GET /reports/me?year=
func (h *Handler) GetMyProgress(w http.ResponseWriter, r *http.Request) {
	caller, year, ok := h.callerAndYear(w, r)
	if !ok {
		return
	}

	progress, err := h.Service.MyProgress(r.Context(), caller, year)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, progress)
}

func (h *Handler) ExportStatistics(w http.ResponseWriter, r *http.Request) {
	caller, year, ok := h.callerAndYear(w, r)
	if !ok {
		return
	}
	h.writeExport(w, func() (*Export, error) {
		return h.Service.ExportStatistics(r.Context(), caller, year)
	})
}

func (h *Handler) ExportTrainings(w http.ResponseWriter, r *http.Request) {
	caller, year, ok := h.callerAndYear(w, r)
	if !ok {
		return
	}
	h.writeExport(w, func() (*Export, error) {
		return h.Service.ExportTrainings(r.Context(), caller, year)
	})
}

func (h *Handler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}
	h.writeExport(w, func() (*Export, error) {
		return h.Service.ExportUsers(r.Context(), caller)
	})
}

func (h *Handler) callerAndYear(w http.ResponseWriter, r *http.Request) (auth.Identity, *int, bool) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return auth.Identity{}, nil, false
	}

	year, err := h.QueryYear(r)
	if err != nil {
		h.WriteAppError(w, err)
		return auth.Identity{}, nil, false
	}
	return caller, year, true
}

func (h *Handler) writeExport(w http.ResponseWriter, produce func() (*Export, error)) {
	export, err := produce()
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteFile(w, export.ContentType, export.Filename, export.Data.Bytes())
}
