package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zphere-app/tenantdb/pkg/masterdb"
	"github.com/zphere-app/tenantdb/pkg/provisioner"
)

type createTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type tenantResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	IsActive        bool   `json:"is_active"`
	DatabaseCreated bool   `json:"database_created"`
	DatabaseName    string `json:"database_name,omitempty"`
}

func toTenantResponse(org *masterdb.Organization) tenantResponse {
	return tenantResponse{
		ID:              org.ID.String(),
		Name:            org.Name,
		Slug:            org.Slug,
		IsActive:        org.IsActive,
		DatabaseCreated: org.Settings.DatabaseCreated,
		DatabaseName:    org.Settings.DatabaseName,
	}
}

// Router mounts the administrative API. The caller wraps it with
// tenant.RequireAdmin so only admin-context requests reach it.
func Router(svc *Service, log *slog.Logger) chi.Router {
	h := &handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Post("/tenants", h.createTenant)
	r.Get("/tenants/{id}", h.getTenant)
	r.Post("/tenants/{id}/suspend", h.suspendTenant)
	r.Post("/tenants/{id}/activate", h.activateTenant)
	r.Delete("/tenants/{id}/database", h.dropTenantDatabase)
	r.Post("/schema/sync", h.syncSchemas)
	return r
}

type handler struct {
	svc *Service
	log *slog.Logger
}

func (h *handler) createTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.Join(ErrInvalidName, err))
		return
	}

	org, err := h.svc.CreateTenant(r.Context(), req.Name, req.Slug)
	if err != nil {
		// Registered but not provisioned: report the row with 202 so the
		// caller knows signup stuck and provisioning is pending.
		if org != nil {
			h.respondJSON(w, http.StatusAccepted, toTenantResponse(org))
			return
		}
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, toTenantResponse(org))
}

func (h *handler) getTenant(w http.ResponseWriter, r *http.Request) {
	org, err := h.svc.GetTenant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toTenantResponse(org))
}

func (h *handler) suspendTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Suspend(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) activateTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Activate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) dropTenantDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DropTenantDatabase(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) syncSchemas(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.SyncSchemas(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	type tenantError struct {
		TenantID string `json:"tenant_id"`
		Error    string `json:"error"`
	}
	resp := struct {
		Applied int           `json:"applied"`
		Skipped int           `json:"skipped"`
		Errors  []tenantError `json:"errors"`
	}{
		Applied: len(report.Applied),
		Skipped: len(report.Skipped),
		Errors:  make([]tenantError, 0, len(report.Errors)),
	}
	for _, te := range report.Errors {
		resp.Errors = append(resp.Errors, tenantError{TenantID: te.TenantID, Error: te.Err.Error()})
	}

	status := http.StatusOK
	if len(resp.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	h.respondJSON(w, status, resp)
}

func (h *handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidSlug):
		status = http.StatusBadRequest
	case errors.Is(err, masterdb.ErrOrganizationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, masterdb.ErrSlugTaken):
		status = http.StatusConflict
	case errors.Is(err, provisioner.ErrNotProvisioned):
		status = http.StatusConflict
	}

	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "admin request failed",
			slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	h.respondJSON(w, status, map[string]string{"error": err.Error()})
}
