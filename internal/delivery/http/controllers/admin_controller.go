package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "gedenkseiten/internal/delivery/http/helpers"
	"gedenkseiten/internal/domain"
)

// ModerationActionRequest is the request body for approve/reject. Version is
// the memorial version the admin saw; a stale version yields 409.
type ModerationActionRequest struct {
	Version int `json:"version"`
}

// Validate implements Validator.
func (m ModerationActionRequest) Validate() []string {
	if m.Version < 1 {
		return []string{"version is required"}
	}
	return nil
}

type AdminController struct {
	Logger  *slog.Logger
	Service domain.ModerationService
}

func NewAdminController(logger *slog.Logger, svc domain.ModerationService) *AdminController {
	return &AdminController{
		Logger:  logger,
		Service: svc,
	}
}

// ListQueue godoc
// @Summary List the moderation queue
// @Description List memorials by moderation status (default: pending).
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Moderation status: draft, pending, approved, rejected (default pending)"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/memorials [get]
func (c *AdminController) ListQueue(w http.ResponseWriter, r *http.Request) {
	status := domain.ModerationStatus(strings.TrimSpace(strings.ToLower(r.URL.Query().Get("status"))))
	if status == "" {
		status = domain.ModerationPending
	}
	switch status {
	case domain.ModerationDraft, domain.ModerationPending, domain.ModerationApproved, domain.ModerationRejected:
	default:
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "unknown moderation status")
		return
	}

	params := h.ParsePagination(r)
	memorials, total, err := c.Service.ListQueue(r.Context(), status, params)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, h.PaginatedList{
		Items:      memorials,
		Pagination: h.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// Approve godoc
// @Summary Approve a memorial
// @Description Approve and publish the memorial, regardless of its prior moderation state. The owner is notified.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memorial ID"
// @Param body body ModerationActionRequest true "Version seen by the admin"
// @Success 200 {object} helpers.APIResponse "data contains the approved memorial"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /admin/memorials/{id}/approve [post]
func (c *AdminController) Approve(w http.ResponseWriter, r *http.Request) {
	var req ModerationActionRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	m, err := c.Service.Approve(r.Context(), r.PathValue("id"), req.Version)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, m)
}

// Reject godoc
// @Summary Reject a memorial
// @Description Mark the memorial rejected. Public visibility is left unchanged. The owner is notified.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memorial ID"
// @Param body body ModerationActionRequest true "Version seen by the admin"
// @Success 200 {object} helpers.APIResponse "data contains the rejected memorial"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /admin/memorials/{id}/reject [post]
func (c *AdminController) Reject(w http.ResponseWriter, r *http.Request) {
	var req ModerationActionRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	m, err := c.Service.Reject(r.Context(), r.PathValue("id"), req.Version)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, m)
}

// TogglePublished godoc
// @Summary Toggle public visibility
// @Description Flip is_published without touching the moderation status. Toggling twice restores the original state.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memorial ID"
// @Success 200 {object} helpers.APIResponse "data contains the memorial"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/memorials/{id}/toggle-published [post]
func (c *AdminController) TogglePublished(w http.ResponseWriter, r *http.Request) {
	m, err := c.Service.TogglePublished(r.Context(), r.PathValue("id"))
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, m)
}

// Archive godoc
// @Summary Archive a memorial
// @Description Soft-delete any memorial from the console. The record stays stored for audit.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memorial ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/memorials/{id} [delete]
func (c *AdminController) Archive(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.Archive(r.Context(), r.PathValue("id")); err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]any{"archived": true})
}
