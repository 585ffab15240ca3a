package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	h "gedenkseiten/internal/delivery/http/helpers"
	"gedenkseiten/internal/delivery/http/middleware"
	"gedenkseiten/internal/domain"
)

// CreateMemorialRequest is the request body for POST /memorials
type CreateMemorialRequest struct {
	Kind         string          `json:"kind"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	BirthDate    *time.Time      `json:"birth_date"`
	DeathDate    *time.Time      `json:"death_date"`
	BirthPlace   string          `json:"birth_place"`
	DeathPlace   string          `json:"death_place"`
	CauseOfDeath string          `json:"cause_of_death"`
	Gender       string          `json:"gender"`
	Blocks       json.RawMessage `json:"blocks"`
}

// Validate implements Validator.
func (c CreateMemorialRequest) Validate() []string {
	var errs []string
	kind := strings.TrimSpace(strings.ToLower(c.Kind))
	if kind != string(domain.KindObituary) && kind != string(domain.KindMemorial) {
		errs = append(errs, `kind must be "obituary" or "memorial"`)
	}
	if strings.TrimSpace(c.FirstName) == "" && strings.TrimSpace(c.LastName) == "" {
		errs = append(errs, "first_name or last_name is required")
	}
	return errs
}

// UpdateMemorialRequest is the request body for PATCH /memorials/{id}.
// Absent fields are left unchanged.
type UpdateMemorialRequest struct {
	FirstName    *string         `json:"first_name"`
	LastName     *string         `json:"last_name"`
	BirthDate    *time.Time      `json:"birth_date"`
	DeathDate    *time.Time      `json:"death_date"`
	BirthPlace   *string         `json:"birth_place"`
	DeathPlace   *string         `json:"death_place"`
	CauseOfDeath *string         `json:"cause_of_death"`
	Gender       *string         `json:"gender"`
	Blocks       json.RawMessage `json:"blocks"`
}

type MemorialController struct {
	Logger  *slog.Logger
	Service domain.MemorialService
	Candles domain.CandleService
	Views   domain.ViewCounter
}

func NewMemorialController(logger *slog.Logger, svc domain.MemorialService, candles domain.CandleService, views domain.ViewCounter) *MemorialController {
	return &MemorialController{
		Logger:  logger,
		Service: svc,
		Candles: candles,
		Views:   views,
	}
}

func (c *MemorialController) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
	}
	return userID, ok
}

// Create godoc
// @Summary Create a memorial draft
// @Description Create an obituary or memorial page. The page starts as an unpublished draft owned by the caller.
// @Tags memorials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateMemorialRequest true "Memorial data"
// @Success 201 {object} helpers.APIResponse "data contains the created memorial"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /memorials [post]
func (c *MemorialController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	var req CreateMemorialRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	m := &domain.Memorial{
		OwnerID:      userID,
		Kind:         domain.MemorialKind(strings.TrimSpace(strings.ToLower(req.Kind))),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		BirthDate:    req.BirthDate,
		DeathDate:    req.DeathDate,
		BirthPlace:   strings.TrimSpace(req.BirthPlace),
		DeathPlace:   strings.TrimSpace(req.DeathPlace),
		CauseOfDeath: strings.TrimSpace(req.CauseOfDeath),
		Gender:       strings.TrimSpace(req.Gender),
		Blocks:       req.Blocks,
	}
	if err := c.Service.Create(r.Context(), m); err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, m)
}

// ListOwn godoc
// @Summary List own memorials
// @Tags memorials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the caller's memorials"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /memorials [get]
func (c *MemorialController) ListOwn(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	memorials, err := c.Service.ListOwn(r.Context(), userID)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if memorials == nil {
		memorials = []*domain.Memorial{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, memorials)
}

// GetByID godoc
// @Summary Get an own memorial by id
// @Tags memorials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memorial ID"
// @Success 200 {object} helpers.APIResponse "data contains the memorial"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /memorials/{id} [get]
func (c *MemorialController) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	m, err := c.Service.GetByID(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, m)
}

// Update godoc
// @Summary Update an own memorial
// @Description Partially update memorial fields. Only the owner may edit.
// @Tags memorials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memorial ID"
// @Param body body UpdateMemorialRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse "data contains the updated memorial"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /memorials/{id} [patch]
func (c *MemorialController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	var req UpdateMemorialRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	upd := domain.MemorialUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BirthDate:    req.BirthDate,
		DeathDate:    req.DeathDate,
		BirthPlace:   req.BirthPlace,
		DeathPlace:   req.DeathPlace,
		CauseOfDeath: req.CauseOfDeath,
		Gender:       req.Gender,
		Blocks:       req.Blocks,
	}
	m, err := c.Service.Update(r.Context(), r.PathValue("id"), userID, upd)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, m)
}

// SubmitForReview godoc
// @Summary Submit a memorial for moderation
// @Description Move the memorial into the admin review queue and notify the admins.
// @Tags memorials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memorial ID"
// @Success 200 {object} helpers.APIResponse "data contains the memorial, now pending"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /memorials/{id}/submit [post]
func (c *MemorialController) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	m, err := c.Service.SubmitForReview(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, m)
}

// Archive godoc
// @Summary Archive an own memorial
// @Description Soft-delete the memorial. It disappears from listings and public view but stays stored.
// @Tags memorials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memorial ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /memorials/{id} [delete]
func (c *MemorialController) Archive(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	if err := c.Service.Archive(r.Context(), r.PathValue("id"), userID); err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]any{"archived": true})
}

// PublicPageResponse is the public view of a memorial page.
type PublicPageResponse struct {
	Memorial *domain.Memorial `json:"memorial"`
	Candles  []*domain.Candle `json:"candles"`
}

// GetPublicBySlug godoc
// @Summary View a published memorial page
// @Description Public, unauthenticated page view by slug. Only published, non-archived pages resolve. Records a page view.
// @Tags public
// @Produce json
// @Param slug path string true "Memorial slug"
// @Success 200 {object} helpers.APIResponse "data contains memorial and burning candles"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /m/{slug} [get]
func (c *MemorialController) GetPublicBySlug(w http.ResponseWriter, r *http.Request) {
	m, err := c.Service.GetPublishedBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}

	// View counting must never break the page.
	if err := c.Views.Record(r.Context(), m.ID); err != nil {
		c.Logger.Warn("record view failed", "memorial_id", m.ID, "err", err)
	}

	candles, err := c.Candles.ListActive(r.Context(), m.ID)
	if err != nil {
		c.Logger.Error("list candles for page failed", "memorial_id", m.ID, "err", err)
		candles = []*domain.Candle{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, PublicPageResponse{Memorial: m, Candles: candles})
}
