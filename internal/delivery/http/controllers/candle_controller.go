package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "gedenkseiten/internal/delivery/http/helpers"
	"gedenkseiten/internal/domain"
)

// LightCandleRequest is the request body for POST /m/{slug}/candles
type LightCandleRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Message       string `json:"message"`
	DurationHours int    `json:"duration_hours"`
}

// Validate implements Validator.
func (l LightCandleRequest) Validate() []string {
	var errs []string
	if l.DurationHours < 1 {
		errs = append(errs, "duration_hours must be at least 1")
	}
	if e := strings.TrimSpace(l.Email); e != "" && !emailRegexp.MatchString(e) {
		errs = append(errs, "invalid email format")
	}
	if len(l.Message) > 2000 {
		errs = append(errs, "message must be at most 2000 characters")
	}
	return errs
}

type CandleController struct {
	Logger    *slog.Logger
	Service   domain.CandleService
	Memorials domain.MemorialService
}

func NewCandleController(logger *slog.Logger, svc domain.CandleService, memorials domain.MemorialService) *CandleController {
	return &CandleController{
		Logger:    logger,
		Service:   svc,
		Memorials: memorials,
	}
}

// resolve maps the public slug onto the memorial id. Candle routes are
// slug-addressed so visitors never see internal ids.
func (c *CandleController) resolve(w http.ResponseWriter, r *http.Request) (*domain.Memorial, bool) {
	m, err := c.Memorials.GetPublishedBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return nil, false
	}
	return m, true
}

// Light godoc
// @Summary Light a candle
// @Description Leave a candle with an optional name and message on a published memorial page. No authentication required.
// @Tags candles
// @Accept json
// @Produce json
// @Param slug path string true "Memorial slug"
// @Param body body LightCandleRequest true "Candle data"
// @Success 201 {object} helpers.APIResponse "data contains the candle"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /m/{slug}/candles [post]
func (c *CandleController) Light(w http.ResponseWriter, r *http.Request) {
	m, ok := c.resolve(w, r)
	if !ok {
		return
	}
	var req LightCandleRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	candle, err := c.Service.Light(r.Context(), m.ID, req.Name, req.Email, req.Message, req.DurationHours)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, candle)
}

// List godoc
// @Summary List burning candles
// @Description Return the candles on a published memorial page that have not burnt out yet.
// @Tags candles
// @Produce json
// @Param slug path string true "Memorial slug"
// @Success 200 {object} helpers.APIResponse "data contains the burning candles"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /m/{slug}/candles [get]
func (c *CandleController) List(w http.ResponseWriter, r *http.Request) {
	m, ok := c.resolve(w, r)
	if !ok {
		return
	}
	candles, err := c.Service.ListActive(r.Context(), m.ID)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, candles)
}
