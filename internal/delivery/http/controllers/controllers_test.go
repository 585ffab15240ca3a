package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gedenkseiten/internal/delivery/http/helpers"
	"gedenkseiten/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) (map[string]any, *helpers.APIError) {
	t.Helper()
	var envelope struct {
		Data  map[string]any    `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope.Data, envelope.Error
}

// fakeModerationService implements domain.ModerationService.
type fakeModerationService struct {
	memorial *domain.Memorial
	err      error
}

func (f *fakeModerationService) ListQueue(ctx context.Context, status domain.ModerationStatus, params domain.PaginationParams) ([]*domain.Memorial, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return []*domain.Memorial{f.memorial}, 1, nil
}

func (f *fakeModerationService) Approve(ctx context.Context, id string, version int) (*domain.Memorial, error) {
	return f.memorial, f.err
}

func (f *fakeModerationService) Reject(ctx context.Context, id string, version int) (*domain.Memorial, error) {
	return f.memorial, f.err
}

func (f *fakeModerationService) TogglePublished(ctx context.Context, id string) (*domain.Memorial, error) {
	return f.memorial, f.err
}

func (f *fakeModerationService) Archive(ctx context.Context, id string) error { return f.err }

func TestAdminApprove(t *testing.T) {
	t.Run("stale version maps to 409", func(t *testing.T) {
		ctrl := NewAdminController(testLogger(), &fakeModerationService{err: domain.ErrConflict})

		req := httptest.NewRequest(http.MethodPost, "/admin/memorials/mem-1/approve", strings.NewReader(`{"version":3}`))
		req.SetPathValue("id", "mem-1")
		rr := httptest.NewRecorder()

		ctrl.Approve(rr, req)

		require.Equal(t, http.StatusConflict, rr.Code)
		_, apiErr := decodeEnvelope(t, rr)
		require.NotNil(t, apiErr)
		assert.Equal(t, helpers.ErrCodeConflict, apiErr.Code)
	})

	t.Run("missing version is rejected", func(t *testing.T) {
		ctrl := NewAdminController(testLogger(), &fakeModerationService{})

		req := httptest.NewRequest(http.MethodPost, "/admin/memorials/mem-1/approve", strings.NewReader(`{}`))
		req.SetPathValue("id", "mem-1")
		rr := httptest.NewRecorder()

		ctrl.Approve(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown body fields are rejected", func(t *testing.T) {
		ctrl := NewAdminController(testLogger(), &fakeModerationService{})

		req := httptest.NewRequest(http.MethodPost, "/admin/memorials/mem-1/approve", strings.NewReader(`{"version":1,"force":true}`))
		req.SetPathValue("id", "mem-1")
		rr := httptest.NewRecorder()

		ctrl.Approve(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("approved memorial is returned", func(t *testing.T) {
		ctrl := NewAdminController(testLogger(), &fakeModerationService{
			memorial: &domain.Memorial{ID: "mem-1", ModerationStatus: domain.ModerationApproved, IsPublished: true},
		})

		req := httptest.NewRequest(http.MethodPost, "/admin/memorials/mem-1/approve", strings.NewReader(`{"version":1}`))
		req.SetPathValue("id", "mem-1")
		rr := httptest.NewRecorder()

		ctrl.Approve(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		data, apiErr := decodeEnvelope(t, rr)
		require.Nil(t, apiErr)
		assert.Equal(t, "approved", data["moderation_status"])
		assert.Equal(t, true, data["is_published"])
	})
}

// fakePublishingService implements domain.PublishingService.
type fakePublishingService struct {
	result *domain.PublishRequestResult
	conf   *domain.PaymentConfirmation
	err    error
}

func (f *fakePublishingService) Tiers() []domain.PublishingTier { return domain.PublishingTiers }

func (f *fakePublishingService) RequestPublish(ctx context.Context, memorialID, callerID, tierID string) (*domain.PublishRequestResult, error) {
	return f.result, f.err
}

func (f *fakePublishingService) ConfirmPayment(ctx context.Context, sessionID string) (*domain.PaymentConfirmation, error) {
	return f.conf, f.err
}

func TestPaymentSuccess(t *testing.T) {
	t.Run("confirmed payment answers the provider contract", func(t *testing.T) {
		ctrl := NewPublishingController(testLogger(), &fakePublishingService{
			conf: &domain.PaymentConfirmation{OrderID: "order-1", PaymentStatus: domain.OrderPaid},
		})

		req := httptest.NewRequest(http.MethodPost, "/payments/success", strings.NewReader(`{"sessionId":"cs_123"}`))
		rr := httptest.NewRecorder()

		ctrl.PaymentSuccess(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		data, apiErr := decodeEnvelope(t, rr)
		require.Nil(t, apiErr)
		assert.Equal(t, true, data["success"])
		assert.Equal(t, "order-1", data["orderId"])
		assert.Equal(t, "paid", data["paymentStatus"])
	})

	t.Run("unpaid session maps to 400", func(t *testing.T) {
		ctrl := NewPublishingController(testLogger(), &fakePublishingService{err: domain.ErrSessionNotPaid})

		req := httptest.NewRequest(http.MethodPost, "/payments/success", strings.NewReader(`{"sessionId":"cs_123"}`))
		rr := httptest.NewRecorder()

		ctrl.PaymentSuccess(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing order maps to 404", func(t *testing.T) {
		ctrl := NewPublishingController(testLogger(), &fakePublishingService{err: domain.ErrOrderNotFound})

		req := httptest.NewRequest(http.MethodPost, "/payments/success", strings.NewReader(`{"sessionId":"cs_ghost"}`))
		rr := httptest.NewRecorder()

		ctrl.PaymentSuccess(rr, req)
		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

// fakeQueueProcessor, fakeSweeper, fakeFlusher back the jobs controller.
type fakeQueueProcessor struct{ res *domain.QueueRunResult }

func (f *fakeQueueProcessor) ProcessQueue(ctx context.Context) (*domain.QueueRunResult, error) {
	return f.res, nil
}

type fakeSweeper struct{ res *domain.ExpiryRunResult }

func (f *fakeSweeper) CheckExpirations(ctx context.Context) (*domain.ExpiryRunResult, error) {
	return f.res, nil
}

type fakeFlusher struct{ res *domain.ViewFlushResult }

func (f *fakeFlusher) FlushViews(ctx context.Context) (*domain.ViewFlushResult, error) {
	return f.res, nil
}

func TestJobsContracts(t *testing.T) {
	ctrl := NewJobsController(testLogger(),
		&fakeQueueProcessor{res: &domain.QueueRunResult{Processed: 8, Errors: 2, Total: 10}},
		&fakeSweeper{res: &domain.ExpiryRunResult{TotalItemsChecked: 5, NotificationsSent: 3, ExpiredItemsHidden: 2, Summary: "checked 5, hid 2 expired, sent 3 notifications"}},
		&fakeFlusher{res: &domain.ViewFlushResult{Memorials: 4, Views: 17}},
	)

	t.Run("email queue run", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ctrl.ProcessEmailQueue(rr, httptest.NewRequest(http.MethodPost, "/jobs/process-email-queue", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		data, _ := decodeEnvelope(t, rr)
		assert.Equal(t, true, data["success"])
		assert.Equal(t, float64(8), data["processed"])
		assert.Equal(t, float64(2), data["errors"])
		assert.Equal(t, float64(10), data["total"])
	})

	t.Run("expiry check", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ctrl.CheckExpirations(rr, httptest.NewRequest(http.MethodPost, "/jobs/check-expirations", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		data, _ := decodeEnvelope(t, rr)
		assert.Equal(t, true, data["success"])
		assert.Equal(t, float64(5), data["totalItemsChecked"])
		assert.Equal(t, float64(3), data["notificationsSent"])
		assert.Equal(t, float64(2), data["expiredItemsHidden"])
		assert.NotEmpty(t, data["summary"])
	})

	t.Run("view flush", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ctrl.FlushViews(rr, httptest.NewRequest(http.MethodPost, "/jobs/flush-views", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		data, _ := decodeEnvelope(t, rr)
		assert.Equal(t, float64(4), data["memorials"])
		assert.Equal(t, float64(17), data["views"])
	})
}

// fakeMemorialService implements domain.MemorialService for the public page test.
type fakeMemorialService struct {
	bySlug map[string]*domain.Memorial
}

func (f *fakeMemorialService) Create(ctx context.Context, m *domain.Memorial) error { return nil }
func (f *fakeMemorialService) GetByID(ctx context.Context, id, callerID string) (*domain.Memorial, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeMemorialService) GetPublishedBySlug(ctx context.Context, slug string) (*domain.Memorial, error) {
	m, ok := f.bySlug[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}
func (f *fakeMemorialService) ListOwn(ctx context.Context, ownerID string) ([]*domain.Memorial, error) {
	return nil, nil
}
func (f *fakeMemorialService) Update(ctx context.Context, id, callerID string, upd domain.MemorialUpdate) (*domain.Memorial, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeMemorialService) SubmitForReview(ctx context.Context, id, callerID string) (*domain.Memorial, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeMemorialService) Archive(ctx context.Context, id, callerID string) error {
	return domain.ErrNotFound
}

// fakeCandleService implements domain.CandleService.
type fakeCandleService struct{ candles []*domain.Candle }

func (f *fakeCandleService) Light(ctx context.Context, memorialID, name, email, message string, durationHours int) (*domain.Candle, error) {
	c := &domain.Candle{ID: "candle-1", MemorialID: memorialID, Name: name, Message: message, DurationH: durationHours, ExpiresAt: time.Now().Add(time.Duration(durationHours) * time.Hour)}
	f.candles = append(f.candles, c)
	return c, nil
}

func (f *fakeCandleService) ListActive(ctx context.Context, memorialID string) ([]*domain.Candle, error) {
	return f.candles, nil
}

// fakeViews implements domain.ViewCounter.
type fakeViews struct{ recorded []string }

func (f *fakeViews) Record(ctx context.Context, memorialID string) error {
	f.recorded = append(f.recorded, memorialID)
	return nil
}

func (f *fakeViews) Drain(ctx context.Context) (map[string]int64, error) { return nil, nil }

func TestGetPublicBySlug(t *testing.T) {
	views := &fakeViews{}
	ctrl := NewMemorialController(testLogger(), &fakeMemorialService{
		bySlug: map[string]*domain.Memorial{
			"anna-mueller-abc123": {ID: "mem-1", Slug: "anna-mueller-abc123", IsPublished: true},
		},
	}, &fakeCandleService{}, views)

	t.Run("published page resolves and records a view", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/m/anna-mueller-abc123", nil)
		req.SetPathValue("slug", "anna-mueller-abc123")
		rr := httptest.NewRecorder()

		ctrl.GetPublicBySlug(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"mem-1"}, views.recorded)
	})

	t.Run("unknown slug is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/m/missing", nil)
		req.SetPathValue("slug", "missing")
		rr := httptest.NewRecorder()

		ctrl.GetPublicBySlug(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		_, apiErr := decodeEnvelope(t, rr)
		require.NotNil(t, apiErr)
		assert.Equal(t, helpers.ErrCodeNotFound, apiErr.Code)
	})
}
