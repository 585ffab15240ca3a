package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gedenkseiten/internal/domain"
)

// fakeMemorialRepo implements domain.MemorialRepository for tests.
type fakeMemorialRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Memorial
	getErr    error
	updateErr error

	unpublished  []string
	noticeStages map[string]int
	viewsAdded   map[string]int64
}

func newFakeMemorialRepo() *fakeMemorialRepo {
	return &fakeMemorialRepo{
		byID:         make(map[string]*domain.Memorial),
		noticeStages: make(map[string]int),
		viewsAdded:   make(map[string]int64),
	}
}

func (f *fakeMemorialRepo) put(m *domain.Memorial) {
	cp := *m
	f.byID[m.ID] = &cp
}

func (f *fakeMemorialRepo) Create(ctx context.Context, m *domain.Memorial) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		m.ID = fmt.Sprintf("mem-%d", len(f.byID)+1)
	}
	if m.Version == 0 {
		m.Version = 1
	}
	f.put(m)
	return nil
}

func (f *fakeMemorialRepo) GetByID(ctx context.Context, id string) (*domain.Memorial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemorialRepo) GetBySlug(ctx context.Context, slug string) (*domain.Memorial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.byID {
		if m.Slug == slug {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMemorialRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Memorial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Memorial
	for _, m := range f.byID {
		if m.OwnerID == ownerID && m.ArchivedAt == nil {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMemorialRepo) ListByModerationStatus(ctx context.Context, status domain.ModerationStatus, params domain.PaginationParams) ([]*domain.Memorial, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Memorial
	for _, m := range f.byID {
		if m.ModerationStatus == status && m.ArchivedAt == nil {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (f *fakeMemorialRepo) Update(ctx context.Context, id string, upd domain.MemorialUpdate) (*domain.Memorial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	m, ok := f.byID[id]
	if !ok || m.ArchivedAt != nil {
		return nil, domain.ErrNotFound
	}
	if upd.FirstName != nil {
		m.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		m.LastName = *upd.LastName
	}
	if upd.Blocks != nil {
		m.Blocks = upd.Blocks
	}
	m.Version++
	cp := *m
	return &cp, nil
}

func (f *fakeMemorialRepo) SetModerationStatus(ctx context.Context, id string, version int, status domain.ModerationStatus, publishedAt *time.Time) (*domain.Memorial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	m, ok := f.byID[id]
	if !ok || m.ArchivedAt != nil {
		return nil, domain.ErrNotFound
	}
	if m.Version != version {
		return nil, domain.ErrConflict
	}
	m.ModerationStatus = status
	if publishedAt != nil {
		m.IsPublished = true
		m.PublishedAt = publishedAt
		m.NoticeStage = domain.NoticeStageNone
	}
	m.Version++
	cp := *m
	return &cp, nil
}

func (f *fakeMemorialRepo) SetPublished(ctx context.Context, id string, published bool) (*domain.Memorial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok || m.ArchivedAt != nil {
		return nil, domain.ErrNotFound
	}
	m.IsPublished = published
	m.Version++
	cp := *m
	return &cp, nil
}

func (f *fakeMemorialRepo) Publish(ctx context.Context, id string, publishedAt time.Time, publishedUntil *time.Time, payment domain.PaymentStatus) (*domain.Memorial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok || m.ArchivedAt != nil {
		return nil, domain.ErrNotFound
	}
	m.IsPublished = true
	m.PublishedAt = &publishedAt
	m.PublishedUntil = publishedUntil
	m.PaymentStatus = payment
	m.NoticeStage = domain.NoticeStageNone
	m.Version++
	cp := *m
	return &cp, nil
}

func (f *fakeMemorialRepo) Archive(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok || m.ArchivedAt != nil {
		return domain.ErrNotFound
	}
	m.ArchivedAt = &at
	m.IsPublished = false
	return nil
}

func (f *fakeMemorialRepo) ListExpiringBefore(ctx context.Context, to time.Time) ([]*domain.Memorial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Memorial
	for _, m := range f.byID {
		if m.IsPublished && m.ArchivedAt == nil && m.PublishedUntil != nil && !m.PublishedUntil.After(to) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMemorialRepo) Unpublish(ctx context.Context, id string, noticeStage int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.IsPublished = false
	m.NoticeStage = noticeStage
	f.unpublished = append(f.unpublished, id)
	return nil
}

func (f *fakeMemorialRepo) SetNoticeStage(ctx context.Context, id string, stage int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.NoticeStage = stage
	f.noticeStages[id] = stage
	return nil
}

func (f *fakeMemorialRepo) AddViews(ctx context.Context, id string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewsAdded[id] += delta
	if m, ok := f.byID[id]; ok {
		m.ViewCount += delta
	}
	return nil
}

// dispatchedNotice records one fakeDispatcher call.
type dispatchedNotice struct {
	UserID string
	Type   domain.NotificationType
	Data   map[string]any
}

// fakeDispatcher implements domain.NotificationDispatcher for tests.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchedNotice
	err   error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, userID string, typ domain.NotificationType, data map[string]any, scheduleFor *time.Time) (*domain.DispatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, dispatchedNotice{UserID: userID, Type: typ, Data: data})
	return &domain.DispatchResult{
		NotificationID: fmt.Sprintf("notif-%d", len(f.calls)),
		EmailQueueID:   fmt.Sprintf("email-%d", len(f.calls)),
	}, nil
}

func (f *fakeDispatcher) byType(typ domain.NotificationType) []dispatchedNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dispatchedNotice
	for _, c := range f.calls {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	byID     map[string]*domain.User
	adminIDs []string
	getErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(f.byID)+1)
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) ListAdminIDs(ctx context.Context) ([]string, error) {
	return f.adminIDs, nil
}

// fakeOrderRepo implements domain.OrderRepository for tests.
type fakeOrderRepo struct {
	byID      map[string]*domain.Order
	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{byID: make(map[string]*domain.Order)}
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	if o.ID == "" {
		o.ID = fmt.Sprintf("order-%d", len(f.byID)+1)
	}
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	for _, o := range f.byID {
		if o.CheckoutSessionID == sessionID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (f *fakeOrderRepo) SetCheckoutSessionID(ctx context.Context, id, sessionID string) error {
	o, ok := f.byID[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.CheckoutSessionID = sessionID
	return nil
}

func (f *fakeOrderRepo) MarkPaid(ctx context.Context, id string, at time.Time) error {
	o, ok := f.byID[id]
	if !ok || o.Status != domain.OrderPending {
		return domain.ErrOrderNotFound
	}
	o.Status = domain.OrderPaid
	o.PaidAt = &at
	return nil
}

// fakeCheckout implements domain.CheckoutProvider for tests.
type fakeCheckout struct {
	sessions  map[string]*domain.CheckoutSession
	createErr error
	getErr    error
	nextID    int
}

func newFakeCheckout() *fakeCheckout {
	return &fakeCheckout{sessions: make(map[string]*domain.CheckoutSession)}
}

func (f *fakeCheckout) CreateSession(ctx context.Context, req domain.CreateCheckoutRequest) (*domain.CheckoutSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	s := &domain.CheckoutSession{
		ID:          fmt.Sprintf("cs_%d", f.nextID),
		RedirectURL: "https://pay.example.org/cs_" + fmt.Sprint(f.nextID),
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeCheckout) GetSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, errors.New("session not found")
	}
	cp := *s
	return &cp, nil
}

// fakeQueueRepo implements domain.EmailQueueRepository for tests.
type fakeQueueRepo struct {
	due      []*domain.QueuedEmail
	attempts map[string]int
	sent     []string
	failures map[string]string
	statuses map[string]domain.EmailStatus
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{
		attempts: make(map[string]int),
		failures: make(map[string]string),
		statuses: make(map[string]domain.EmailStatus),
	}
}

func (f *fakeQueueRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.QueuedEmail, error) {
	if len(f.due) > limit {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeQueueRepo) RecordAttempt(ctx context.Context, id string, at time.Time) error {
	f.attempts[id]++
	return nil
}

func (f *fakeQueueRepo) MarkSent(ctx context.Context, id string) error {
	f.sent = append(f.sent, id)
	f.statuses[id] = domain.EmailSent
	return nil
}

func (f *fakeQueueRepo) MarkFailure(ctx context.Context, id string, attempts int, sendErr string) error {
	f.failures[id] = sendErr
	if attempts >= domain.MaxEmailAttempts {
		f.statuses[id] = domain.EmailFailed
	} else {
		f.statuses[id] = domain.EmailPending
	}
	return nil
}

// fakeNotificationRepo implements domain.NotificationRepository for tests.
type fakeNotificationRepo struct {
	created    []*domain.Notification
	emails     []*domain.QueuedEmail
	emailsSent []string
	createErr  error
}

func (f *fakeNotificationRepo) CreateWithEmail(ctx context.Context, n *domain.Notification, e *domain.QueuedEmail) error {
	if f.createErr != nil {
		return f.createErr
	}
	if n.ID == "" {
		n.ID = fmt.Sprintf("notif-%d", len(f.created)+1)
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("email-%d", len(f.emails)+1)
	}
	e.NotificationID = n.ID
	f.created = append(f.created, n)
	f.emails = append(f.emails, e)
	return nil
}

func (f *fakeNotificationRepo) ListByUserID(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Notification, int, error) {
	var out []*domain.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	for _, n := range f.created {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeNotificationRepo) MarkEmailSent(ctx context.Context, id string) error {
	f.emailsSent = append(f.emailsSent, id)
	return nil
}

// fakeTemplateRepo implements domain.EmailTemplateRepository for tests.
type fakeTemplateRepo struct {
	byName map[string]*domain.EmailTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{byName: make(map[string]*domain.EmailTemplate)}
}

func (f *fakeTemplateRepo) GetActiveByName(ctx context.Context, name string) (*domain.EmailTemplate, error) {
	t, ok := f.byName[name]
	if !ok {
		return nil, fmt.Errorf("template %q: %w", name, domain.ErrTemplateMissing)
	}
	return t, nil
}

// fakeMailer implements domain.Mailer for tests.
type fakeMailer struct {
	sent    []string // recipient addresses
	sendErr error
}

func (f *fakeMailer) Send(to, subject, html, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, to)
	return nil
}

// fakeRenderer implements domain.TemplateRenderer with naive substitution.
type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(tpl *domain.EmailTemplate, data map[string]any) (string, string, string, error) {
	if f.err != nil {
		return "", "", "", f.err
	}
	sub := func(s string) string {
		for k, v := range data {
			s = strings.ReplaceAll(s, "{{"+k+"}}", fmt.Sprint(v))
		}
		return s
	}
	return sub(tpl.Subject), sub(tpl.HTMLBody), sub(tpl.TextBody), nil
}

// fakeCandleRepo implements domain.CandleRepository for tests.
type fakeCandleRepo struct {
	candles   []*domain.Candle
	createErr error
}

func (f *fakeCandleRepo) Create(ctx context.Context, c *domain.Candle) error {
	if f.createErr != nil {
		return f.createErr
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("candle-%d", len(f.candles)+1)
	}
	cp := *c
	f.candles = append(f.candles, &cp)
	return nil
}

func (f *fakeCandleRepo) ListActiveByMemorialID(ctx context.Context, memorialID string, now time.Time) ([]*domain.Candle, error) {
	var out []*domain.Candle
	for _, c := range f.candles {
		if c.MemorialID == memorialID && c.Burning(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeCandleRepo) CountActiveByMemorialID(ctx context.Context, memorialID string, now time.Time) (int, error) {
	list, err := f.ListActiveByMemorialID(ctx, memorialID, now)
	return len(list), err
}

// fakeViewCounter implements domain.ViewCounter for tests.
type fakeViewCounter struct {
	counts   map[string]int64
	drainErr error
}

func (f *fakeViewCounter) Record(ctx context.Context, memorialID string) error {
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[memorialID]++
	return nil
}

func (f *fakeViewCounter) Drain(ctx context.Context) (map[string]int64, error) {
	if f.drainErr != nil {
		return nil, f.drainErr
	}
	out := f.counts
	f.counts = make(map[string]int64)
	return out, nil
}
