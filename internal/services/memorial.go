package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"gedenkseiten/internal/domain"
)

type memorialService struct {
	memorialRepo   domain.MemorialRepository
	userRepo       domain.UserRepository
	dispatcher     domain.NotificationDispatcher
	logger         *slog.Logger
	baseURL        string
	contextTimeout time.Duration
	now            func() time.Time
}

// NewMemorialService returns the owner-facing memorial lifecycle service.
// baseURL is the public site root used to build page and review links.
func NewMemorialService(
	memorialRepo domain.MemorialRepository,
	userRepo domain.UserRepository,
	dispatcher domain.NotificationDispatcher,
	logger *slog.Logger,
	baseURL string,
	timeout time.Duration,
) domain.MemorialService {
	return &memorialService{
		memorialRepo:   memorialRepo,
		userRepo:       userRepo,
		dispatcher:     dispatcher,
		logger:         logger,
		baseURL:        strings.TrimRight(baseURL, "/"),
		contextTimeout: timeout,
		now:            time.Now,
	}
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

const slugSuffixLength = 6

var slugAlphabet = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss").Replace(s)
	s = strings.Trim(slugUnsafe.ReplaceAllString(s, "-"), "-")
	if s == "" {
		s = "gedenkseite"
	}
	return s
}

func randomSlugSuffix() (string, error) {
	b := make([]rune, slugSuffixLength)
	max := big.NewInt(int64(len(slugAlphabet)))
	for i := 0; i < slugSuffixLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = slugAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (s *memorialService) Create(ctx context.Context, m *domain.Memorial) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if m.OwnerID == "" {
		return fmt.Errorf("memorial owner is required: %w", domain.ErrInvalidInput)
	}
	if m.Kind != domain.KindObituary && m.Kind != domain.KindMemorial {
		return fmt.Errorf("unknown memorial kind %q: %w", m.Kind, domain.ErrInvalidInput)
	}
	if m.LastName == "" && m.FirstName == "" {
		return fmt.Errorf("deceased name is required: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.ModerationStatus = domain.ModerationDraft
	m.PaymentStatus = domain.PaymentNone

	if m.Slug == "" {
		suffix, err := randomSlugSuffix()
		if err != nil {
			return fmt.Errorf("generate slug: %w", err)
		}
		m.Slug = slugify(m.DeceasedName()) + "-" + suffix
	}
	return s.memorialRepo.Create(ctx, m)
}

func (s *memorialService) GetByID(ctx context.Context, id, callerID string) (*domain.Memorial, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.memorialRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get memorial: %w", err)
	}
	if m.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	return m, nil
}

func (s *memorialService) GetPublishedBySlug(ctx context.Context, slug string) (*domain.Memorial, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.memorialRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get memorial by slug: %w", err)
	}
	// is_published is authoritative for public visibility.
	if !m.IsPublished || m.Archived() {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (s *memorialService) ListOwn(ctx context.Context, ownerID string) ([]*domain.Memorial, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.memorialRepo.ListByOwnerID(ctx, ownerID)
}

func (s *memorialService) Update(ctx context.Context, id, callerID string, upd domain.MemorialUpdate) (*domain.Memorial, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.GetByID(ctx, id, callerID); err != nil {
		return nil, err
	}
	m, err := s.memorialRepo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update memorial: %w", err)
	}
	return m, nil
}

// SubmitForReview moves the memorial into the moderation queue and tells the
// admins. The notification is best-effort: a dispatch failure never blocks
// the submission.
func (s *memorialService) SubmitForReview(ctx context.Context, id, callerID string) (*domain.Memorial, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.GetByID(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	updated, err := s.memorialRepo.SetModerationStatus(ctx, id, m.Version, domain.ModerationPending, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("submit for review: %w", err)
	}

	adminIDs, err := s.userRepo.ListAdminIDs(ctx)
	if err != nil {
		s.logger.Error("list admins for review notice failed", "memorial_id", id, "err", err)
		return updated, nil
	}
	data := map[string]any{
		"deceased_name": updated.DeceasedName(),
		"review_url":    s.baseURL + "/admin/memorials/" + updated.ID,
	}
	for _, adminID := range adminIDs {
		if _, err := s.dispatcher.Dispatch(ctx, adminID, domain.NotificationApprovalRequired, data, nil); err != nil {
			s.logger.Error("approval-required notification failed", "memorial_id", id, "admin_id", adminID, "err", err)
		}
	}
	return updated, nil
}

func (s *memorialService) Archive(ctx context.Context, id, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.GetByID(ctx, id, callerID); err != nil {
		return err
	}
	if err := s.memorialRepo.Archive(ctx, id, s.now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("archive memorial: %w", err)
	}
	return nil
}
