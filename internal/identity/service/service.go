// Package service implements member lifecycle: login, admin member
// creation, self-service signup with email confirmation, and the periodic
// sweep of stale unconfirmed accounts.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"impact/internal/credential"
	"impact/internal/identity/lockout"
	"impact/internal/identity/models"
	"impact/internal/identity/store/confirmation"
	"impact/internal/identity/store/member"
	"impact/internal/jwttoken"
	"impact/internal/platform/metrics"
	dErrors "impact/pkg/domain-errors"
	"impact/pkg/email"
	"impact/pkg/platform/sentinel"
	"impact/pkg/requestcontext"
)

const generatedPasswordLength = 12

// cardIDInsertAttempts bounds the generate-and-insert loop in
// createWithFreshCardID. Each retry means a generated card id raced another
// insert between the existence probe and the INSERT.
const cardIDInsertAttempts = 3

type EmailSender interface {
	SendWelcome(to, name, surname, username, password, qrPath string) error
	SendConfirmation(to, name, token string) error
	SendCard(to, name, qrPath string) error
}

type QRRenderer interface {
	Render(cardID string) (string, error)
}

// Config carries the knobs the identity flows need.
type Config struct {
	CardIDLength   int
	SessionTTL     time.Duration
	UnconfirmedTTL time.Duration
}

// Service orchestrates member accounts.
type Service struct {
	members       member.Store
	confirmations confirmation.Store
	jwt           *jwttoken.JWTService
	emails        EmailSender
	qr            QRRenderer
	cfg           Config
	lockout       *lockout.Guard
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLockout enables failed-login throttling. Without it every attempt
// goes straight to password verification.
func WithLockout(g *lockout.Guard) Option {
	return func(s *Service) {
		s.lockout = g
	}
}

// New constructs a Service.
func New(members member.Store, confirmations confirmation.Store, jwt *jwttoken.JWTService, emails EmailSender, qr QRRenderer, cfg Config, opts ...Option) *Service {
	s := &Service{
		members:       members,
		confirmations: confirmations,
		jwt:           jwt,
		emails:        emails,
		qr:            qr,
		cfg:           cfg,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token  string
	Member *models.Member
}

// Login authenticates by username and password. Wrong username and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if err := s.lockout.Check(ctx, username); err != nil {
		return nil, err
	}

	m, err := s.members.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.noteLoginFailure(ctx, username)
			return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong username or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}

	ok, err := credential.VerifyPassword(password, m.PasswordHash)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	if !ok {
		s.noteLoginFailure(ctx, username)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "wrong username or password")
	}
	if !m.Activated {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is not confirmed yet")
	}

	if err := s.lockout.Reset(ctx, username); err != nil {
		s.logger.WarnContext(ctx, "failed to reset login lockout",
			"member_card_id", m.CardID,
			"error", err,
		)
	}

	token, err := s.jwt.GenerateAccessToken(m.CardID, m.Role, s.cfg.SessionTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	if label := deviceLabel(requestcontext.UserAgent(ctx)); label != "" {
		if err := s.members.RecordLogin(ctx, m.CardID, label); err != nil {
			s.logger.WarnContext(ctx, "failed to record login device",
				"member_card_id", m.CardID,
				"error", err,
			)
		} else {
			m.LastLoginDevice = &label
		}
	}

	s.logger.InfoContext(ctx, "member logged in",
		"request_id", requestcontext.RequestID(ctx),
		"member_card_id", m.CardID,
	)
	return &LoginResult{Token: token, Member: m}, nil
}

// noteLoginFailure feeds the lockout counter. Bookkeeping failures must
// not mask the authentication error.
func (s *Service) noteLoginFailure(ctx context.Context, username string) {
	if err := s.lockout.NoteFailure(ctx, username); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
	}
}

// AddMemberInput carries the admin member-creation fields.
type AddMemberInput struct {
	Name             string
	Surname          string
	Email            string
	Username         string
	PhoneNumber      *string
	DateOfBirth      *time.Time
	Role             models.Role
	SendWelcomeEmail bool
}

// createWithFreshCardID generates a card id, builds the member through
// build, and inserts it. A card id collision at insert time is absorbed by
// regenerating and inserting again; every other error comes back unchanged
// so the call sites keep their own conflict messages.
func (s *Service) createWithFreshCardID(ctx context.Context, build func(cardID string) (*models.Member, error)) (*models.Member, error) {
	for attempt := 1; attempt <= cardIDInsertAttempts; attempt++ {
		cardID, err := credential.GenerateCardID(ctx, s.members, s.cfg.CardIDLength)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate card id")
		}
		m, err := build(cardID)
		if err != nil {
			return nil, err
		}
		err = s.members.Create(ctx, m)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, member.ErrCardIDTaken) {
			return nil, err
		}
		s.logger.WarnContext(ctx, "card id collided at insert, regenerating",
			"attempt", attempt,
		)
	}
	return nil, dErrors.New(dErrors.CodeInternal, "could not allocate a unique card id")
}

// AddMember creates an activated member with a generated password and a
// fresh card id, renders the card QR, and mails the credentials. Email
// delivery is best effort; the account exists either way.
func (s *Service) AddMember(ctx context.Context, in AddMemberInput) (*models.Member, error) {
	if _, err := s.members.FindByEmail(ctx, in.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "member with given email already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}

	password, err := credential.RandomString(generatedPasswordLength)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate password")
	}
	hash, err := credential.HashPassword(password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = strings.ToLower(strings.TrimSpace(in.Email))
	}

	m, err := s.createWithFreshCardID(ctx, func(cardID string) (*models.Member, error) {
		m, err := models.NewMember(cardID, in.Name, in.Surname, in.Email, username, hash, in.Role, requestcontext.Now(ctx))
		if err != nil {
			return nil, err
		}
		m.PhoneNumber = in.PhoneNumber
		m.DateOfBirth = in.DateOfBirth
		m.Activated = true
		return m, nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email or username already registered")
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
	}
	cardID := m.CardID

	qrPath, err := s.qr.Render(cardID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to render card QR",
			"member_card_id", cardID,
			"error", err,
		)
	} else if in.SendWelcomeEmail {
		if err := s.emails.SendWelcome(m.Email, m.Name, m.Surname, m.Username, password, qrPath); err != nil {
			s.logger.ErrorContext(ctx, "failed to send welcome email",
				"member_card_id", cardID,
				"error", err,
			)
		}
	}

	s.logger.InfoContext(ctx, "member created",
		"request_id", requestcontext.RequestID(ctx),
		"member_card_id", cardID,
		"role", m.Role,
	)
	s.metrics.IncrementMembersCreated()
	return m, nil
}

// GetMember returns a member by card id.
func (s *Service) GetMember(ctx context.Context, cardID string) (*models.Member, error) {
	m, err := s.members.FindByCardID(ctx, cardID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return m, nil
}

// SignupInput carries the self-service registration fields.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Surname  string
	Username string
}

// Signup registers an unactivated member and mails a confirmation link.
// Signing up again with an unconfirmed email refreshes the token instead of
// failing.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.Member, error) {
	existing, err := s.members.FindByEmail(ctx, in.Email)
	switch {
	case err == nil && existing.Activated:
		return nil, dErrors.New(dErrors.CodeConflict, "email already registered and confirmed")
	case err == nil:
		return existing, s.issueConfirmation(ctx, existing)
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}

	hash, err := credential.HashPassword(in.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	name, surname := in.Name, in.Surname
	if strings.TrimSpace(name) == "" {
		name, surname = email.DeriveNameFromEmail(in.Email)
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = strings.ToLower(strings.TrimSpace(in.Email))
	}

	now := requestcontext.Now(ctx)
	m, err := s.createWithFreshCardID(ctx, func(cardID string) (*models.Member, error) {
		m, err := models.NewMember(cardID, name, surname, in.Email, username, hash, models.RoleMember, now)
		if err != nil {
			return nil, err
		}
		expires := now.Add(s.cfg.UnconfirmedTTL)
		m.ConfirmExpiresAt = &expires
		return m, nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email or username already registered")
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
	}

	if err := s.issueConfirmation(ctx, m); err != nil {
		return nil, err
	}
	s.metrics.IncrementMembersCreated()
	return m, nil
}

func (s *Service) issueConfirmation(ctx context.Context, m *models.Member) error {
	token, err := credential.GenerateToken()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate confirmation token")
	}
	if err := s.confirmations.Put(ctx, token, m.CardID, s.cfg.UnconfirmedTTL); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store confirmation token")
	}
	if err := s.emails.SendConfirmation(m.Email, m.Name, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to send confirmation email",
			"member_card_id", m.CardID,
			"error", err,
		)
	}
	return nil
}

// Confirm activates the account behind a confirmation token and mails the
// membership card.
func (s *Service) Confirm(ctx context.Context, token string) (*models.Member, error) {
	cardID, err := s.confirmations.Consume(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrExpired):
			return nil, dErrors.New(dErrors.CodeBadRequest, "confirmation token has expired")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown confirmation token")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume confirmation token")
		}
	}

	if err := s.members.Activate(ctx, cardID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to activate member")
	}
	m, err := s.GetMember(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if qrPath, err := s.qr.Render(cardID); err != nil {
		s.logger.ErrorContext(ctx, "failed to render card QR",
			"member_card_id", cardID,
			"error", err,
		)
	} else if err := s.emails.SendCard(m.Email, m.Name, qrPath); err != nil {
		s.logger.ErrorContext(ctx, "failed to send card email",
			"member_card_id", cardID,
			"error", err,
		)
	}

	s.logger.InfoContext(ctx, "member confirmed",
		"request_id", requestcontext.RequestID(ctx),
		"member_card_id", cardID,
	)
	return m, nil
}

// EnsureRoot creates the root account on first boot.
func (s *Service) EnsureRoot(ctx context.Context, name, surname, emailAddr, username, password string) error {
	exists, err := s.members.HasRole(ctx, models.RoleRoot)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for root member")
	}
	if exists {
		return nil
	}

	hash, err := credential.HashPassword(password)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash root password")
	}
	m, err := s.createWithFreshCardID(ctx, func(cardID string) (*models.Member, error) {
		m, err := models.NewMember(cardID, name, surname, emailAddr, username, hash, models.RoleRoot, time.Now())
		if err != nil {
			return nil, err
		}
		m.Activated = true
		return m, nil
	})
	if err != nil {
		// A concurrent boot already created it.
		if errors.Is(err, sentinel.ErrConflict) {
			return nil
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create root member")
	}
	s.logger.Info("root member created", "member_card_id", m.CardID)
	return nil
}

// SweepUnconfirmed deletes unactivated members whose confirmation window
// has lapsed. Returns the number of rows removed.
func (s *Service) SweepUnconfirmed(ctx context.Context) (int64, error) {
	removed, err := s.members.DeleteUnconfirmedBefore(ctx, time.Now())
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sweep unconfirmed members")
	}
	if removed > 0 {
		s.logger.Info("unconfirmed members swept", "removed", removed)
	}
	return removed, nil
}

// deviceLabel condenses a raw User-Agent into a short human-readable label.
func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	os := ua.OS()
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "unknown device"
	}
}
