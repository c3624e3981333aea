package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"impact/internal/credential"
	"impact/internal/identity/models"
	identityservice "impact/internal/identity/service"
	"impact/internal/identity/store/confirmation"
	memberstore "impact/internal/identity/store/member"
	"impact/internal/jwttoken"
	"impact/pkg/testutil"
)

type nullSender struct{}

func (nullSender) SendWelcome(_, _, _, _, _, _ string) error { return nil }
func (nullSender) SendConfirmation(_, _, _ string) error     { return nil }
func (nullSender) SendCard(_, _, _ string) error             { return nil }

type nullQR struct{}

func (nullQR) Render(cardID string) (string, error) { return cardID + ".png", nil }

type IdentityHandlerSuite struct {
	suite.Suite
	router  chi.Router
	members *memberstore.InMemoryStore
	service *identityservice.Service
}

func TestIdentityHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentityHandlerSuite))
}

func (s *IdentityHandlerSuite) SetupTest() {
	s.members = memberstore.NewInMemoryStore()
	jwt := jwttoken.NewJWTService("test-key", "impact-test", "impact-clients")
	s.service = identityservice.New(s.members, confirmation.NewInMemoryStore(), jwt, nullSender{}, nullQR{},
		identityservice.Config{CardIDLength: 12, SessionTTL: time.Hour, UnconfirmedTTL: 6 * time.Hour})

	h := New(s.service, slog.Default())
	s.router = chi.NewRouter()
	h.Register(s.router)
	// The auth middleware normally guards these; tests stamp the caller
	// identity directly onto the request context.
	h.RegisterProtected(s.router)
}

func (s *IdentityHandlerSuite) TestLogin() {
	ctx := context.Background()
	m, err := s.service.AddMember(ctx, identityservice.AddMemberInput{
		Name:    "Eva",
		Surname: "Brandt",
		Email:   "eva@example.com",
		Role:    models.RoleMember,
	})
	s.Require().NoError(err)

	hash, err := credential.HashPassword("s3cret-pass")
	s.Require().NoError(err)
	m.PasswordHash = hash
	s.Require().NoError(s.members.Update(ctx, m))

	s.Run("valid credentials return a bearer token", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/login/username",
			map[string]string{"username": "eva@example.com", "password": "s3cret-pass"})
		req = testutil.WithRequestID(req, "req-login-1")
		req = testutil.WithClientMetadata(req, "10.0.0.9",
			"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "token_type", "Bearer")
		testutil.AssertJSONHasKey(s.T(), rr, "access_token")

		found, err := s.members.FindByCardID(ctx, m.CardID)
		s.Require().NoError(err)
		s.Require().NotNil(found.LastLoginDevice)
		s.Contains(*found.LastLoginDevice, "Firefox")
	})

	s.Run("wrong password is unauthorized", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/login/username",
			map[string]string{"username": "eva@example.com", "password": "wrong"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("blank username is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/login/username",
			map[string]string{"username": "  ", "password": "s3cret-pass"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *IdentityHandlerSuite) TestSignupValidation() {
	s.Run("short password is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/signup",
			map[string]string{"email": "a@example.com", "password": "short"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("valid signup is accepted", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/signup",
			map[string]string{"email": "a@example.com", "password": "long-enough-pass"}))
		testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
		testutil.AssertJSONContains(s.T(), rr, "activated", false)
	})

	s.Run("invalid email is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/signup",
			map[string]string{"email": "not-an-email", "password": "long-enough-pass"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *IdentityHandlerSuite) TestAddMemberAuthorization() {
	payload := map[string]any{
		"name":    "Anna",
		"surname": "Keller",
		"email":   "anna@example.com",
		"role":    "member",
	}

	s.Run("member role may not create accounts", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/add", payload)
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, "caller-1", "member"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("missing role is treated as forbidden", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/add", payload))
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("admin creates a member", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/add", payload)
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, "admin-1", "admin"))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "activated", true)
		testutil.AssertJSONHasKey(s.T(), rr, "card_id")
	})

	s.Run("duplicate email surfaces as a conflict", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/add", payload)
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, "admin-1", "admin"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("invalid role in the payload is rejected", func() {
		bad := map[string]any{
			"name": "B", "surname": "C", "email": "b@example.com", "role": "emperor",
		}
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/add", bad)
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, "admin-1", "admin"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *IdentityHandlerSuite) TestGetMember() {
	s.Run("unknown card id", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/members/ghost")
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, "caller-1", "member"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "not_found")
	})
}
