package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the explicit process configuration. It is built once in main and
// passed by reference to every component that needs it; nothing reads the
// environment after startup.
type Config struct {
	Server Server
	Stores Stores
	Redis  Redis
	Auth   Auth
	Issuer Issuer
	Email  Email
	Events Events
	Root   Root

	// UnconfirmedTTL bounds how long a signed-up member may stay unconfirmed
	// before the sweep deletes it. UnconfirmedSweepEvery is the sweep period.
	UnconfirmedTTL        time.Duration
	UnconfirmedSweepEvery time.Duration
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
}

// Stores holds the two independent database URLs. The identity/ledger store
// and the check-in audit store never share a transaction, so they never share
// a connection string either.
type Stores struct {
	IdentityURL string
	AuditURL    string
}

// Redis configures the optional confirmation-token backend.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Auth configures session token issuance.
type Auth struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	SessionTTL    time.Duration
}

// Issuer configures card credential generation.
type Issuer struct {
	CardIDLength    int
	QROutputDir     string
	InitialPassword int // length of generated initial passwords
}

// Email configures SMTP delivery of welcome and confirmation mail.
type Email struct {
	Enabled  bool
	Host     string
	Port     int
	From     string
	Password string
	BaseURL  string // confirmation links are BaseURL + /members/confirm/{token}
}

// Events configures the optional Kafka door-event publisher. Empty brokers
// disables publishing entirely.
type Events struct {
	Brokers []string
	Topic   string
}

// Root holds the bootstrap account created when the member table is empty.
type Root struct {
	Name     string
	Surname  string
	Email    string
	Username string
	Password string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:           envOr("IMPACT_ADDR", ":8080"),
			RequestTimeout: envDuration("IMPACT_REQUEST_TIMEOUT", 30*time.Second),
		},
		Stores: Stores{
			IdentityURL: os.Getenv("IMPACT_IDENTITY_DB_URL"),
			AuditURL:    os.Getenv("IMPACT_AUDIT_DB_URL"),
		},
		Redis: Redis{
			URL:          os.Getenv("IMPACT_REDIS_URL"),
			PoolSize:     envInt("IMPACT_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("IMPACT_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Auth: Auth{
			// Default only suits development; override in production.
			JWTSigningKey: envOr("IMPACT_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     envOr("IMPACT_JWT_ISSUER", "impact-backend"),
			JWTAudience:   envOr("IMPACT_JWT_AUDIENCE", "impact-clients"),
			SessionTTL:    envDuration("IMPACT_SESSION_TTL", 12*time.Hour),
		},
		Issuer: Issuer{
			CardIDLength:    envInt("IMPACT_CARD_ID_LEN", 12),
			QROutputDir:     envOr("IMPACT_QR_DIR", "qr_codes"),
			InitialPassword: envInt("IMPACT_PASSWORD_DEFAULT_LEN", 12),
		},
		Email: Email{
			Enabled:  os.Getenv("IMPACT_SEND_WELCOME_EMAIL") == "true",
			Host:     envOr("IMPACT_SMTP_HOST", "smtp.gmail.com"),
			Port:     envInt("IMPACT_SMTP_PORT", 465),
			From:     os.Getenv("IMPACT_EMAIL_FROM"),
			Password: os.Getenv("IMPACT_EMAIL_APP_PASS"),
			BaseURL:  envOr("IMPACT_BACKEND_ADDRESS", "http://localhost:8080"),
		},
		Events: Events{
			Brokers: splitNonEmpty(os.Getenv("IMPACT_KAFKA_BROKERS")),
			Topic:   envOr("IMPACT_KAFKA_TOPIC", "impact.door-events"),
		},
		Root: Root{
			Name:     envOr("IMPACT_ROOT_NAME", "Root"),
			Surname:  envOr("IMPACT_ROOT_SURNAME", "Admin"),
			Email:    envOr("IMPACT_ROOT_EMAIL", "root@localhost"),
			Username: envOr("IMPACT_ROOT_LOGIN", "root"),
			Password: envOr("IMPACT_ROOT_PASS", "change-me-now"),
		},
		UnconfirmedTTL:        envDuration("IMPACT_UNCONFIRMED_TTL", 6*time.Hour),
		UnconfirmedSweepEvery: envDuration("IMPACT_UNCONFIRMED_SWEEP", 6*time.Hour),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
