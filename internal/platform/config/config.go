package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean. Zero values mean "not configured" for the optional backends
// (postgres, redis, kafka) and the service falls back to in-process
// equivalents.
type Config struct {
	Addr string

	DatabaseURL string
	RedisURL    string

	KafkaBrokers []string
	AuditTopic   string

	// WebhookKey is the shared secret presented by the identity provider on
	// pending-record pushes.
	WebhookKey string

	// JWTSigningKey signs operator and surface API tokens.
	JWTSigningKey string
	JWTIssuer     string

	RosterURL    string
	RosterAPIKey string

	// SurfaceURL and SurfaceToken locate and authenticate against the
	// command/notification surface gateway.
	SurfaceURL   string
	SurfaceToken string
	// RosterCacheTTL bounds how stale a cached roster list may be.
	RosterCacheTTL time.Duration

	// LoginURL is the external login endpoint the login path links to,
	// parameterized with ?id=<identity>.
	LoginURL string

	Roles RoleConfig
}

// RoleConfig names the access roles the engine grants and revokes.
type RoleConfig struct {
	Member    string
	Undergrad string
	Postgrad  string
	NonMember string
	OldMember string
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("GATEHOUSE_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		AuditTopic:     envOr("AUDIT_TOPIC", "gatehouse.audit"),
		WebhookKey:     os.Getenv("WEBHOOK_KEY"),
		JWTSigningKey:  envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      envOr("JWT_ISSUER", "gatehouse"),
		RosterURL:      os.Getenv("ROSTER_URL"),
		RosterAPIKey:   os.Getenv("ROSTER_API_KEY"),
		SurfaceURL:     os.Getenv("SURFACE_URL"),
		SurfaceToken:   os.Getenv("SURFACE_TOKEN"),
		RosterCacheTTL: envDuration("ROSTER_CACHE_TTL", 5*time.Minute),
		LoginURL:       envOr("LOGIN_URL", "https://example.org/verify"),
		Roles: RoleConfig{
			Member:    envOr("ROLE_MEMBER", "member"),
			Undergrad: envOr("ROLE_FRESHER_UG", "fresher-undergraduate"),
			Postgrad:  envOr("ROLE_FRESHER_PG", "fresher-postgraduate"),
			NonMember: envOr("ROLE_NON_MEMBER", "non-member"),
			OldMember: envOr("ROLE_OLD_MEMBER", "old-member"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Accept bare seconds as well, matching older deployments.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
