// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (MCADMIN_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework-level settings: ports, TLS, log level, environment.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database shared with the pilgrim and moderator apps
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Admin session tokens
	JWTSecret string        // HS256 signing key; must be strong in production
	JWTTTL    time.Duration // token lifetime (default 24h)

	// Login rate limiting. An empty RedisURL keeps counters in process memory.
	RedisURL        string
	LoginRateLimit  int           // attempts per window per client IP
	LoginRateWindow time.Duration // window length, also sent as Retry-After

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable only when every request arrives through a proxy that
	// overwrites those headers.
	TrustProxyHeaders bool

	// CORS
	CORSOrigins []string // allowed origins; "*" allows any

	MetricsEnabled bool // serve /metrics and record Prometheus collectors

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Admin bootstrap. When AdminEmail is set, the account is created (or
	// promoted and reactivated) on startup.
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// Store operation timeouts; zero keeps the package defaults.
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
