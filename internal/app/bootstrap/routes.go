// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	auditlogfeature "github.com/munawwara-care/mcadmin/internal/app/features/auditlog"
	errorsfeature "github.com/munawwara-care/mcadmin/internal/app/features/errors"
	groupsfeature "github.com/munawwara-care/mcadmin/internal/app/features/groups"
	healthfeature "github.com/munawwara-care/mcadmin/internal/app/features/health"
	homefeature "github.com/munawwara-care/mcadmin/internal/app/features/home"
	loginfeature "github.com/munawwara-care/mcadmin/internal/app/features/login"
	moderatorrequestsfeature "github.com/munawwara-care/mcadmin/internal/app/features/moderatorrequests"
	moderatorsfeature "github.com/munawwara-care/mcadmin/internal/app/features/moderators"
	statsfeature "github.com/munawwara-care/mcadmin/internal/app/features/stats"
	usersfeature "github.com/munawwara-care/mcadmin/internal/app/features/users"
	"github.com/munawwara-care/mcadmin/internal/app/store/audit"
	groupstore "github.com/munawwara-care/mcadmin/internal/app/store/groups"
	modrequeststore "github.com/munawwara-care/mcadmin/internal/app/store/modrequests"
	pilgrimstore "github.com/munawwara-care/mcadmin/internal/app/store/pilgrims"
	userstore "github.com/munawwara-care/mcadmin/internal/app/store/users"
	"github.com/munawwara-care/mcadmin/internal/app/system/auditlog"
	"github.com/munawwara-care/mcadmin/internal/app/system/auth"
	"github.com/munawwara-care/mcadmin/internal/app/system/metrics"
	"github.com/munawwara-care/mcadmin/internal/app/system/ratelimit"
	"github.com/munawwara-care/mcadmin/internal/app/system/txn"
	"github.com/munawwara-care/mcadmin/internal/app/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// apiDeps is everything the router needs. BuildHandler fills it from DBDeps;
// tests fill it from in-memory stores.
type apiDeps struct {
	Svc     *workflow.Service
	Gateway *auth.Gateway

	Limiter    ratelimit.Limiter
	RetryAfter time.Duration
	TrustProxy bool // rewrite RemoteAddr from forwarding headers

	AuditLog    *auditlog.Logger
	AuditEvents auditlogfeature.EventSource
	UserLookup  auditlogfeature.UserLookup

	Metrics *metrics.Metrics // nil disables /metrics

	DBPing    healthfeature.Pinger
	CachePing healthfeature.Pinger // optional

	CORSOrigins []string
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the Mongo stores into the
// approval workflow, builds the token gateway, and mounts the admin API
// under /api/admin with /, /health and /metrics alongside.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	users := userstore.New(db)

	gw, err := auth.NewGateway(appCfg.JWTSecret, appCfg.JWTTTL, users, logger)
	if err != nil {
		logger.Error("auth gateway init failed", zap.Error(err))
		return nil, err
	}

	var m *metrics.Metrics
	if appCfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	al := newAuditLogger(appCfg, deps, logger)

	svc := workflow.New(users, pilgrimstore.New(db), modrequeststore.New(db), groupstore.New(db), logger)
	svc.Tx = txn.New(deps.MongoClient, logger)
	svc.Audit = al
	svc.Metrics = m

	d := apiDeps{
		Svc:         svc,
		Gateway:     gw,
		Limiter:     deps.LoginLimiter,
		RetryAfter:  appCfg.LoginRateWindow,
		TrustProxy:  appCfg.TrustProxyHeaders,
		AuditLog:    al,
		AuditEvents: audit.New(db),
		UserLookup:  users,
		Metrics:     m,
		DBPing: healthfeature.PingerFunc(func(ctx context.Context) error {
			return deps.MongoClient.Ping(ctx, readpref.Primary())
		}),
		CORSOrigins: appCfg.CORSOrigins,
	}
	if deps.Redis != nil {
		d.CachePing = healthfeature.PingerFunc(func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		})
	}

	return newRouter(d, logger), nil
}

// newRouter assembles middleware and mounts every feature router.
func newRouter(d apiDeps, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(auditlog.Middleware)
	r.Use(d.Metrics.Middleware)

	// JSON envelopes for unmatched routes; set before mounting so
	// subrouters inherit them.
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(d.DBPing, d.CachePing, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Route("/api/admin", func(api chi.Router) {
		loginHandler := loginfeature.NewHandler(d.Gateway, d.Limiter, d.RetryAfter, d.AuditLog, d.Metrics, logger)
		api.Mount("/login", loginfeature.Routes(loginHandler))

		modsHandler := moderatorsfeature.NewHandler(d.Svc, logger)
		api.Mount("/moderators", moderatorsfeature.Routes(modsHandler, d.Gateway))

		requestsHandler := moderatorrequestsfeature.NewHandler(d.Svc, logger)
		api.Mount("/moderator-requests", moderatorrequestsfeature.Routes(requestsHandler, d.Gateway))

		usersHandler := usersfeature.NewHandler(d.Svc, logger)
		api.Mount("/users", usersfeature.Routes(usersHandler, d.Gateway))

		groupsHandler := groupsfeature.NewHandler(d.Svc, logger)
		api.Mount("/groups", groupsfeature.Routes(groupsHandler, d.Gateway))

		statsHandler := statsfeature.NewHandler(d.Svc, logger)
		api.Mount("/stats", statsfeature.Routes(statsHandler, d.Gateway))

		auditHandler := auditlogfeature.NewHandler(d.AuditEvents, d.UserLookup, logger)
		api.Mount("/audit-events", auditlogfeature.Routes(auditHandler, d.Gateway))
	})

	return r
}
