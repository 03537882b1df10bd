// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/munawwara-care/mcadmin/internal/app/store/audit"
	userstore "github.com/munawwara-care/mcadmin/internal/app/store/users"
	"github.com/munawwara-care/mcadmin/internal/app/system/auditlog"
	"github.com/munawwara-care/mcadmin/internal/app/system/normalize"
	"github.com/munawwara-care/mcadmin/internal/app/system/timeouts"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: it applies
// the configured timeouts and bootstraps the admin account.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("timeouts configured",
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long))

	if appCfg.AdminEmail == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	al := newAuditLogger(appCfg, deps, logger)
	return ensureAdmin(ctx, userstore.New(deps.MongoDatabase), appCfg, al, logger)
}

// adminAccounts is the part of the user store the admin bootstrap needs.
type adminAccounts interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) (int64, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) (int64, error)
}

// ensureAdmin makes sure appCfg.AdminEmail is an active admin.
//
// An existing account is promoted and reactivated but keeps its password. A
// missing account is created, which requires AdminPassword.
func ensureAdmin(ctx context.Context, users adminAccounts, appCfg AppConfig, al *auditlog.Logger, logger *zap.Logger) error {
	email := normalize.Email(appCfg.AdminEmail)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == models.RoleAdmin && u.Active {
			logger.Info("admin account present", zap.String("email", email))
			return nil
		}
		if _, err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		if _, err := users.SetActive(ctx, u.ID, true); err != nil {
			return fmt.Errorf("activate admin: %w", err)
		}
		logger.Info("promoted account to admin", zap.String("email", email), zap.String("previous_role", u.Role))
		al.AdminBootstrapped(ctx, u.ID, email, false)
		return nil

	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("look up admin: %w", err)
	}

	if appCfg.AdminPassword == "" {
		return fmt.Errorf("admin_password is required to create admin %s", email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(appCfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	created, err := users.Create(ctx, models.User{
		FullName: appCfg.AdminName,
		Email:    email,
		Password: string(hash),
		Role:     models.RoleAdmin,
		Active:   true,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("created admin account", zap.String("email", email), zap.String("user_id", created.ID.Hex()))
	al.AdminBootstrapped(ctx, created.ID, email, true)
	return nil
}

// newAuditLogger builds the audit logger over the audit_events collection.
func newAuditLogger(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *auditlog.Logger {
	var store auditlog.Store
	if deps.MongoDatabase != nil {
		store = audit.New(deps.MongoDatabase)
	}
	return auditlog.New(store, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
}
