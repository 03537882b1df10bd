package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/munawwara-care/mcadmin/internal/app/system/apierr"
	"github.com/munawwara-care/mcadmin/internal/app/system/normalize"
	"github.com/munawwara-care/mcadmin/internal/app/system/respond"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Token constants                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 24 * time.Hour

const (
	msgMissing      = "Please provide email and password"
	msgInvalidCreds = "Invalid credentials"
	msgAdminsOnly   = "Access denied. Admins only."
	msgNoToken      = "No token provided"
	msgBadToken     = "Invalid or expired token"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// Principal is the authenticated caller injected into r.Context().
type Principal struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*Principal, bool) {
	return FromContext(r.Context())
}

// FromContext returns the principal stored by RequireAdmin, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	u, ok := ctx.Value(currentUserKey).(*Principal)
	return u, ok
}

// WithTestUser injects a principal directly, bypassing token checks.
func WithTestUser(r *http.Request, u *Principal) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Gateway                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// Accounts is the slice of the credential store the gateway needs.
type Accounts interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Claims is the signed token payload.
type Claims struct {
	AccountID string `json:"id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// PublicUser is the password-free account view returned on login.
type PublicUser struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Gateway authenticates admins and guards the admin routes.
type Gateway struct {
	secret   []byte
	ttl      time.Duration
	accounts Accounts
	log      *zap.Logger
	now      func() time.Time
}

// NewGateway builds a Gateway signing HS256 tokens with secret.
// A zero ttl means DefaultTTL.
func NewGateway(secret string, ttl time.Duration, accounts Accounts, logger *zap.Logger) (*Gateway, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty; provide ≥32 random chars")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(secret) < 32 {
		logger.Warn("jwt secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Gateway{
		secret:   []byte(secret),
		ttl:      ttl,
		accounts: accounts,
		log:      logger,
		now:      time.Now,
	}, nil
}

// SetClock overrides the gateway's time source.
func (g *Gateway) SetClock(now func() time.Time) { g.now = now }

// TTL returns the token lifetime.
func (g *Gateway) TTL() time.Duration { return g.ttl }

// Authenticate checks email/password and issues a token for admins.
//
// Unknown email, a deactivated account and a wrong password all yield the same
// Unauthorized error so callers cannot probe which accounts exist. Valid
// credentials for a non-admin yield Forbidden and no token.
func (g *Gateway) Authenticate(ctx context.Context, email, password string) (string, PublicUser, error) {
	email = normalize.Email(email)
	if email == "" || password == "" {
		return "", PublicUser{}, apierr.Validation(msgMissing)
	}

	u, err := g.accounts.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		g.log.Info("login rejected", zap.String("reason", "unknown_email"))
		return "", PublicUser{}, apierr.Unauthorized(msgInvalidCreds)
	}
	if err != nil {
		return "", PublicUser{}, apierr.Internal(err)
	}
	if !u.Active {
		g.log.Info("login rejected", zap.String("reason", "inactive"), zap.String("user_id", u.ID.Hex()))
		return "", PublicUser{}, apierr.Unauthorized(msgInvalidCreds)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		g.log.Info("login rejected", zap.String("reason", "bad_password"), zap.String("user_id", u.ID.Hex()))
		return "", PublicUser{}, apierr.Unauthorized(msgInvalidCreds)
	}
	if u.Role != models.RoleAdmin {
		g.log.Info("login rejected", zap.String("reason", "not_admin"), zap.String("user_id", u.ID.Hex()))
		return "", PublicUser{}, apierr.Forbidden(msgAdminsOnly)
	}

	token, err := g.IssueToken(u)
	if err != nil {
		return "", PublicUser{}, apierr.Internal(err)
	}
	return token, PublicUser{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
	}, nil
}

// IssueToken signs a token for u valid for the gateway TTL.
func (g *Gateway) IssueToken(u *models.User) (string, error) {
	now := g.now()
	claims := Claims{
		AccountID: u.ID.Hex(),
		Role:      u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// ParseToken verifies signature, algorithm and expiry and returns the claims.
func (g *Gateway) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Authorize turns a bearer token into an admin Principal.
// The account is re-read on every call so deactivated or deleted admins lose
// access before their token expires.
func (g *Gateway) Authorize(ctx context.Context, tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, apierr.Unauthorized(msgNoToken)
	}
	claims, err := g.ParseToken(tokenString)
	if err != nil {
		g.log.Debug("token rejected", zap.Error(err))
		return nil, apierr.Unauthorized(msgBadToken)
	}

	id := claims.AccountID
	if id == "" {
		id = claims.Subject
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apierr.Unauthorized(msgBadToken)
	}

	u, err := g.accounts.GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apierr.Unauthorized(msgBadToken)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if !u.Active {
		return nil, apierr.Unauthorized(msgBadToken)
	}
	if u.Role != models.RoleAdmin {
		return nil, apierr.Forbidden(msgAdminsOnly)
	}

	return &Principal{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}, nil
}

// RequireAdmin gates next behind a valid admin bearer token.
// Failures are written as the JSON envelope: 401 without a usable token,
// 403 for a valid non-admin.
func (g *Gateway) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.Authorize(r.Context(), BearerToken(r))
		if err != nil {
			respond.Error(w, r, g.log, err)
			return
		}
		next.ServeHTTP(w, withUser(r, p))
	})
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
