// internal/app/workflow/accounts.go
package workflow

import (
	"context"
	"errors"
	"time"

	userstore "github.com/munawwara-care/mcadmin/internal/app/store/users"
	"github.com/munawwara-care/mcadmin/internal/app/system/apierr"
	"github.com/munawwara-care/mcadmin/internal/app/system/normalize"
	"github.com/munawwara-care/mcadmin/internal/app/system/txn"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgUserNotFound     = "User not found"
	msgMissingFields    = "Missing required fields"
	msgEmailRegistered  = "Email already registered"
	msgPhoneRegistered  = "Phone number already registered"
	msgInvalidRoleQuery = "Invalid role. Use: pilgrim, moderator, or admin"
	msgAccountBusy      = "Account is being modified. Please try again."
)

// Account sources, reported on listings and audit events.
const (
	SourceUsers    = "users"
	SourcePilgrims = "pilgrims"
)

// Account is the password-free listing view of a user or pilgrim.
// NationalID and EmailVerified are only set for pilgrims.
type Account struct {
	ID            primitive.ObjectID `json:"id"`
	FullName      string             `json:"full_name"`
	Email         string             `json:"email"`
	PhoneNumber   *string            `json:"phone_number,omitempty"`
	NationalID    string             `json:"national_id,omitempty"`
	Role          string             `json:"role"`
	Active        bool               `json:"active"`
	EmailVerified *bool              `json:"email_verified,omitempty"`
	Source        string             `json:"source"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func accountFromUser(u models.User) Account {
	return Account{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		Active:      u.Active,
		Source:      SourceUsers,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func accountFromPilgrim(p models.Pilgrim) Account {
	verified := p.EmailVerified
	role := p.Role
	if role == "" {
		role = models.RolePilgrim
	}
	return Account{
		ID:            p.ID,
		FullName:      p.FullName,
		Email:         p.Email,
		PhoneNumber:   p.PhoneNumber,
		NationalID:    p.NationalID,
		Role:          role,
		Active:        p.Active,
		EmailVerified: &verified,
		Source:        SourcePilgrims,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// SoftDelete deactivates the account with id, looking in users first and
// then pilgrims. Moderator requests and groups are left untouched.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	return s.record("soft_delete", s.softDelete(ctx, id))
}

func (s *Service) softDelete(ctx context.Context, id string) error {
	oid, err := parseID(id, msgUserNotFound)
	if err != nil {
		return err
	}

	source := SourceUsers
	n, err := s.Users.SetActive(ctx, oid, false)
	if err != nil {
		return apierr.Internal(err)
	}
	if n == 0 {
		source = SourcePilgrims
		if n, err = s.Pilgrims.SetActive(ctx, oid, false); err != nil {
			return apierr.Internal(err)
		}
	}
	if n == 0 {
		return apierr.NotFound(msgUserNotFound)
	}

	s.log().Info("account deactivated", zap.String("account_id", oid.Hex()), zap.String("store", source))
	if s.Audit != nil {
		s.Audit.AccountDeactivated(ctx, actorID(ctx), oid, source)
	}
	return nil
}

// HardDeleteAccount removes the account with id from users, or failing that
// from pilgrims, then removes every moderator request that references it.
func (s *Service) HardDeleteAccount(ctx context.Context, id string) error {
	return s.record("hard_delete_account", s.hardDeleteAccount(ctx, id))
}

func (s *Service) hardDeleteAccount(ctx context.Context, id string) error {
	oid, err := parseID(id, msgUserNotFound)
	if err != nil {
		return err
	}

	var (
		source  string
		removed int64
	)
	err = s.tx().Run(ctx, func(ctx context.Context) error {
		source = SourceUsers
		n, err := s.Users.Delete(ctx, oid)
		if err != nil {
			return err
		}
		if n == 0 {
			source = SourcePilgrims
			if n, err = s.Pilgrims.Delete(ctx, oid); err != nil {
				return err
			}
		}
		if n == 0 {
			return apierr.NotFound(msgUserNotFound)
		}
		removed, err = s.Requests.DeleteByPilgrim(ctx, oid)
		return err
	})
	if txn.IsWriteConflict(err) {
		return apierr.Conflict(msgAccountBusy)
	}
	if err != nil {
		return apierr.Internal(err)
	}

	s.log().Info("account deleted",
		zap.String("account_id", oid.Hex()),
		zap.String("store", source),
		zap.Int64("requests_removed", removed))
	if s.Audit != nil {
		s.Audit.AccountDeleted(ctx, actorID(ctx), oid, source, removed)
	}
	return nil
}

// NewModerator is the input to CreateModerator.
type NewModerator struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

// CreateModerator inserts an active moderator directly, bypassing the
// request flow.
func (s *Service) CreateModerator(ctx context.Context, in NewModerator) (models.User, error) {
	u, err := s.createModerator(ctx, in)
	return u, s.record("create_moderator", err)
}

func (s *Service) createModerator(ctx context.Context, in NewModerator) (models.User, error) {
	email := normalize.Email(in.Email)
	phone := normalize.Phone(in.PhoneNumber)
	if email == "" || in.Password == "" || phone == "" {
		return models.User{}, apierr.Validation(msgMissingFields)
	}

	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return models.User{}, apierr.Internal(err)
	}
	if exists {
		return models.User{}, apierr.Validation(msgEmailRegistered)
	}
	exists, err = s.Users.PhoneExists(ctx, phone)
	if err != nil {
		return models.User{}, apierr.Internal(err)
	}
	if exists {
		return models.User{}, apierr.Validation(msgPhoneRegistered)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, apierr.Internal(err)
	}

	u, err := s.Users.Create(ctx, models.User{
		FullName:    in.FullName,
		Email:       email,
		PhoneNumber: &phone,
		Password:    string(hash),
		Role:        models.RoleModerator,
		Active:      true,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		return models.User{}, apierr.Validation(msgEmailRegistered)
	case errors.Is(err, userstore.ErrDuplicatePhone):
		return models.User{}, apierr.Validation(msgPhoneRegistered)
	case err != nil:
		return models.User{}, apierr.Internal(err)
	}

	s.log().Info("moderator created", zap.String("user_id", u.ID.Hex()))
	if s.Audit != nil {
		s.Audit.ModeratorCreated(ctx, actorID(ctx), u.ID, u.Email)
	}
	return u, nil
}

// ListAccounts lists accounts without password hashes.
//
//	""                  users followed by pilgrims
//	"pilgrim"           pilgrims only
//	"moderator"/"admin" users holding that role
//
// Any other value, including case or whitespace variants, fails validation
// before a store is touched.
func (s *Service) ListAccounts(ctx context.Context, role string) ([]Account, error) {
	switch role {
	case "":
		users, err := s.Users.List(ctx, "")
		if err != nil {
			return nil, apierr.Internal(err)
		}
		pilgrims, err := s.Pilgrims.List(ctx)
		if err != nil {
			return nil, apierr.Internal(err)
		}
		out := make([]Account, 0, len(users)+len(pilgrims))
		for _, u := range users {
			out = append(out, accountFromUser(u))
		}
		for _, p := range pilgrims {
			out = append(out, accountFromPilgrim(p))
		}
		return out, nil

	case models.RolePilgrim:
		pilgrims, err := s.Pilgrims.List(ctx)
		if err != nil {
			return nil, apierr.Internal(err)
		}
		out := make([]Account, 0, len(pilgrims))
		for _, p := range pilgrims {
			out = append(out, accountFromPilgrim(p))
		}
		return out, nil

	case models.RoleModerator, models.RoleAdmin:
		users, err := s.Users.List(ctx, role)
		if err != nil {
			return nil, apierr.Internal(err)
		}
		out := make([]Account, 0, len(users))
		for _, u := range users {
			out = append(out, accountFromUser(u))
		}
		return out, nil

	default:
		return nil, apierr.Validation(msgInvalidRoleQuery)
	}
}
