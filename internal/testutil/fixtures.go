package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a low-cost bcrypt hash for seeding accounts.
func HashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

// Fixtures inserts documents straight into a test database, bypassing the
// stores under test.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// CreateUser inserts an active account in the users collection.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		FullName:  fullName,
		Email:     email,
		Password:  HashPassword(f.t, "password"),
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreatePilgrim inserts a pilgrim profile.
func (f *Fixtures) CreatePilgrim(ctx context.Context, fullName, email string, verified bool) models.Pilgrim {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Pilgrim{
		ID:            primitive.NewObjectID(),
		FullName:      fullName,
		Email:         email,
		NationalID:    "NID-" + fullName,
		Password:      HashPassword(f.t, "password"),
		Role:          models.RolePilgrim,
		Active:        true,
		EmailVerified: verified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("pilgrims").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test pilgrim: %v", err)
	}
	return p
}

// CreateRequest inserts a moderator request for pilgrimID.
func (f *Fixtures) CreateRequest(ctx context.Context, pilgrimID primitive.ObjectID, status string, createdAt time.Time) models.ModeratorRequest {
	f.t.Helper()

	r := models.ModeratorRequest{
		ID:        primitive.NewObjectID(),
		PilgrimID: pilgrimID,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if _, err := f.db.Collection("moderator_requests").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test request: %v", err)
	}
	return r
}

// CreateGroup inserts a group.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, createdBy primitive.ObjectID, moderators ...primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:           primitive.NewObjectID(),
		Name:         name,
		ModeratorIDs: moderators,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}
