package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/munawwara-care/mcadmin/internal/app/system/normalize"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicatePhone is returned when the phone number is already registered.
	ErrDuplicatePhone = errors.New("a user with this phone number already exists")
	errBadRole        = errors.New(`role must be "admin"|"moderator"|"pilgrim"`)
)

// publicProjection hides the password hash from list queries.
var publicProjection = bson.M{"password": 0}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailExists reports whether any user already holds email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, bson.M{"email": normalize.Email(email)})
}

// PhoneExists reports whether any user already holds phone.
func (s *Store) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return s.exists(ctx, bson.M{"phone_number": normalize.Phone(phone)})
}

func (s *Store) exists(ctx context.Context, filter bson.M) (bool, error) {
	err := s.c.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// Create inserts a new user after normalizing & validating fields.
// A zero ID is replaced with a fresh ObjectID.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.FullName = normalize.Name(u.FullName)
	u.Email = normalize.Email(u.Email)
	if u.PhoneNumber != nil {
		p := normalize.Phone(*u.PhoneNumber)
		if p == "" {
			u.PhoneNumber = nil
		} else {
			u.PhoneNumber = &p
		}
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, dupErr(err)
	}
	return u, nil
}

// LinkModerator makes the user at the pilgrim's _id a moderator. An existing
// user only has its role changed; otherwise a user is inserted at the same
// _id carrying the pilgrim's name, email, password hash and phone.
// created reports whether a new user document was inserted.
func (s *Store) LinkModerator(ctx context.Context, p models.Pilgrim) (created bool, err error) {
	now := time.Now().UTC()
	onInsert := bson.M{
		"full_name":  p.FullName,
		"email":      normalize.Email(p.Email),
		"password":   p.Password,
		"active":     true,
		"created_at": now,
	}
	if p.PhoneNumber != nil && *p.PhoneNumber != "" {
		onInsert["phone_number"] = normalize.Phone(*p.PhoneNumber)
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{
			"$set":         bson.M{"role": models.RoleModerator, "updated_at": now},
			"$setOnInsert": onInsert,
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, dupErr(err)
	}
	return res.UpsertedCount == 1, nil
}

// SetRole changes a user's role. Returns the number of users matched (0 or 1).
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) (int64, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// SetActive flips the soft-delete marker. Returns the number of users matched (0 or 1).
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (int64, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"active":     active,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountByRole returns the number of users holding role.
func (s *Store) CountByRole(ctx context.Context, role string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": role})
}

// List returns users without password hashes, optionally filtered by role.
// An empty role returns everyone.
func (s *Store) List(ctx context.Context, role string) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	opts := options.Find().SetProjection(publicProjection).SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByIDs loads the display fields of the given users. Unknown ids are
// silently skipped.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	opts := options.Find().SetProjection(bson.M{"full_name": 1, "email": 1, "role": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// dupErr maps a duplicate-key write error to the sentinel for the field that
// collided. Other errors pass through unchanged.
func dupErr(err error) error {
	if !wafflemongo.IsDup(err) {
		return err
	}
	if strings.Contains(err.Error(), "phone_number") {
		return ErrDuplicatePhone
	}
	return ErrDuplicateEmail
}
