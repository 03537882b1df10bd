// internal/app/store/pilgrims/pilgrimstore.go
package pilgrimstore

import (
	"context"
	"time"

	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads and updates pilgrim profiles. Profiles are created by the
// pilgrim app; this service only changes role and active flags, or deletes.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pilgrims")}
}

// GetByID loads a pilgrim by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Pilgrim, error) {
	var p models.Pilgrim
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetRole mirrors a role change onto the pilgrim profile.
// Returns the number of profiles matched (0 or 1).
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

// SetActive flips the soft-delete marker. Returns the number of profiles matched.
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

// Delete removes a pilgrim profile. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of pilgrim profiles.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// List returns every pilgrim profile without password hashes.
func (s *Store) List(ctx context.Context) ([]models.Pilgrim, error) {
	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Pilgrim{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
