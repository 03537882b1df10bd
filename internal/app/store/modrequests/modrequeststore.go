// internal/app/store/modrequests/modrequeststore.go
package modrequeststore

import (
	"context"
	"time"

	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the moderator request ledger.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("moderator_requests")}
}

// Create records a new pending request for pilgrimID.
func (s *Store) Create(ctx context.Context, pilgrimID primitive.ObjectID) (models.ModeratorRequest, error) {
	now := time.Now().UTC()
	req := models.ModeratorRequest{
		ID:        primitive.NewObjectID(),
		PilgrimID: pilgrimID,
		Status:    models.RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, req); err != nil {
		return models.ModeratorRequest{}, err
	}
	return req, nil
}

// GetByID loads a request. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ModeratorRequest, error) {
	var r models.ModeratorRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListPending returns pending requests, newest first, joined with the
// requesting pilgrim's identity fields.
func (s *Store) ListPending(ctx context.Context) ([]models.PendingRequest, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.RequestPending}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "pilgrims",
			"localField":   "pilgrim_id",
			"foreignField": "_id",
			"as":           "pilgrim",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$pilgrim", "preserveNullAndEmptyArrays": true}}},
		// Plain $lookup form plus a later $project; runs on servers before 5.0.
		{{Key: "$project", Value: bson.M{
			"pilgrim_id":             1,
			"status":                 1,
			"created_at":             1,
			"updated_at":             1,
			"pilgrim._id":            1,
			"pilgrim.full_name":      1,
			"pilgrim.email":          1,
			"pilgrim.phone_number":   1,
			"pilgrim.national_id":    1,
			"pilgrim.email_verified": 1,
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.PendingRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkApproved moves a request from pending to approved. The update only
// applies while the request is still pending, so two concurrent approvals
// cannot both succeed. ok is false when the request was no longer pending.
func (s *Store) MarkApproved(ctx context.Context, id primitive.ObjectID, at time.Time) (ok bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": models.RequestApproved, "updated_at": at}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// MarkRejected sets status=rejected regardless of the current status.
// Returns the number of requests matched (0 or 1).
func (s *Store) MarkRejected(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.RequestRejected, "updated_at": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// DeleteByPilgrim removes every request referencing pilgrimID.
func (s *Store) DeleteByPilgrim(ctx context.Context, pilgrimID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"pilgrim_id": pilgrimID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountPending returns the number of pending requests.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.RequestPending})
}
