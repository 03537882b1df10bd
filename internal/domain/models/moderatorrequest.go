// internal/domain/models/moderatorrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Moderator request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// ModeratorRequest is a pilgrim's request to become a moderator.
// Requests are created by the pilgrim app and only transitioned here.
type ModeratorRequest struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	PilgrimID primitive.ObjectID `bson:"pilgrim_id" json:"pilgrim_id"`
	Status    string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Requester is the minimal view of the pilgrim behind a request.
type Requester struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	FullName      string             `bson:"full_name" json:"full_name"`
	Email         string             `bson:"email" json:"email"`
	PhoneNumber   *string            `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	NationalID    string             `bson:"national_id,omitempty" json:"national_id,omitempty"`
	EmailVerified bool               `bson:"email_verified" json:"email_verified"`
}

// PendingRequest is a ModeratorRequest joined with its requester.
// Pilgrim is nil when the referenced pilgrim no longer exists.
type PendingRequest struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	PilgrimID primitive.ObjectID `bson:"pilgrim_id" json:"pilgrim_id"`
	Pilgrim   *Requester         `bson:"pilgrim,omitempty" json:"pilgrim"`
	Status    string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
