// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named set of pilgrims travelling together, looked after by one
// or more moderators.
//
// NOTE:
//   - ModeratorIDs are advisory; nothing enforces that they still point at
//     users with role=moderator.
type Group struct {
	ID           primitive.ObjectID   `bson:"_id" json:"id"`
	Name         string               `bson:"group_name" json:"group_name"`
	PilgrimIDs   []primitive.ObjectID `bson:"pilgrim_ids,omitempty" json:"pilgrim_ids"`
	ModeratorIDs []primitive.ObjectID `bson:"moderator_ids,omitempty" json:"moderator_ids"`
	CreatedBy    primitive.ObjectID   `bson:"created_by" json:"created_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
