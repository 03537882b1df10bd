// internal/domain/models/pilgrim.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pilgrim is the profile written by the pilgrim-facing app. It carries the
// same account fields as User plus pilgrimage-specific attributes.
//
// Role mirrors the matching User's role once the pilgrim has been promoted.
type Pilgrim struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	FullName      string             `bson:"full_name" json:"full_name"`
	Email         string             `bson:"email" json:"email"`
	PhoneNumber   *string            `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	NationalID    string             `bson:"national_id,omitempty" json:"national_id,omitempty"`
	Password      string             `bson:"password" json:"-"`
	Role          string             `bson:"role" json:"role"`
	Active        bool               `bson:"active" json:"active"`
	EmailVerified bool               `bson:"email_verified" json:"email_verified"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
