// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account that can sign in to the admin backend or the
// moderator app: admins and moderators.
//
// NOTE:
//   - A moderator promoted from a pilgrim shares the pilgrim's _id, so both
//     collections stay addressable by the same key.
//   - Password holds the bcrypt hash and is never serialized to JSON.
type User struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	FullName    string             `bson:"full_name" json:"full_name"`
	Email       string             `bson:"email" json:"email"`
	PhoneNumber *string            `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	Password    string             `bson:"password" json:"-"`
	Role        string             `bson:"role" json:"role"` // admin | moderator | pilgrim
	Active      bool               `bson:"active" json:"active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Phone returns the phone number or "" when unset.
func (u User) Phone() string {
	if u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneNumber
}
