package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account document. Username and email are stored lowercased and
// carry unique indexes (see services.EnsureUserIndexes). Password hash and the
// stored refresh token never leave the server.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	FullName   string `bson:"full_name" json:"full_name"`
	Username   string `bson:"username" json:"username"`
	Email      string `bson:"email" json:"email"`
	Avatar     string `bson:"avatar" json:"avatar"`
	CoverImage string `bson:"cover_image,omitempty" json:"cover_image,omitempty"`

	Password     string `bson:"password" json:"-"`
	RefreshToken string `bson:"refresh_token,omitempty" json:"-"`
}

// PublicUser is the externally visible representation of an account.
type PublicUser struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"cover_image,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Sanitized strips the credential hash and refresh token for API responses.
func (u *User) Sanitized() PublicUser {
	return PublicUser{
		ID:         u.ID.Hex(),
		FullName:   u.FullName,
		Username:   u.Username,
		Email:      u.Email,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
