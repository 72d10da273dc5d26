package models

import "time"

// Account holds the credential side of a user; progression data lives in
// UserProgress. The two share the same id.
type Account struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	DisplayName  string    `bson:"display_name" json:"display_name"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
