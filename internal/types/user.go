package types

import "time"

// User is a registered account. The password hash lives in UserCredentials
// and never reaches a JSON response.
type User struct {
	ID        int64     `json:"id"`
	Nome      string    `json:"nome"`
	Login     string    `json:"login"` // Unique, email-like.
	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"alterado_em"`
}

// UserCredentials is the auth-side view of a user, including the bcrypt hash.
type UserCredentials struct {
	User
	PasswordHash string `json:"-"`
}

// UserSummary is the owner nested inside a recipe view.
type UserSummary struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Login string `json:"login"`
}

// UserListItem is one entry of the public user directory.
type UserListItem struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

// NewUser holds the fields needed to insert a user.
type NewUser struct {
	Nome         string
	Login        string
	PasswordHash string
}
