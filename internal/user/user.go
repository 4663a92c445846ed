package user

import (
	"errors"
	"time"
)

// Collection is the document store collection holding users.
const Collection = "users"

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidLevel       = errors.New("invalid permission level")
)

// Level is a user's permission level. L1 users can read and record sales
// and payments; L2 users additionally update, delete and manage users.
// Enforcement happens in the HTTP layer; the services trust their callers.
type Level string

const (
	LevelOne Level = "L1"
	LevelTwo Level = "L2"
)

// User is an operator account. Deactivation is a lifecycle state, not a
// deletion: inactive users simply can no longer authenticate.
type User struct {
	ID             string    `json:"-"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Level          Level     `json:"level"`
	HashedPassword string    `json:"hashed_password"`
	Active         bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateParams struct {
	Username string
	FullName string
	Level    Level
	Password string
}

type UpdateParams struct {
	FullName *string
	Password *string
	Level    *Level
}
