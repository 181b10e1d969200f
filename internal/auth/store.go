package auth

import "context"

// UserStore is the persistence surface for accounts. The gate only reads;
// CreateUser backs registration and SetUserStatus backs the soft-delete and
// suspension flow (a status flip, never a physical delete).
type UserStore interface {
	FindUser(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	SetUserStatus(ctx context.Context, userID, status string) error
}
