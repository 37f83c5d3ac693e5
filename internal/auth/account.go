package auth

import (
	"context"
	"slices"
)

// Permission names checked by the checkout routes.
const (
	PermissionAccessCheckout = "access checkout"
)

// Account is the requester behind an HTTP request: an authenticated
// customer or an anonymous visitor carrying the configured default
// permissions.
type Account struct {
	UserID        uint
	Authenticated bool
	Permissions   []string
}

func Anonymous(permissions []string) *Account {
	return &Account{Permissions: permissions}
}

func (a *Account) HasPermission(name string) bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.Permissions, name)
}

// Owns reports whether the account is the authenticated owner of a
// customer-bound resource.
func (a *Account) Owns(customerID uint) bool {
	return a != nil && a.Authenticated && customerID != 0 && a.UserID == customerID
}

type contextKey string

const accountKey contextKey = "account"

func WithAccount(ctx context.Context, a *Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

func AccountFrom(ctx context.Context) (*Account, bool) {
	a, ok := ctx.Value(accountKey).(*Account)
	return a, ok && a != nil
}
