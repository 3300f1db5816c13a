package models

import "myaje.io/checkout/models/enum"

// Identity is the signed-in user record, read-only to this module.
type Identity struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	Token      string          `json:"token"`
	ActiveView enum.ActiveView `json:"active_view"`
}

// Authenticated reports whether the identity carries a usable bearer token.
func (i *Identity) Authenticated() bool {
	return i != nil && i.Token != ""
}

// IdentityProvider supplies the current identity, or nil when signed out.
// It is injected into the cart store and checkout service so identity is
// never read from ambient state.
type IdentityProvider interface {
	Current() *Identity
}

// IdentityFunc adapts a plain function to an IdentityProvider.
type IdentityFunc func() *Identity

func (f IdentityFunc) Current() *Identity { return f() }
