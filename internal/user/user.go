// Package user defines the identity resolved from a validated bearer token.
// The system never persists users itself; these claims come from the
// external credential store on every request.
package user

// User holds the identity claims of an authenticated caller.
type User struct {
	// UID is the provider-assigned unique identifier. Task ownership is
	// keyed on this value.
	UID string

	// Email is the address registered with the credential store.
	Email string
}
