// Package domain contains core concepts of the chat relay.
// No runtime, network, or UI logic should be added here.
package domain

// Identity is the authenticated username bound to a session.
// Usernames are unique and immutable once assigned.
type Identity struct {
	Username string
}
