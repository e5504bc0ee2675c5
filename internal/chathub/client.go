package chathub

import "babelbye/backend/internal/models"

// Client is one live session bound to an authenticated user.
type Client interface {
	// GetUserID returns the id established at handshake.
	GetUserID() string

	// Deliver enqueues evt for the session without blocking. It returns false
	// when the session is closed or its outbound queue is full.
	Deliver(evt models.ServerEvent) bool

	// Run registers the session and starts its read and write pumps.
	Run()
	// Close stops outbound delivery; the write pump then closes the transport.
	Close()
}
