package models

import "time"

// ConnectionStatus is the lifecycle state of a connection request.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionDeclined ConnectionStatus = "declined"
)

// Connection is a directed request between two users. Once accepted it
// authorizes messaging in both directions.
type Connection struct {
	ID          string           `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID string           `gorm:"type:uuid;not null;uniqueIndex:idx_connection_pair" json:"requester_id"`
	AddresseeID string           `gorm:"type:uuid;not null;uniqueIndex:idx_connection_pair" json:"addressee_id"`
	Status      ConnectionStatus `gorm:"type:text;not null" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Peer returns the other side of the connection relative to userID.
func (c Connection) Peer(userID string) string {
	if c.RequesterID == userID {
		return c.AddresseeID
	}
	return c.RequesterID
}
