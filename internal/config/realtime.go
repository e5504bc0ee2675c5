package config

import "time"

const (
	// WebSocket session
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 16 * 1024

	// Outbound queue per session
	DefaultOutboundBuffer = 256

	// Refused-pair cache
	RefusalCacheTTL = 30 * time.Second

	// Translation
	DefaultTranslationTimeout = 15 * time.Second
	TranslationTemperature    = 0.2
)

// Protocol status/error strings shared by the relay and its clients.
const (
	StatusSent   = "sent"
	StatusTyping = "typing"

	ErrConnectionRequired = "connection_required"
	ErrDeliveryFailed     = "delivery_failed"
)
