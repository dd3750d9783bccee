package utils

import "time"

// Access code constants
const (
	// AccessCodeLength is the length of generated join codes (>= 24 chars to resist guessing)
	AccessCodeLength = 28

	// DisplayTokenLength is the length of public kiosk display identifiers
	DisplayTokenLength = 12

	// AccessCodeAlphabet excludes visually ambiguous characters (0/O, 1/l/I)
	AccessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"
)

// Estimation constants
const (
	// FallbackServiceSeconds is the average service time assumed when a queue
	// has no completed tickets yet
	FallbackServiceSeconds = 300

	// MinETAMinutes is the floor for wait estimates of waiting tickets in open queues
	MinETAMinutes = 1
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for operator access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// DefaultRotationInterval is the default join-token rotation period
	DefaultRotationInterval = 5 * time.Minute
)

// HTTP constants
const (
	// CORSMaxAge is how long browsers may cache CORS preflight responses, in seconds
	CORSMaxAge = 86400
)

type contextKey string

// Context keys set by handlers for downstream flows
const (
	RequestIDKey  contextKey = "request_id"
	UserAgentKey  contextKey = "user_agent"
	IPAddressKey  contextKey = "ip_address"
	EndpointKey   contextKey = "endpoint"
	CancelFuncKey contextKey = "cancel_func"
)
