package constants

import "time"

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
	WebhookTimeout  = 10 * time.Second
)

const (
	// SyncTimeout bounds one full membership sync for a player; a sync
	// that cannot finish in time is abandoned and retried.
	SyncTimeout       = 15 * time.Second
	SyncRetryBase     = 500 * time.Millisecond
	SyncMaxRetries    = 5
	ResyncConcurrency = 8
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)
