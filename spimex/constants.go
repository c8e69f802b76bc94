// Package spimex holds process-wide defaults shared by the service packages.
package spimex

const (
	DefaultAppName    = "spimex"
	DefaultConfigPath = "/etc/spimex"

	DefaultHTTPAddr    = ":8000"
	DefaultDatabaseURL = "file:./spimex.db"

	DefaultRedisHost = "localhost"
	DefaultRedisPort = 6379

	// SecondsPerDay bounds the daily cache cutoff.
	SecondsPerDay = 24 * 60 * 60
)
