package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultGreetingWait   = 5 * time.Second
	DefaultAuthWait       = 10 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultPingInterval   = 25 * time.Second
	DefaultBufferSize     = 4096
	DefaultSendTimeout    = 2 * time.Second

	DefaultRestartBaseDelay = 1 * time.Second
	DefaultRestartMaxDelay  = 60 * time.Second

	DefaultDBPort        = 5432
	DefaultDBSSLMode     = "prefer"
	DefaultMaxConns      = 10
	DefaultMinConns      = 2
	DefaultBatchSize     = 1000
	DefaultFlushInterval = 1 * time.Second
	DefaultEventBuffer   = 10000

	DefaultNATSURL       = "nats://127.0.0.1:4222"
	DefaultSubjectPrefix = "events"
)

func (c *Config) applyDefaults() {
	// Gateway defaults
	if c.Gateway.ConnectTimeout == 0 {
		c.Gateway.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Gateway.GreetingWait == 0 {
		c.Gateway.GreetingWait = DefaultGreetingWait
	}
	if c.Gateway.AuthWait == 0 {
		c.Gateway.AuthWait = DefaultAuthWait
	}
	if c.Gateway.ReadTimeout == 0 {
		c.Gateway.ReadTimeout = DefaultReadTimeout
	}
	if c.Gateway.WriteTimeout == 0 {
		c.Gateway.WriteTimeout = DefaultWriteTimeout
	}
	if c.Gateway.PingInterval == 0 {
		c.Gateway.PingInterval = DefaultPingInterval
	}
	if c.Gateway.BufferSize == 0 {
		c.Gateway.BufferSize = DefaultBufferSize
	}
	if c.Gateway.SendTimeout == 0 {
		c.Gateway.SendTimeout = DefaultSendTimeout
	}
	if c.Gateway.Restart.BaseDelay == 0 {
		c.Gateway.Restart.BaseDelay = DefaultRestartBaseDelay
	}
	if c.Gateway.Restart.MaxDelay == 0 {
		c.Gateway.Restart.MaxDelay = DefaultRestartMaxDelay
	}

	// Recorder defaults
	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultFlushInterval
	}
	if c.Recorder.BufferSize == 0 {
		c.Recorder.BufferSize = DefaultEventBuffer
	}
	applyDBDefaults(&c.Recorder.Database)

	// NATS defaults
	if c.NATS.URL == "" {
		c.NATS.URL = DefaultNATSURL
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = DefaultSubjectPrefix
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
