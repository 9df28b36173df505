package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Credentials.Key == "" {
		return errors.New("credentials.key is required")
	}
	if c.Credentials.Secret == "" {
		return errors.New("credentials.secret is required")
	}

	for i, ep := range c.Endpoints {
		if ep.Name == "" {
			return fmt.Errorf("endpoints[%d].name is required", i)
		}
	}

	if c.Gateway.BufferSize < 1 {
		return errors.New("gateway.buffer_size must be >= 1")
	}
	if c.Gateway.SendTimeout <= 0 {
		return errors.New("gateway.send_timeout must be positive")
	}

	if c.Recorder.Enabled {
		if err := c.Recorder.Database.validate("recorder.database"); err != nil {
			return err
		}
		if c.Recorder.BatchSize < 1 {
			return errors.New("recorder.batch_size must be >= 1")
		}
		if c.Recorder.BufferSize < 1 {
			return errors.New("recorder.buffer_size must be >= 1")
		}
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
