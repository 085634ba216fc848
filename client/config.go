package client

import (
	"time"

	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/transport"
)

type Config struct {
	// DialTimeout bounds connecting to the server. Zero means no limit
	// beyond the context passed to New.
	DialTimeout time.Duration
	Transport   transport.Config
	Logger      logging.Logger
	// Registry receives the world's component types. A fresh registry is
	// created when nil.
	Registry *ecs.ComponentRegistry
}

func DefaultConfig() Config {
	return Config{
		DialTimeout: 10 * time.Second,
		Transport:   transport.DefaultConfig(),
	}
}

type Option func(*Config)

func WithLogger(logger logging.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithRegistry stores components in registry, letting callers register the
// types their mob entries spawn up front
func WithRegistry(registry *ecs.ComponentRegistry) Option {
	return func(c *Config) {
		if registry != nil {
			c.Registry = registry
		}
	}
}

func WithDialTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.DialTimeout = timeout
	}
}

func WithTransportConfig(cfg transport.Config) Option {
	return func(c *Config) {
		c.Transport = cfg
	}
}
