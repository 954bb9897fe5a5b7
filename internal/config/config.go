package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Host string `env:"WS_HOST"`
	Port int    `env:"WS_PORT,default=4000"`
	Path string `env:"WS_PATH,default=/"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
	LogFile  string `env:"LOG_FILE"`

	// HistoryDB is the SQLite file finished games are recorded into.
	// Empty disables history.
	HistoryDB string `env:"HISTORY_DB"`

	WriteTimeout  time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PingInterval  time.Duration `env:"PING_INTERVAL,default=15s"`
	SendQueueSize int           `env:"SEND_QUEUE_SIZE,default=64"`
	ReadLimit     int64         `env:"READ_LIMIT,default=4096"`
	LoopQueueSize int           `env:"LOOP_QUEUE_SIZE,default=256"`
}

// Load decodes the environment into a Config and validates it.
func Load() (*Config, error) {
	var c Config
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid WS_PORT %d", c.Port)
	}
	if c.Path == "" || c.Path[0] != '/' {
		return fmt.Errorf("invalid WS_PATH %q", c.Path)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("invalid WRITE_TIMEOUT %s", c.WriteTimeout)
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("invalid PING_INTERVAL %s", c.PingInterval)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("invalid SEND_QUEUE_SIZE %d", c.SendQueueSize)
	}
	if c.ReadLimit <= 0 {
		return fmt.Errorf("invalid READ_LIMIT %d", c.ReadLimit)
	}
	if c.LoopQueueSize <= 0 {
		return fmt.Errorf("invalid LOOP_QUEUE_SIZE %d", c.LoopQueueSize)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
