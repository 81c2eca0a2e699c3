// Package config reads the suite's environment-driven settings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Engine selects the browser rendering engine.
type Engine int

const (
	Chromium Engine = iota
	Firefox
	WebKit
)

// ParseEngine maps a BROWSER value to an engine.
// Matching is exact: anything other than "firefox" or "webkit",
// including "Firefox", selects Chromium.
func ParseEngine(s string) Engine {
	switch s {
	case "firefox":
		return Firefox
	case "webkit":
		return WebKit
	default:
		return Chromium
	}
}

func (e Engine) String() string {
	switch e {
	case Firefox:
		return "firefox"
	case WebKit:
		return "webkit"
	default:
		return "chromium"
	}
}

// Decode implements envconfig.Decoder.
func (e *Engine) Decode(value string) error {
	*e = ParseEngine(value)
	return nil
}

// Config holds settings shared by the e2e suite and the runner.
type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" default:"http://localhost:4173"`
	Browser     Engine        `envconfig:"BROWSER" default:"chromium"`
	Headless    bool          `envconfig:"HEADLESS" default:"true"`
	TraceDir    string        `envconfig:"TRACE_DIR" default:"traces"`
	Trace       bool          `envconfig:"TRACE" default:"true"`
	WaitTimeout time.Duration `envconfig:"WAIT_TIMEOUT" default:"5s"`
	NavTimeout  time.Duration `envconfig:"NAV_TIMEOUT" default:"30s"`
	Fixture     bool          `envconfig:"FIXTURE" default:"false"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot check on its own.
func (c Config) Validate() error {
	if !c.Fixture {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid BASE_URL %q: %w", c.BaseURL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid BASE_URL %q: scheme must be http or https", c.BaseURL)
		}
	}
	if c.WaitTimeout <= 0 {
		return errors.New("WAIT_TIMEOUT must be positive")
	}
	if c.NavTimeout <= 0 {
		return errors.New("NAV_TIMEOUT must be positive")
	}
	return nil
}
