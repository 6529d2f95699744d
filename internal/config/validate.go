package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

func (c *Config) Validate() error {
	// Predictor
	if c.Predictor.Endpoint == "" {
		return errors.New("predictor.endpoint is required")
	}
	u, err := url.Parse(c.Predictor.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("predictor.endpoint %q must be an absolute http(s) URL", c.Predictor.Endpoint)
	}
	if c.Predictor.Timeout <= 0 {
		return errors.New("predictor.timeout must be positive")
	}
	if c.Predictor.SecurityGroup == "" {
		return errors.New("predictor.security_group must not be empty")
	}

	// Retry
	if c.Retry.MaxAttempts <= 0 {
		return errors.New("retry.max_attempts must be a positive integer")
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		return errors.New("retry delays must not be negative")
	}

	// Similarity
	if c.Similarity.AccuracyLimit <= 0 || c.Similarity.AccuracyLimit > 1 {
		return fmt.Errorf("similarity.accuracy_limit (%v) must be in (0, 1]", c.Similarity.AccuracyLimit)
	}
	if c.Similarity.BlockLimit <= 0 {
		return errors.New("similarity.block_limit must be a positive integer")
	}
	if c.Similarity.PredictThreshold <= 0 || c.Similarity.PredictThreshold > 100 {
		return fmt.Errorf("similarity.predict_threshold (%d) must be between 1 and 100", c.Similarity.PredictThreshold)
	}

	if c.Session.Name == "" {
		return errors.New("session.name is required")
	}

	// State
	switch c.State.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.State.DSN == "" {
			return errors.New("state.dsn is required when state.driver is postgres")
		}
	default:
		return fmt.Errorf("state.driver %q must be one of memory, sqlite, postgres", c.State.Driver)
	}

	// Logging
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port (%d) is out of range", c.Server.Port)
	}

	return nil
}
