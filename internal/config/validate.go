package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that all fields contain valid values:
//   - server.transport is stdio or http; approval.channel is terminal or web
//   - listen addresses are host:port or :port with a port in 1-65535
//   - durations parse and are positive
//   - fixer.max_tokens is non-negative
//   - log.level is one of debug, info, warn, error
//
// Empty fields are valid. Returns an error wrapping ErrInvalid naming the
// offending field.
func Validate(cfg *Config) error {
	switch cfg.Server.Transport {
	case "", TransportStdio, TransportHTTP:
	default:
		return invalid("server.transport: invalid value %q, must be one of: stdio, http", cfg.Server.Transport)
	}
	if err := validateListenAddr(cfg.Server.Listen, "server.listen"); err != nil {
		return err
	}

	if err := validateDuration(cfg.AWS.Timeout, "aws.timeout"); err != nil {
		return err
	}

	switch cfg.Approval.Channel {
	case "", ChannelTerminal, ChannelWeb:
	default:
		return invalid("approval.channel: invalid value %q, must be one of: terminal, web", cfg.Approval.Channel)
	}
	if err := validateListenAddr(cfg.Approval.Listen, "approval.listen"); err != nil {
		return err
	}
	if err := validateDuration(cfg.Approval.Timeout, "approval.timeout"); err != nil {
		return err
	}

	for i, entry := range cfg.Catalogue.Extra {
		if strings.TrimSpace(entry) == "" {
			return invalid("catalogue.extra[%d]: empty entry", i)
		}
	}

	if cfg.Fixer.MaxTokens < 0 {
		return invalid("fixer.max_tokens: must be non-negative, got %d", cfg.Fixer.MaxTokens)
	}

	if cfg.Log.Level != "" && !validLogLevels[cfg.Log.Level] {
		return invalid("log.level: invalid value %q, must be one of: debug, info, warn, error", cfg.Log.Level)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// validateListenAddr validates a listen address in the format ":port" or "host:port".
func validateListenAddr(addr, field string) error {
	if addr == "" {
		return nil
	}
	colonIdx := strings.LastIndex(addr, ":")
	if colonIdx == -1 {
		return invalid("%s: invalid format %q, expected host:port or :port", field, addr)
	}

	portStr := addr[colonIdx+1:]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return invalid("%s: invalid port %q in %q", field, portStr, addr)
	}
	if port < 1 || port > 65535 {
		return invalid("%s: invalid port number %d, must be 1-65535", field, port)
	}
	return nil
}

// validateDuration validates that a duration string parses and is positive.
func validateDuration(d, field string) error {
	if d == "" {
		return nil
	}
	v, err := time.ParseDuration(d)
	if err != nil {
		return invalid("%s: invalid duration %q", field, d)
	}
	if v <= 0 {
		return invalid("%s: duration must be positive, got %q", field, d)
	}
	return nil
}
