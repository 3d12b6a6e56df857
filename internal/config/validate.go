package config

import (
	"fmt"
	"strings"

	"github.com/macwinctl/macwinctl/internal/model"
)

// ValidationResult splits validation findings into fatal errors that abort
// startup and warnings that are logged but do not, matching the error
// handling policy's Configuration row.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r ValidationResult) HasFatals() bool { return len(r.Fatals) > 0 }

// ValidateTiered checks the config and clamps dangerous zero-values to safe
// defaults, returning fatal errors for values that cannot be reconciled
// (an unknown remote_edge, since it names a direction the control loop has
// no edge-detection branch for) and warnings for everything else.
func (c *Config) ValidateTiered() ValidationResult {
	var result ValidationResult

	if _, ok := model.ParseEdge(c.RemoteEdge); !ok {
		result.Fatals = append(result.Fatals, fmt.Errorf("remote_edge %q is not one of left, right, top, bottom", c.RemoteEdge))
	}

	if c.TCPPort <= 0 || c.TCPPort > 65535 {
		result.Fatals = append(result.Fatals, fmt.Errorf("tcp_port %d out of range", c.TCPPort))
	}
	if c.UDPPort <= 0 || c.UDPPort > 65535 {
		result.Fatals = append(result.Fatals, fmt.Errorf("udp_port %d out of range", c.UDPPort))
	}
	if c.TCPPort == c.UDPPort {
		result.Fatals = append(result.Fatals, fmt.Errorf("tcp_port and udp_port must differ, both %d", c.TCPPort))
	}

	if c.ThresholdPx < 1 {
		result.Warnings = append(result.Warnings, fmt.Errorf("threshold_px %d is below minimum 1, clamping", c.ThresholdPx))
		c.ThresholdPx = 1
	} else if c.ThresholdPx > 200 {
		result.Warnings = append(result.Warnings, fmt.Errorf("threshold_px %d exceeds maximum 200, clamping", c.ThresholdPx))
		c.ThresholdPx = 200
	}

	if c.Sensitivity <= 0 {
		result.Warnings = append(result.Warnings, fmt.Errorf("sensitivity %f must be positive, resetting to 1.5", c.Sensitivity))
		c.Sensitivity = 1.5
	}

	if c.TickMs < 1 {
		result.Warnings = append(result.Warnings, fmt.Errorf("tick_ms %d is below minimum 1, clamping", c.TickMs))
		c.TickMs = 1
	} else if c.TickMs > 1000 {
		result.Warnings = append(result.Warnings, fmt.Errorf("tick_ms %d exceeds maximum 1000, clamping", c.TickMs))
		c.TickMs = 1000
	}

	if c.ReturnCooldownMs < 0 {
		result.Warnings = append(result.Warnings, fmt.Errorf("return_cooldown_ms %d is negative, clamping to 0", c.ReturnCooldownMs))
		c.ReturnCooldownMs = 0
	}

	if c.BeaconIntervalSeconds < 1 {
		result.Warnings = append(result.Warnings, fmt.Errorf("beacon_interval_seconds %d is below minimum 1, clamping", c.BeaconIntervalSeconds))
		c.BeaconIntervalSeconds = 1
	}
	if c.LivenessWindowSeconds < c.BeaconIntervalSeconds {
		result.Warnings = append(result.Warnings, fmt.Errorf(
			"liveness_window_seconds %d is shorter than beacon_interval_seconds %d, clamping to 3x beacon interval",
			c.LivenessWindowSeconds, c.BeaconIntervalSeconds))
		c.LivenessWindowSeconds = c.BeaconIntervalSeconds * 3
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		result.Warnings = append(result.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
		c.LogLevel = "info"
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		result.Warnings = append(result.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
		c.LogFormat = "text"
	}

	if c.ClipboardPollMs < 50 {
		result.Warnings = append(result.Warnings, fmt.Errorf("clipboard_poll_ms %d is below minimum 50, clamping", c.ClipboardPollMs))
		c.ClipboardPollMs = 50
	}

	return result
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}
