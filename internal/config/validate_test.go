package config

import (
	"strings"
	"testing"
)

func TestValidateTieredDefaultsAreClean(t *testing.T) {
	cfg := Default()
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("default config should have no fatals, got %v", result.Fatals)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("default config should have no warnings, got %v", result.Warnings)
	}
}

func TestValidateTieredUnknownRemoteEdgeIsFatal(t *testing.T) {
	cfg := Default()
	cfg.RemoteEdge = "north"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("unknown remote_edge should be fatal")
	}
	found := false
	for _, err := range result.Fatals {
		if strings.Contains(err.Error(), "remote_edge") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected remote_edge validation error in fatals")
	}
}

func TestValidateTieredSamePortsIsFatal(t *testing.T) {
	cfg := Default()
	cfg.UDPPort = cfg.TCPPort
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("identical tcp/udp ports should be fatal")
	}
}

func TestValidateTieredThresholdClamped(t *testing.T) {
	cfg := Default()
	cfg.ThresholdPx = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("threshold clamp should be a warning, not fatal: %v", result.Fatals)
	}
	if cfg.ThresholdPx != 1 {
		t.Fatalf("expected threshold_px clamped to 1, got %d", cfg.ThresholdPx)
	}

	cfg.ThresholdPx = 9999
	result = cfg.ValidateTiered()
	if cfg.ThresholdPx != 200 {
		t.Fatalf("expected threshold_px clamped to 200, got %d", cfg.ThresholdPx)
	}
}

func TestValidateTieredNegativeSensitivityReset(t *testing.T) {
	cfg := Default()
	cfg.Sensitivity = -1
	cfg.ValidateTiered()
	if cfg.Sensitivity != 1.5 {
		t.Fatalf("expected sensitivity reset to 1.5, got %f", cfg.Sensitivity)
	}
}

func TestValidateTieredLivenessWindowClampedToBeaconMultiple(t *testing.T) {
	cfg := Default()
	cfg.BeaconIntervalSeconds = 2
	cfg.LivenessWindowSeconds = 1
	cfg.ValidateTiered()
	if cfg.LivenessWindowSeconds != 6 {
		t.Fatalf("expected liveness_window_seconds clamped to 6, got %d", cfg.LivenessWindowSeconds)
	}
}

func TestValidateTieredInvalidLogLevelWarns(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("invalid log level should be a warning, not fatal: %v", result.Fatals)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected log_level reset to info, got %q", cfg.LogLevel)
	}
}
