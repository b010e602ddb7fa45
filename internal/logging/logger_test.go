// Package logging tests
package logging

import (
	"testing"
)

func TestNew(t *testing.T) {
	logger := New()
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.Logger == nil {
		t.Fatal("logger.Logger is nil")
	}
}

func TestNewWithConfig_Levels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug level", "debug", "text"},
		{"info level", "info", "text"},
		{"warn level", "warn", "text"},
		{"error level", "error", "text"},
		{"unknown level defaults to info", "unknown", "text"},
		{"empty level defaults to info", "", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewWithConfig(tt.level, tt.format, "")
			if logger == nil {
				t.Fatal("NewWithConfig() returned nil")
			}
			if logger.Logger == nil {
				t.Fatal("logger.Logger is nil")
			}
			logger.Close()
		})
	}
}

func TestNewWithConfig_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"text format", "text"},
		{"json format", "json"},
		{"unknown format defaults to text", "unknown"},
		{"empty format defaults to text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewWithConfig("info", tt.format, "")
			if logger == nil {
				t.Fatal("NewWithConfig() returned nil")
			}
			logger.Close()
		})
	}
}

func TestComponent(t *testing.T) {
	logger := New()

	child := logger.Component("gateway")
	if child == nil {
		t.Fatal("Component() returned nil")
	}

	// Should not panic
	child.Info("message from child logger")
	child.Debug("debug message", "key", "value")
}
