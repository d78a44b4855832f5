// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.

package conf

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"
)

func TestLoggerConfigDefaults(t *testing.T) {
	cfg := DefaultLoggerConfig()

	if cfg.LogFile != "" {
		t.Errorf("Expected empty LogFile, got %s", cfg.LogFile)
	}
	if cfg.Level != "info" {
		t.Errorf("Expected Level 'info', got %s", cfg.Level)
	}
	if cfg.MaxSize != 100 {
		t.Errorf("Expected MaxSize 100, got %d", cfg.MaxSize)
	}
	if cfg.MaxBackups != 10 {
		t.Errorf("Expected MaxBackups 10, got %d", cfg.MaxBackups)
	}
	if cfg.MaxAge != 30 {
		t.Errorf("Expected MaxAge 30, got %d", cfg.MaxAge)
	}
	if !cfg.Compress {
		t.Error("Expected Compress true")
	}
	if cfg.TotalSizeCap != 0 {
		t.Errorf("Expected TotalSizeCap 0, got %d", cfg.TotalSizeCap)
	}
	if !cfg.Console {
		t.Error("Expected Console true")
	}
	if !cfg.JSONFormat {
		t.Error("Expected JSONFormat true")
	}

	t.Log("✓ Default logger config is correct")
}

func TestLoggerConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		config   LoggerConfig
		expected LoggerConfig
	}{
		{
			name:     "negative MaxSize should be corrected",
			config:   LoggerConfig{MaxSize: -1, MaxBackups: 10, MaxAge: 30},
			expected: LoggerConfig{MaxSize: 100, MaxBackups: 10, MaxAge: 30},
		},
		{
			name:     "zero MaxSize should be corrected",
			config:   LoggerConfig{MaxSize: 0, MaxBackups: 10, MaxAge: 30},
			expected: LoggerConfig{MaxSize: 100, MaxBackups: 10, MaxAge: 30},
		},
		{
			name:     "negative MaxBackups should be corrected",
			config:   LoggerConfig{MaxSize: 100, MaxBackups: -1, MaxAge: 30},
			expected: LoggerConfig{MaxSize: 100, MaxBackups: 10, MaxAge: 30},
		},
		{
			name:     "negative MaxAge should be corrected",
			config:   LoggerConfig{MaxSize: 100, MaxBackups: 10, MaxAge: -1},
			expected: LoggerConfig{MaxSize: 100, MaxBackups: 10, MaxAge: 30},
		},
		{
			name:     "valid config should not change",
			config:   LoggerConfig{MaxSize: 50, MaxBackups: 5, MaxAge: 7},
			expected: LoggerConfig{MaxSize: 50, MaxBackups: 5, MaxAge: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); err != nil {
				t.Errorf("Validate() returned error: %v", err)
			}
			if tt.config.MaxSize != tt.expected.MaxSize {
				t.Errorf("MaxSize: expected %d, got %d", tt.expected.MaxSize, tt.config.MaxSize)
			}
			if tt.config.MaxBackups != tt.expected.MaxBackups {
				t.Errorf("MaxBackups: expected %d, got %d", tt.expected.MaxBackups, tt.config.MaxBackups)
			}
			if tt.config.MaxAge != tt.expected.MaxAge {
				t.Errorf("MaxAge: expected %d, got %d", tt.expected.MaxAge, tt.config.MaxAge)
			}
		})
	}

	t.Log("✓ Logger config validation works correctly")
}

func TestLoggerConfigJSONRoundTrip(t *testing.T) {
	cfg := LoggerConfig{
		LogFile:      "ledger.log",
		Level:        "debug",
		MaxSize:      100,
		MaxBackups:   10,
		MaxAge:       30,
		Compress:     true,
		TotalSizeCap: 500,
		LocalTime:    true,
		Console:      true,
		JSONFormat:   true,
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("JSON marshal failed: %v", err)
	}
	var cfg2 LoggerConfig
	if err := json.Unmarshal(data, &cfg2); err != nil {
		t.Fatalf("JSON unmarshal failed: %v", err)
	}

	if cfg2 != cfg {
		t.Errorf("round-trip mismatch: %+v != %+v", cfg2, cfg)
	}
	t.Log("✓ JSON serialization works correctly")
}

func TestLoggerConfigYAMLRoundTrip(t *testing.T) {
	cfg := LoggerConfig{
		LogFile: "ledger.log",
		Level:   "debug",
		MaxSize: 100,
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("YAML marshal failed: %v", err)
	}
	var cfg2 LoggerConfig
	if err := yaml.Unmarshal(data, &cfg2); err != nil {
		t.Fatalf("YAML unmarshal failed: %v", err)
	}

	if cfg2.LogFile != cfg.LogFile || cfg2.Level != cfg.Level {
		t.Errorf("round-trip mismatch: %+v != %+v", cfg2, cfg)
	}
	t.Log("✓ YAML serialization works correctly")
}

func TestLoggerConfigJSONTags(t *testing.T) {
	cfg := LoggerConfig{
		LogFile:    "test.log",
		MaxBackups: 5,
		MaxAge:     7,
	}

	data, _ := json.Marshal(cfg)
	jsonStr := string(data)

	expectedTags := []string{
		`"name":`,
		`"level":`,
		`"max_size":`,
		`"max_count":`,
		`"max_day":`,
		`"compress":`,
		`"total_size_cap":`,
		`"local_time":`,
		`"console":`,
		`"json_format":`,
	}
	for _, tag := range expectedTags {
		if !strings.Contains(jsonStr, tag) {
			t.Errorf("Expected JSON tag %s not found in %s", tag, jsonStr)
		}
	}
	t.Log("✓ JSON tags are correct")
}

func TestLoggerConfigProductionRecommendation(t *testing.T) {
	production := LoggerConfig{
		LogFile:      "ledger.log",
		Level:        "info",
		MaxSize:      100,
		MaxBackups:   10,
		MaxAge:       30,
		Compress:     true,
		TotalSizeCap: 1000,
		LocalTime:    true,
		Console:      false,
		JSONFormat:   true,
	}

	if err := production.Validate(); err != nil {
		t.Errorf("Production config validation failed: %v", err)
	}
	if production.Console {
		t.Error("Production config should not output to console")
	}
	if !production.Compress {
		t.Error("Production config should enable compression")
	}
	if !production.JSONFormat {
		t.Error("Production config should use JSON format")
	}
	t.Log("✓ Production config is valid and reasonable")
}
