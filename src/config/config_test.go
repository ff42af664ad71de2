package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Setenv("GRIM_PATH", "/usr/local/bin/grim")
	t.Setenv("SHOOT_TYPE", "output")
	t.Setenv("WAYLAND_OUTPUT", "DP-1")
	t.Setenv("INCLUDE_POINTER", "true")
	t.Setenv("SCREENSHOT_DELAY", "3")
	t.Setenv("ENABLE_FILE_LOGGING", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.GrimPath != "/usr/local/bin/grim" {
		t.Errorf("Expected GrimPath to be '/usr/local/bin/grim', got '%s'", cfg.GrimPath)
	}
	if cfg.SlurpPath != "slurp" {
		t.Errorf("Expected SlurpPath to default to 'slurp', got '%s'", cfg.SlurpPath)
	}
	if cfg.ShootType != ShootTypeOutput {
		t.Errorf("Expected ShootType to be 'output', got '%s'", cfg.ShootType)
	}
	if cfg.Output != "DP-1" {
		t.Errorf("Expected Output to be 'DP-1', got '%s'", cfg.Output)
	}
	if !cfg.IncludePointer {
		t.Error("Expected IncludePointer to be true")
	}
	if cfg.DelaySec != 3 {
		t.Errorf("Expected DelaySec to be 3, got %d", cfg.DelaySec)
	}
	if cfg.ImageType != DefaultImageType {
		t.Errorf("Expected ImageType to default to '%s', got '%s'", DefaultImageType, cfg.ImageType)
	}
	if !cfg.EnableFileLogging {
		t.Error("Expected EnableFileLogging to be true")
	}
}

func TestLoadEnvFileOverride(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "screenshot.env")
	content := "SHOOT_TYPE=rect\nSAVE_DIR=/tmp/shots\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	// godotenv.Load sets variables process-wide; register them for cleanup.
	for _, key := range []string{"SHOOT_TYPE", "SAVE_DIR", "LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadWithOptions(LoadOptions{EnvFileOverride: envFile})
	if err != nil {
		t.Fatalf("LoadWithOptions failed: %v", err)
	}
	if cfg.EnvFile != envFile {
		t.Errorf("Expected EnvFile %q, got %q", envFile, cfg.EnvFile)
	}
	if cfg.ShootType != ShootTypeRectangle {
		t.Errorf("Expected ShootType 'rectangle', got '%s'", cfg.ShootType)
	}
	if cfg.SaveDir != "/tmp/shots" {
		t.Errorf("Expected SaveDir '/tmp/shots', got '%s'", cfg.SaveDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel 'debug', got '%s'", cfg.LogLevel)
	}
}

func TestLoadOverridesWin(t *testing.T) {
	t.Setenv("SHOOT_TYPE", "output")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadWithOptions(LoadOptions{ShootTypeOverride: "region", LogLevelOverride: "trace"})
	if err != nil {
		t.Fatalf("LoadWithOptions failed: %v", err)
	}
	if cfg.ShootType != ShootTypeRegion {
		t.Errorf("Expected override ShootType 'region', got '%s'", cfg.ShootType)
	}
	if cfg.LogLevel != "trace" {
		t.Errorf("Expected override LogLevel 'trace', got '%s'", cfg.LogLevel)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"DelayTooLong", "SCREENSHOT_DELAY", "21"},
		{"NegativeDelay", "SCREENSHOT_DELAY", "-1"},
		{"NonNumericDelay", "SCREENSHOT_DELAY", "soon"},
		{"UnknownShootType", "SHOOT_TYPE", "window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestMissingEnvFileOverride(t *testing.T) {
	_, err := LoadWithOptions(LoadOptions{EnvFileOverride: filepath.Join(t.TempDir(), "missing.env")})
	if err == nil {
		t.Error("Expected error for missing env file")
	}
}
