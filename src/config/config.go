package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvFileEnvVar = "SCREENSHOT_GRIM_ENV"

	ShootTypeRegion    = "region"
	ShootTypeOutput    = "output"
	ShootTypeRectangle = "rectangle"

	DefaultImageType = "ppm"
	MaxDelaySec      = 20
)

type LoadOptions struct {
	// EnvFileOverride names a .env file to read instead of the default lookup.
	EnvFileOverride   string
	ShootTypeOverride string
	LogLevelOverride  string
}

type Config struct {
	EnvFile             string
	GrimPath            string
	SlurpPath           string
	ShootType           string
	Output              string
	IncludePointer      bool
	DelaySec            int
	ImageType           string
	SaveDir             string
	EnableFileLogging   bool
	LogLevel            string
	EnableNotifications bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Configuration sources in priority order:
	// 1) explicit overrides in opts
	// 2) process environment
	// 3) .env from opts.EnvFileOverride, else beside the executable, else $SCREENSHOT_GRIM_ENV
	envPath := resolveEnvPath(opts)
	if envPath != "" {
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
		}
	}

	delay, err := getEnvInt("SCREENSHOT_DELAY", 0)
	if err != nil {
		return nil, err
	}
	if delay < 0 || delay > MaxDelaySec {
		return nil, fmt.Errorf("SCREENSHOT_DELAY must be between 0 and %d, got %d", MaxDelaySec, delay)
	}

	shootType, err := resolveShootType(firstNonEmpty(opts.ShootTypeOverride, os.Getenv("SHOOT_TYPE")))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		EnvFile:             envPath,
		GrimPath:            getEnvWithDefault("GRIM_PATH", "grim"),
		SlurpPath:           getEnvWithDefault("SLURP_PATH", "slurp"),
		ShootType:           shootType,
		Output:              strings.TrimSpace(os.Getenv("WAYLAND_OUTPUT")),
		IncludePointer:      getEnvBool("INCLUDE_POINTER"),
		DelaySec:            delay,
		ImageType:           strings.ToLower(getEnvWithDefault("IMAGE_TYPE", DefaultImageType)),
		SaveDir:             expandHome(os.Getenv("SAVE_DIR")),
		EnableFileLogging:   getEnvBool("ENABLE_FILE_LOGGING"),
		LogLevel:            firstNonEmpty(opts.LogLevelOverride, getEnvWithDefault("LOG_LEVEL", "warning")),
		EnableNotifications: getEnvBool("ENABLE_NOTIFICATIONS"),
	}

	return cfg, nil
}

func resolveEnvPath(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.EnvFileOverride); override != "" {
		return override
	}

	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func resolveShootType(value string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "", ShootTypeRegion:
		return ShootTypeRegion, nil
	case ShootTypeOutput, ShootTypeRectangle:
		return v, nil
	case "rect":
		return ShootTypeRectangle, nil
	default:
		return "", fmt.Errorf("unknown shoot type %q", value)
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
