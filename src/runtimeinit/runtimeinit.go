package runtimeinit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/facebookincubator/go-belt/tool/logger"

	"screenshot-grim/src/clipboard"
	"screenshot-grim/src/config"
	"screenshot-grim/src/logutil"
	"screenshot-grim/src/notification"
	"screenshot-grim/src/translation"
)

type Options struct {
	LoadOptions config.LoadOptions
	// LogOutput receives log lines; nil means stderr.
	LogOutput io.Writer
	// LogDir holds the log file when file logging is enabled; empty means
	// the user cache directory.
	LogDir        string
	InitClipboard bool
}

// Bootstrap loads the configuration and sets up logging and notifications.
// The returned context carries the logger.
func Bootstrap(ctx context.Context, opts Options) (context.Context, *config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logDir := opts.LogDir
	if logDir == "" && cfg.EnableFileLogging {
		logDir = defaultLogDir()
	}
	ctx, _, err = logutil.Setup(ctx, logutil.Options{
		Level:             cfg.LogLevel,
		EnableFileLogging: cfg.EnableFileLogging,
		LogDir:            logDir,
		Output:            opts.LogOutput,
	})
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	if cfg.EnvFile != "" {
		logger.Debugf(ctx, "loaded %s", cfg.EnvFile)
	}

	if err := translation.Load(); err != nil {
		logger.Warnf(ctx, "failed to load translations: %v", err)
	}
	notification.SetEnabled(cfg.EnableNotifications)

	if opts.InitClipboard {
		if err := clipboard.Init(); err != nil {
			return ctx, nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	return ctx, cfg, nil
}

func defaultLogDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return os.TempDir()
	}
	dir = filepath.Join(dir, "screenshot-grim")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return os.TempDir()
	}
	return dir
}
