// Package config provides configuration management and environment variable handling for the application
package config

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging directs the standard logger to the configured output.
// File outputs are size-rotated so long-running deployments do not fill the disk.
func SetupLogging(cfg LoggingConfig) {
	var writer io.Writer

	switch cfg.Output {
	case "file":
		writer = newRotatingWriter(cfg)
	case "both":
		writer = io.MultiWriter(os.Stdout, newRotatingWriter(cfg))
	default:
		writer = os.Stdout
	}

	log.SetOutput(writer)
	log.SetFlags(log.LstdFlags | log.LUTC)
}

func newRotatingWriter(cfg LoggingConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}
