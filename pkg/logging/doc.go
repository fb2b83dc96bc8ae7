// Package logging provides structured logging configuration for testkit.
//
// It wraps log/slog so every component logs the same way. Components
// accept a *slog.Logger in their constructor or via an option; when no
// logger is supplied they fall back to logging.Nop().
//
// Create a logger with the desired configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server started", "port", 4280)
package logging
