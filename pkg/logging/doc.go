// Package logging provides structured logging configuration for httptape.
//
// This package wraps log/slog so the recorder, resolver, session controller
// and CLI all log the same way.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("wrote fixture", "path", path)
//
// Capture and replay messages ("wrote fixture", "using fixture") are logged
// at Debug, or at Info when a session runs with Verbose set.
//
// # Output Formats
//
//   - Text: Human-readable format for development
//   - JSON: Structured format for log aggregation systems
//
// # Integration
//
// Components accept a *slog.Logger in their options. If no logger is
// provided, they use logging.Nop().
package logging
