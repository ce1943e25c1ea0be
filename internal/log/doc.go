// Package log builds the padwatch slog logger.
//
// Every record passes through SecureHandler, which masks Matrix
// passwords and access tokens, pad-server session cookies and HTTP
// authorization headers before they reach the text or JSON handler.
// Secrets are masked at every level, including debug.
//
// # Usage
//
//	logger, err := log.New(os.Stderr, "info", "text")
//	if err != nil {
//	    return err
//	}
//	logger.Info("logged in", "password", cfg.Password) // password=***REDACTED***
package log
