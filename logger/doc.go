// Package logger is the zerolog-backed structured logger used across azjwt.
//
// Packages obtain a component logger by name, so applications can redirect
// one component with Register:
//
//	log := logger.Get("discovery")
//	log.Warn("discovery attempt failed", logger.Fields(logger.FieldAttempt, 2))
//
// Tokens are never logged; key ids and discovery URLs are.
package logger
