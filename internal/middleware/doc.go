// Package middleware provides the HTTP middleware for photo-share.
//
// It includes:
//   - Access logging in W3C Extended Log Format, written through the logging package
//   - Prometheus request metrics labelled by mux route template
package middleware
