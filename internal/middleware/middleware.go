// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns such as API key
// authentication, request logging, CORS, rate limiting, metrics and panic
// recovery. The global error handler that renders every error response
// lives here too.
package middleware
