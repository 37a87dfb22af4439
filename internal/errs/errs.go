// Package errs defines the error types the HTTP layer hands back to clients.
//
// Every failure a request can hit (unknown route, bad credential, malformed
// body, failed field check, internal fault) is expressed as an *HTTPError so
// the global error handler can render one consistent JSON envelope.
package errs
