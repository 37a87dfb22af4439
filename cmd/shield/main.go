// Shield runs the BLTZ Shield API, a small HTTP service that accepts browser
// metadata payloads guarded by a static API key.
//
// Usage:
//
//	# Start the server (same as `shield serve`)
//	shield
//
//	# Apply database migrations for the postgres and queue backends
//	shield migrate
//
//	# Generate a value for SHIELD_AUTH.API_KEY
//	shield keygen
//
//	# Print sample requests for a running server
//	shield curl --url http://localhost:8080
package main

func main() {
	Execute()
}
