// Package service contains the business logic.
//
// It sits between the handler and repository layers: it receives requests
// the handler has already bound and validated, builds the response
// documents, and calls the repository stores to persist or list records.
package service
