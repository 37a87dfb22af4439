// Package validation contains the logic for binding and validating request
// data.
//
// It uses the validator library to enforce rules defined in struct tags and
// turns validation failures into the field errors the client receives.
package validation
