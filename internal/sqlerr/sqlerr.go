// Package sqlerr handles database driver errors.
//
// It parses the SQLSTATE codes reported by Postgres (and the generic driver
// errors of database/sql) into a small set of categories so failures can be
// logged with a readable description. Clients never see that detail: every
// storage failure surfaces as a 500.
package sqlerr
