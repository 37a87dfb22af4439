package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCode reports the Code of err, Other when err carries no *Error.
func ErrCode(err error) Code {
	var pgerr *Error
	if errors.As(err, &pgerr) {
		return pgerr.Code
	}
	return Other
}

// ConvertPgError converts a raw Postgres error into an *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// generateErrorCode builds a <DOMAIN>_<ACTION> code such as
// BROWSER_META_INVALID for log correlation.
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}
	domain := strings.ToUpper(tableName)

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	case UndefinedTable:
		action = "MISSING_TABLE"
	case ConnectionFailure, TooManyConnections:
		action = "UNAVAILABLE"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// describe produces a readable sentence about the failure for the logs.
func describe(sqlErr *Error) string {
	entityName := humanizeText(sqlErr.TableName)
	if entityName == "" {
		entityName = "Record"
	}

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)
	case UniqueViolation:
		return fmt.Sprintf("A %s with this identifier already exists", entityName)
	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)
	case CheckViolation:
		if sqlErr.ConstraintName != "" {
			return fmt.Sprintf("%s violates constraint %s", entityName, sqlErr.ConstraintName)
		}
		return "One or more values do not meet required conditions"
	case UndefinedTable:
		return "Table is missing, run `shield migrate`"
	case ConnectionFailure, TooManyConnections:
		return "Database is unavailable"
	default:
		return "An error occurred while processing the query"
	}
}

// humanizeText converts snake_case into Title Case: "browser_meta" => "Browser Meta".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// Details describes a database failure for structured logs. ok is false when
// err did not come from the database driver.
type Details struct {
	Code         Code
	ErrorCode    string
	DatabaseCode string
	Description  string
}

// Describe classifies err for logging.
func Describe(err error) (Details, bool) {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)
		return Details{
			Code:         sqlErr.Code,
			ErrorCode:    generateErrorCode(sqlErr.TableName, sqlErr.Code),
			DatabaseCode: sqlErr.DatabaseCode,
			Description:  describe(sqlErr),
		}, true
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return Details{Code: Other, ErrorCode: "RECORD_NOT_FOUND", Description: "No rows in result set"}, true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, sql.ErrConnDone) {
		return Details{Code: ConnectionFailure, ErrorCode: "DATABASE_UNAVAILABLE", Description: "Database is unavailable"}, true
	}

	return Details{}, false
}

// HandleError converts an error that escaped a handler into the HTTP error
// the client sees.
//
// Output:
//   - If already *errs.HTTPError: returned unchanged
//   - Anything else, database failures included: a generic 500
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	return errs.NewInternalServerError()
}
