package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantOK    bool
		wantCode  Code
		wantError string
		wantDesc  string
	}{
		{
			name:      "unique violation",
			err:       fmt.Errorf("inserting: %w", &pgconn.PgError{Code: "23505", TableName: "browser_meta", Severity: "ERROR"}),
			wantOK:    true,
			wantCode:  UniqueViolation,
			wantError: "BROWSER_META_ALREADY_EXISTS",
			wantDesc:  "A Browser Meta with this identifier already exists",
		},
		{
			name:      "not null",
			err:       &pgconn.PgError{Code: "23502", TableName: "browser_meta", ColumnName: "meta_data"},
			wantOK:    true,
			wantCode:  NotNullViolation,
			wantError: "BROWSER_META_REQUIRED",
			wantDesc:  "The Meta Data is required",
		},
		{
			name:      "missing table",
			err:       &pgconn.PgError{Code: "42P01"},
			wantOK:    true,
			wantCode:  UndefinedTable,
			wantError: "RECORD_MISSING_TABLE",
		},
		{
			name:      "unknown sqlstate",
			err:       &pgconn.PgError{Code: "22P02"},
			wantOK:    true,
			wantCode:  Other,
			wantError: "RECORD_ERROR",
		},
		{
			name:      "no rows",
			err:       fmt.Errorf("select: %w", pgx.ErrNoRows),
			wantOK:    true,
			wantCode:  Other,
			wantError: "RECORD_NOT_FOUND",
		},
		{
			name:   "not a database error",
			err:    errors.New("boom"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Describe(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("Describe() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.ErrorCode != tt.wantError {
				t.Errorf("ErrorCode = %q, want %q", got.ErrorCode, tt.wantError)
			}
			if tt.wantDesc != "" && got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
		})
	}
}

func TestConvertPgError(t *testing.T) {
	src := &pgconn.PgError{Code: "40P01", Severity: "FATAL", Message: "deadlock detected"}
	converted := ConvertPgError(src)

	if converted.Code != DeadlockDetected || converted.Severity != SeverityFatal {
		t.Errorf("ConvertPgError() = %+v", converted)
	}
	if !errors.Is(converted, src) {
		t.Error("converted error does not unwrap to the driver error")
	}
	if ErrCode(fmt.Errorf("wrapped: %w", converted)) != DeadlockDetected {
		t.Error("ErrCode() did not find the wrapped *Error")
	}
	if ErrCode(errors.New("plain")) != Other {
		t.Error("ErrCode() of a plain error is not Other")
	}
	if MapSeverity("SHOUTING") != SeverityError {
		t.Error("unknown severity not mapped to ERROR")
	}
}

func TestHandleError(t *testing.T) {
	unauthorized := errs.NewUnauthorizedError(errs.MsgUnauthorized)
	if got := HandleError(unauthorized); got != unauthorized {
		t.Errorf("HandleError() replaced an HTTPError: %v", got)
	}

	var httpErr *errs.HTTPError
	got := HandleError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	if !errors.As(got, &httpErr) {
		t.Fatalf("HandleError() = %v, want *errs.HTTPError", got)
	}
	if httpErr.Status != http.StatusInternalServerError || httpErr.Message != errs.MsgInternal {
		t.Errorf("HandleError() = %+v, want generic 500", httpErr)
	}
}
