package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/labstack/echo/v4"
)

func TestDecodeJSONObject(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields int
		wantErr    error
		wantAnyErr bool
	}{
		{name: "empty body", body: "", wantFields: 0},
		{name: "empty object", body: "{}", wantFields: 0},
		{name: "object", body: `{"test":"data","n":1}`, wantFields: 2},
		{name: "surrounding whitespace", body: " \n{\"a\":true}\n ", wantFields: 1},
		{name: "array", body: `[1,2]`, wantErr: ErrNotJSONObject},
		{name: "string", body: `"hello"`, wantErr: ErrNotJSONObject},
		{name: "null", body: `null`, wantErr: ErrNotJSONObject},
		{name: "garbage", body: `not-json`, wantAnyErr: true},
		{name: "trailing data", body: `{"a":1}{"b":2}`, wantAnyErr: true},
		{name: "truncated", body: `{"a":`, wantAnyErr: true},
		{name: "invalid utf-8 in string", body: "{\"a\":\"\xff\xfe\"}", wantAnyErr: true},
		{name: "invalid utf-8 in key", body: "{\"\xc3\x28\":1}", wantAnyErr: true},
		{name: "multibyte utf-8", body: `{"name":"日本語 ✓"}`, wantFields: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := DecodeJSONObject([]byte(tt.body))

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAnyErr:
				if err == nil {
					t.Fatal("error = nil, want parse error")
				}
				if errors.Is(err, ErrNotJSONObject) {
					t.Fatal("parse error reported as ErrNotJSONObject")
				}
			default:
				if err != nil {
					t.Fatalf("error = %v", err)
				}
				if len(obj) != tt.wantFields {
					t.Errorf("len = %d, want %d", len(obj), tt.wantFields)
				}
			}
		})
	}
}

func TestParseISOTime(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{"2025-01-15T10:30:00Z", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2025-01-15T10:30:00.5+07:00", time.Date(2025, 1, 15, 3, 30, 0, 500000000, time.UTC)},
		{"2025-01-15T10:30:00.123456", time.Date(2025, 1, 15, 10, 30, 0, 123456000, time.UTC)},
		{"2025-01-15T10:30", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2025-01-15 10:30:00", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2025-01-15", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseISOTime(tt.value)
			if err != nil {
				t.Fatalf("ParseISOTime() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseISOTime() = %v, want %v", got, tt.want)
			}
		})
	}

	for _, bad := range []string{"", "yesterday", "15/01/2025", "2025-13-01", "1736937000"} {
		if _, err := ParseISOTime(bad); err == nil {
			t.Errorf("ParseISOTime(%q) error = nil", bad)
		}
	}
}

type rawPayload struct {
	body  map[string]any
	check func(map[string]any) error
}

func (p *rawPayload) BindBody(body []byte) error {
	obj, err := DecodeJSONObject(body)
	if err != nil {
		return err
	}
	p.body = obj
	return nil
}

func (p *rawPayload) Validate() error {
	if p.check == nil {
		return nil
	}
	return p.check(p.body)
}

type queryPayload struct {
	Limit int    `query:"limit" validate:"min=1,max=100"`
	Name  string `query:"name" validate:"required"`
}

func (p *queryPayload) Validate() error {
	return New().Struct(p)
}

func newContext(method, target, body string) echo.Context {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestBindAndValidate(t *testing.T) {
	requireKey := func(obj map[string]any) error {
		if _, ok := obj["id"]; !ok {
			return CustomValidationErrors{{Field: "id", Message: "is required"}}
		}
		return nil
	}

	tests := []struct {
		name        string
		ctx         echo.Context
		payload     Validatable
		wantMessage string
		wantFields  []string
	}{
		{
			name:    "valid body",
			ctx:     newContext(http.MethodPost, "/", `{"id":1}`),
			payload: &rawPayload{check: requireKey},
		},
		{
			name:        "invalid json",
			ctx:         newContext(http.MethodPost, "/", `{`),
			payload:     &rawPayload{},
			wantMessage: errs.MsgInvalidJSON,
		},
		{
			name:        "not an object",
			ctx:         newContext(http.MethodPost, "/", `[]`),
			payload:     &rawPayload{},
			wantMessage: errs.MsgNotJSONObject,
		},
		{
			name:        "custom validation",
			ctx:         newContext(http.MethodPost, "/", `{"name":"x"}`),
			payload:     &rawPayload{check: requireKey},
			wantMessage: "Invalid id: is required",
			wantFields:  []string{"id"},
		},
		{
			name:    "valid query",
			ctx:     newContext(http.MethodGet, "/?limit=5&name=a", ""),
			payload: &queryPayload{},
		},
		{
			name:        "query tag failures",
			ctx:         newContext(http.MethodGet, "/?limit=500", ""),
			payload:     &queryPayload{},
			wantMessage: "Invalid limit: must not exceed 100",
			wantFields:  []string{"limit", "name"},
		},
		{
			name:        "query type mismatch",
			ctx:         newContext(http.MethodGet, "/?limit=many", ""),
			payload:     &queryPayload{},
			wantMessage: "Invalid request parameters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := BindAndValidate(tt.ctx, tt.payload)

			if tt.wantMessage == "" {
				if err != nil {
					t.Fatalf("BindAndValidate() error = %v", err)
				}
				return
			}

			var httpErr *errs.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("error = %v, want *errs.HTTPError", err)
			}
			if httpErr.Status != http.StatusBadRequest {
				t.Errorf("Status = %d, want 400", httpErr.Status)
			}
			if httpErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", httpErr.Message, tt.wantMessage)
			}

			var gotFields []string
			for _, fe := range httpErr.Errors {
				gotFields = append(gotFields, fe.Field)
			}
			if strings.Join(gotFields, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("fields = %v, want %v", gotFields, tt.wantFields)
			}
		})
	}
}
