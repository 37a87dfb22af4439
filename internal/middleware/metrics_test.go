package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/labstack/echo/v4"
)

func TestResponseStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no error", nil, http.StatusAccepted},
		{"http error", errs.NewUnauthorizedError(errs.MsgUnauthorized), http.StatusUnauthorized},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound},
		{"echo method not allowed", echo.ErrMethodNotAllowed, http.StatusNotFound},
		{"echo body too large", echo.ErrStatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			c.Response().WriteHeader(http.StatusAccepted)

			if got := responseStatus(c, tt.err); got != tt.want {
				t.Errorf("responseStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
