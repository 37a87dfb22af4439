package utils

import (
	"bytes"
	"testing"
)

func TestShellQuote(t *testing.T) {
	tests := map[string]string{
		"":                "''",
		"plain":           "'plain'",
		`{"a":"b c"}`:     `'{"a":"b c"}'`,
		"it's":            `'it'\''s'`,
		"X-API-Key: $KEY": "'X-API-Key: $KEY'",
	}
	for in, want := range tests {
		if got := ShellQuote(in); got != want {
			t.Errorf("ShellQuote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]any{"b": 1, "a": true}); err != nil {
		t.Fatalf("PrintJSON() error = %v", err)
	}
	want := "{\n  \"a\": true,\n  \"b\": 1\n}\n"
	if buf.String() != want {
		t.Errorf("PrintJSON() = %q, want %q", buf.String(), want)
	}

	if _, err := PrettyJSON(make(chan int)); err == nil {
		t.Error("PrettyJSON() accepted an unencodable value")
	}
}
