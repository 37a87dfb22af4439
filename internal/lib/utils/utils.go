// Package utils contains small helpers used across the project.
package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// PrettyJSON renders v as indented JSON.
func PrettyJSON(v interface{}) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling JSON: %w", err)
	}
	return string(out), nil
}

// PrintJSON writes v to w as indented JSON, followed by a newline.
func PrintJSON(w io.Writer, v interface{}) error {
	out, err := PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// ShellQuote wraps s in single quotes for a POSIX shell.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
