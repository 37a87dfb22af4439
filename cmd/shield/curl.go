package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/deppfellow/bltz-shield/internal/config"
	"github.com/deppfellow/bltz-shield/internal/lib/utils"
	"github.com/spf13/cobra"
)

var curlFlags struct {
	url        string
	key        string
	structured bool
	payload    bool
}

var curlCmd = &cobra.Command{
	Use:   "curl",
	Short: "Print sample curl commands",
	Long: `Print curl commands exercising a running server: status, a valid
metadata request, and the 401, 400 and 404 error cases.

The key defaults to SHIELD_AUTH.API_KEY from the environment.

Examples:
  shield curl --url http://localhost:8080
  shield curl --url https://shield.example.com --structured`,
	RunE: runCurl,
}

func init() {
	rootCmd.AddCommand(curlCmd)

	curlCmd.Flags().StringVar(&curlFlags.url, "url", "http://localhost:8080", "base URL of the server")
	curlCmd.Flags().StringVar(&curlFlags.key, "key", "", "API key (default: SHIELD_AUTH.API_KEY)")
	curlCmd.Flags().BoolVar(&curlFlags.structured, "structured", false, "use the model/timestamp/metadata_data payload")
	curlCmd.Flags().BoolVar(&curlFlags.payload, "payload", false, "print only the sample payload, indented")
}

// curlExample is one titled command.
type curlExample struct {
	Title   string
	Expect  int
	Command string
}

func runCurl(cmd *cobra.Command, args []string) error {
	if curlFlags.payload {
		return utils.PrintJSON(cmd.OutOrStdout(), samplePayload(curlFlags.structured, time.Now()))
	}

	key := curlFlags.key
	if key == "" {
		key = os.Getenv(config.EnvPrefix + "AUTH.API_KEY")
	}
	if key == "" {
		key = "<your-api-key>"
	}

	examples, err := curlExamples(curlFlags.url, key, curlFlags.structured, time.Now())
	if err != nil {
		return err
	}
	return writeCurlExamples(cmd.OutOrStdout(), examples)
}

// samplePayload is the body of the valid request.
func samplePayload(structured bool, now time.Time) map[string]any {
	browser := map[string]any{
		"user_agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"language":        "en-US",
		"platform":        "MacIntel",
		"screen":          map[string]any{"width": 1920, "height": 1080},
		"cookies_enabled": true,
	}
	if !structured {
		return browser
	}
	return map[string]any{
		"model":         "gpt",
		"timestamp":     now.UTC().Format(time.RFC3339),
		"metadata_data": browser,
	}
}

func curlExamples(baseURL, key string, structured bool, now time.Time) ([]curlExample, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	body, err := json.Marshal(samplePayload(structured, now))
	if err != nil {
		return nil, fmt.Errorf("encoding sample payload: %w", err)
	}

	post := func(key, body string) string {
		parts := []string{
			"curl -X POST " + utils.ShellQuote(baseURL+"/metadata"),
			"-H 'Content-Type: application/json'",
		}
		if key != "" {
			parts = append(parts, "-H "+utils.ShellQuote("X-API-Key: "+key))
		}
		parts = append(parts, "-d "+utils.ShellQuote(body))
		return strings.Join(parts, " \\\n  ")
	}

	examples := []curlExample{
		{Title: "Service status", Expect: 200, Command: "curl " + utils.ShellQuote(baseURL+"/api")},
		{Title: "Valid metadata request", Expect: 200, Command: post(key, string(body))},
		{Title: "Missing API key", Expect: 401, Command: post("", string(body))},
		{Title: "Wrong API key", Expect: 401, Command: post("wrong_key", string(body))},
		{Title: "Invalid JSON", Expect: 400, Command: post(key, "not-json")},
	}
	if structured {
		examples = append(examples, curlExample{
			Title:   "Unsupported model",
			Expect:  400,
			Command: post(key, `{"model":"unknown","timestamp":"`+now.UTC().Format(time.RFC3339)+`","metadata_data":{}}`),
		})
	}
	examples = append(examples, curlExample{
		Title:   "Unknown endpoint",
		Expect:  404,
		Command: "curl " + utils.ShellQuote(baseURL+"/unknown"),
	})

	return examples, nil
}

func writeCurlExamples(w io.Writer, examples []curlExample) error {
	for i, ex := range examples {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "# %s (expect %d)\n%s\n", ex.Title, ex.Expect, ex.Command); err != nil {
			return err
		}
	}
	return nil
}
