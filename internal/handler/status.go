package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/deppfellow/bltz-shield/internal/service"
	"github.com/labstack/echo/v4"
)

const (
	ServiceName    = "BLTZ Shield API"
	ServiceVersion = "1.0.0"
)

//go:embed templates/landing.html
var templateFS embed.FS

var landingTemplate = template.Must(template.ParseFS(templateFS, "templates/landing.html"))

// Endpoint describes one route in the status document.
type Endpoint struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
	Auth        bool   `json:"auth"`
}

// StatusResponse is the document served by GET / and GET /api. It never
// includes the API key.
type StatusResponse struct {
	Result         string     `json:"result"`
	Message        string     `json:"message"`
	Timestamp      string     `json:"timestamp"`
	Name           string     `json:"name"`
	Version        string     `json:"version"`
	Status         string     `json:"status"`
	Storage        string     `json:"storage"`
	SchemaEnforced bool       `json:"schema_enforced"`
	Models         []string   `json:"supported_models"`
	Endpoints      []Endpoint `json:"endpoints"`
	Authentication string     `json:"authentication"`
}

// StatusHandler serves the service description and the browser landing page.
type StatusHandler struct {
	Handler
	metadata *service.MetadataService
}

func NewStatusHandler(s *server.Server, metadataService *service.MetadataService) *StatusHandler {
	return &StatusHandler{
		Handler:  NewHandler(s),
		metadata: metadataService,
	}
}

// Endpoints lists the routes this configuration serves.
func (h *StatusHandler) Endpoints() []Endpoint {
	endpoints := []Endpoint{
		{Path: "/", Method: http.MethodGet, Description: "Service status (HTML for browsers)"},
		{Path: "/api", Method: http.MethodGet, Description: "Service status"},
		{Path: "/metadata", Method: http.MethodPost, Description: "Submit browser metadata", Auth: true},
		{Path: "/api/metadata", Method: http.MethodPost, Description: "Submit browser metadata", Auth: true},
	}
	if h.metadata.CanRead() {
		endpoints = append(endpoints,
			Endpoint{Path: "/metadata/recent", Method: http.MethodGet, Description: "List recent metadata records", Auth: true},
			Endpoint{Path: "/api/metadata/recent", Method: http.MethodGet, Description: "List recent metadata records", Auth: true},
		)
	}
	endpoints = append(endpoints, Endpoint{Path: "/status", Method: http.MethodGet, Description: "Dependency health"})
	if metrics := h.server.Config.Observability.Metrics; metrics.Enabled {
		endpoints = append(endpoints, Endpoint{Path: metrics.Path, Method: http.MethodGet, Description: "Prometheus metrics"})
	}
	return endpoints
}

func (h *StatusHandler) status() StatusResponse {
	return StatusResponse{
		Result:         errs.ResultSuccess,
		Message:        ServiceName + " is running",
		Timestamp:      errs.FormatTimestamp(time.Now()),
		Name:           ServiceName,
		Version:        ServiceVersion,
		Status:         "running",
		Storage:        h.server.Config.Storage.Backend,
		SchemaEnforced: h.metadata.Schema().Enforced(),
		Models:         h.metadata.Schema().Models(),
		Endpoints:      h.Endpoints(),
		Authentication: "X-API-Key header required",
	}
}

// Status handles GET /api.
func (h *StatusHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status())
}

// Landing handles GET /: HTML when the client prefers it, the status
// document otherwise.
func (h *StatusHandler) Landing(c echo.Context) error {
	if !prefersHTML(c.Request().Header.Get(echo.HeaderAccept)) {
		return h.Status(c)
	}

	var buf bytes.Buffer
	if err := landingTemplate.Execute(&buf, h.status()); err != nil {
		return fmt.Errorf("failed to render landing page: %w", err)
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// prefersHTML reports whether text/html is listed in the Accept header
// before any JSON type. Browsers send text/html first; API clients and
// curl do not mention it.
func prefersHTML(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch mediaType {
		case echo.MIMETextHTML:
			return true
		case echo.MIMEApplicationJSON:
			return false
		}
	}
	return false
}
