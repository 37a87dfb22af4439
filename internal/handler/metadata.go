package handler

import (
	"net/http"

	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/deppfellow/bltz-shield/internal/model/metadata"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/deppfellow/bltz-shield/internal/service"
	"github.com/labstack/echo/v4"
)

// MetadataHandler serves POST /metadata and GET /metadata/recent (and
// their /api aliases).
type MetadataHandler struct {
	Handler
	metadata *service.MetadataService
}

func NewMetadataHandler(s *server.Server, metadataService *service.MetadataService) *MetadataHandler {
	return &MetadataHandler{
		Handler:  NewHandler(s),
		metadata: metadataService,
	}
}

// Accept handles POST /metadata. Callers have already checked the API key.
func (h *MetadataHandler) Accept() echo.HandlerFunc {
	next := Handle(h.Handler, h.accept, http.StatusOK, h.metadata.Schema().NewAcceptRequest)

	return func(c echo.Context) error {
		err := next(c)
		if h.server.Metrics != nil {
			result := errs.ResultSuccess
			if err != nil {
				result = errs.ResultError
			}
			h.server.Metrics.RecordMetadataResult(result)
		}
		return err
	}
}

func (h *MetadataHandler) accept(c echo.Context, req *metadata.AcceptMetadataRequest) (*metadata.AcceptResponse, error) {
	return h.metadata.Accept(c.Request().Context(), req)
}

// Recent handles GET /metadata/recent.
func (h *MetadataHandler) Recent() echo.HandlerFunc {
	return Handle(h.Handler, h.recent, http.StatusOK, h.metadata.Schema().NewRecentRequest)
}

func (h *MetadataHandler) recent(c echo.Context, req *metadata.RecentMetadataRequest) (*metadata.RecentResponse, error) {
	return h.metadata.Recent(c.Request().Context(), req)
}
