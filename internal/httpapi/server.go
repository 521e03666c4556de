// Package httpapi exposes the tool dispatcher over HTTP for clients that do
// not speak MCP. Discovery and invocation go through the same registry and
// dispatcher as the stdio transport, so both surfaces behave identically.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tablegate/tablegate/internal/registry"
	"github.com/tablegate/tablegate/internal/tools"
	"github.com/tablegate/tablegate/pkg/toolerr"
	"github.com/tablegate/tablegate/pkg/version"
)

// Server serves tool discovery and invocation over HTTP.
type Server struct {
	serviceName string
	dispatcher  *tools.Dispatcher
	registry    *registry.Registry
	filter      *registry.WriteToolFilter
	logger      zerolog.Logger
}

// New constructs a Server sharing the dispatcher and registry with the MCP
// transport.
func New(serviceName string, d *tools.Dispatcher, reg *registry.Registry, filter *registry.WriteToolFilter, logger zerolog.Logger) *Server {
	return &Server{
		serviceName: serviceName,
		dispatcher:  d,
		registry:    reg,
		filter:      filter,
		logger:      logger.With().Str("component", "httpapi").Logger(),
	}
}

// Router builds the chi route tree with CORS and request logging applied.
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(corsMiddleware(corsOrigins))

	r.Get("/health", s.handleHealth)
	r.Get("/tools", s.handleListTools)
	r.Post("/tools/call", s.handleCallTool)

	return r
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: s.serviceName,
		Version: version.Version(),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	defs, err := s.registry.Tools(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	defs = s.filter.FilterTools(r.Context(), defs)
	writeJSON(w, http.StatusOK, map[string]any{"tools": defs})
}

type callRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callResponse struct {
	Result  []contentBlock `json:"result"`
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "tool name is required"})
		return
	}

	var result tools.Result
	if !s.filter.Allowed(req.Name) {
		result = tools.Result{
			Text:    toolerr.Newf(toolerr.Validation, "tool %s modifies data and writes are disabled; set TABLEGATE_ENABLE_WRITES=true to enable it", req.Name),
			IsError: true,
		}
	} else {
		result = s.dispatcher.Dispatch(r.Context(), req.Name, req.Arguments)
	}

	resp := callResponse{
		Result:  []contentBlock{{Type: "text", Text: result.Text}},
		Success: !result.IsError,
	}
	if result.IsError {
		resp.Error = result.Text
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
