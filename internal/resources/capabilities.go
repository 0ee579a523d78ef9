// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data the host can consume for context.
// They use URI-based addressing (scout://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/scout/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages the scout resource endpoints.
type Handler struct {
	cfg config.Settings
}

// NewHandler creates a resource Handler for the given settings.
func NewHandler(cfg config.Settings) *Handler {
	return &Handler{cfg: cfg}
}

// CapabilitiesResource returns the MCP resource definition for the
// server capabilities document.
func (h *Handler) CapabilitiesResource() mcp.Resource {
	return mcp.NewResource(
		"scout://capabilities",
		"Scout Capabilities",
		mcp.WithResourceDescription("Enabled feature flags and the active cache TTL"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleCapabilities returns the capabilities document as JSON. It is
// informational only; nothing in the protocol flow depends on it.
func (h *Handler) HandleCapabilities(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc := map[string]any{
		"features": map[string]bool{
			"grounding":  h.cfg.Grounding,
			"urlContext": h.cfg.URLContext,
		},
		"cacheTTLSeconds": int(h.cfg.CacheTTL.Seconds()),
		"model":           h.cfg.Model,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling capabilities: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
