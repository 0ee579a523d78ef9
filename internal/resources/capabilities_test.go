package resources

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/HendryAvila/scout/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestCapabilitiesResource_Definition(t *testing.T) {
	h := NewHandler(config.Settings{})
	res := h.CapabilitiesResource()

	if res.URI != "scout://capabilities" {
		t.Errorf("URI = %q, want scout://capabilities", res.URI)
	}
	if res.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q, want application/json", res.MIMEType)
	}
}

func TestHandleCapabilities_ReportsFlagsAndTTL(t *testing.T) {
	h := NewHandler(config.Settings{
		Grounding:  true,
		URLContext: false,
		CacheTTL:   30 * time.Minute,
		Model:      "gemini-2.5-flash",
	})

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "scout://capabilities"

	contents, err := h.HandleCapabilities(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleCapabilities failed: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}

	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatal("expected text resource contents")
	}

	var doc struct {
		Features        map[string]bool `json:"features"`
		CacheTTLSeconds int             `json:"cacheTTLSeconds"`
		Model           string          `json:"model"`
	}
	if err := json.Unmarshal([]byte(text.Text), &doc); err != nil {
		t.Fatalf("capabilities is not valid JSON: %v", err)
	}

	if !doc.Features["grounding"] {
		t.Error("grounding flag should be true")
	}
	if doc.Features["urlContext"] {
		t.Error("urlContext flag should be false")
	}
	if doc.CacheTTLSeconds != 1800 {
		t.Errorf("cacheTTLSeconds = %d, want 1800", doc.CacheTTLSeconds)
	}
	if doc.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", doc.Model)
	}
}
