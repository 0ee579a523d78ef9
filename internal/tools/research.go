// Package tools implements the MCP tool handlers.
//
// Each tool is a struct that receives dependencies via its constructor
// and exposes Definition() plus a Handle method compatible with
// mcp-go's CallToolRequest signature.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/HendryAvila/scout/internal/cache"
	"github.com/HendryAvila/scout/internal/delivery"
	"github.com/HendryAvila/scout/internal/research"
	"github.com/mark3labs/mcp-go/mcp"
)

// Uploader pushes oversized report content to blob storage. Implemented
// by delivery.Offloader; tests substitute fakes.
type Uploader interface {
	Offload(ctx context.Context, content, query string) (string, error)
}

// ResearchTool handles the deep-research MCP tool. Per call it derives
// the request fingerprint, consults the result cache, invokes the
// research engine on a miss, decides inline vs offloaded delivery, and
// writes the snapshot back to the cache.
//
// A tool call must always resolve: every failure path returns a
// well-formed error-content result, never a Go error to the protocol
// layer and never a broken connection.
type ResearchTool struct {
	engine   research.Engine
	cache    *cache.ResultCache
	uploader Uploader
	remote   bool // stateless/remote transport: always offload
	logger   *slog.Logger
}

// NewResearchTool creates a ResearchTool with its dependencies. remote
// must be true when the tool serves a stateless/remote HTTP binding.
func NewResearchTool(engine research.Engine, rc *cache.ResultCache, uploader Uploader, remote bool, logger *slog.Logger) *ResearchTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResearchTool{
		engine:   engine,
		cache:    rc,
		uploader: uploader,
		remote:   remote,
		logger:   logger,
	}
}

// Definition returns the MCP tool definition for registration.
func (t *ResearchTool) Definition() mcp.Tool {
	return mcp.NewTool("deep-research",
		mcp.WithDescription(
			"Run deep, multi-step web research on a query and deliver a markdown report. "+
				"Results are cached: repeating an identical query within the cache window "+
				"returns the earlier report without re-running the pipeline. Large reports "+
				"are uploaded to storage and returned as a signed download link.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The research question or topic"),
		),
		mcp.WithNumber("depth",
			mcp.Description("Recursion depth of follow-up research, 1-5 (default 3)"),
		),
		mcp.WithNumber("breadth",
			mcp.Description("Parallel search directions per level, 1-5 (default 3)"),
		),
		mcp.WithArray("existingLearnings",
			mcp.Description("Learnings from earlier runs to build on instead of rediscovering"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("goal",
			mcp.Description("What the research should ultimately answer or support"),
		),
		mcp.WithObject("flags",
			mcp.Description("Per-call feature flag overrides"),
			mcp.Properties(map[string]any{
				"grounding":  map[string]any{"type": "boolean", "description": "Enable Google Search grounding"},
				"urlContext": map[string]any{"type": "boolean", "description": "Enable URL-context retrieval"},
			}),
		),
	)
}

// Handle processes one deep-research tool call.
func (t *ResearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || query == "" {
		return mcp.NewToolResultError("'query' is required and must be a non-empty string"), nil
	}

	depth := research.ClampLevel(req.GetInt("depth", 0), 3)
	breadth := research.ClampLevel(req.GetInt("breadth", 0), 3)
	learnings := req.GetStringSlice("existingLearnings", nil)
	goal := req.GetString("goal", "")
	grounding, urlContext := flagOverrides(req)

	fp := cache.Fingerprint(query, depth, breadth, learnings)
	log := t.logger.With("fingerprint", fp[:12], "query", query)

	if entry, ok := t.cache.Get(fp); ok {
		log.Info("cache hit", "mode", deliveryMode(entry))
		return entryResult(entry), nil
	}
	log.Info("cache miss", "depth", depth, "breadth", breadth)

	result, err := t.engine.Research(ctx, research.Request{
		Query:             query,
		Depth:             depth,
		Breadth:           breadth,
		ExistingLearnings: learnings,
		Goal:              goal,
		Grounding:         grounding,
		URLContext:        urlContext,
	}, func(stage, detail string) {
		log.Info("research progress", "stage", stage, "detail", detail)
	})
	if err != nil {
		log.Error("research failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("research failed: %v", err)), nil
	}

	report := t.resolveReport(log, query, result)
	sizeKB := float64(len(report)) / 1024

	entry := cache.Entry{
		Learnings:    result.Learnings,
		VisitedURLs:  result.VisitedURLs,
		ReportSizeKB: sizeKB,
	}

	mode := delivery.Decide(sizeKB, t.remote)
	log.Info("delivery decided", "mode", mode, "sizeKB", fmt.Sprintf("%.1f", sizeKB))

	if mode == delivery.ModeInline {
		entry.Text = report
	} else {
		url, err := t.uploader.Offload(ctx, report, query)
		if err != nil {
			// A storage outage must not fail the tool call: deliver the
			// report inline with an explicit marker in place of the URL.
			log.Error("offload failed, delivering inline", "error", err)
			entry.ReportURL = "upload-failed: " + err.Error()
			entry.Text = "Report upload failed (" + err.Error() + "); returning the report inline.\n\n" + report
		} else {
			log.Info("report offloaded", "url", url)
			entry.ReportURL = url
			entry.Text = delivery.RetrievalInstructions(query, url, sizeKB)
		}
	}

	t.cache.Put(fp, entry)
	log.Info("result cached", "learnings", len(entry.Learnings), "sources", len(entry.VisitedURLs))

	return entryResult(entry), nil
}

// resolveReport picks the report body: in-memory content when present,
// else the file the engine reported, else a rendered placeholder. An
// empty report is never returned.
func (t *ResearchTool) resolveReport(log *slog.Logger, query string, result research.Result) string {
	if result.Content != "" {
		return result.Content
	}
	if result.ReportPath != "" {
		data, err := os.ReadFile(result.ReportPath)
		if err == nil && len(data) > 0 {
			return string(data)
		}
		log.Warn("report file unreadable, using placeholder", "path", result.ReportPath, "error", err)
	}
	return research.RenderReport(query, result.Learnings, result.VisitedURLs)
}

// entryResult converts a cache entry into the protocol result shape:
// one text content block plus structured metadata.
func entryResult(entry cache.Entry) *mcp.CallToolResult {
	res := mcp.NewToolResultText(entry.Text)

	meta := map[string]any{
		"learnings":   entry.Learnings,
		"visitedUrls": entry.VisitedURLs,
		"stats": map[string]any{
			"totalLearnings": len(entry.Learnings),
			"totalSources":   len(entry.VisitedURLs),
		},
	}
	if entry.ReportURL != "" {
		meta["reportUrl"] = entry.ReportURL
	}
	if entry.ReportSizeKB > 0 {
		meta["reportSizeKB"] = entry.ReportSizeKB
	}
	res.Meta = &mcp.Meta{AdditionalFields: meta}
	return res
}

// flagOverrides extracts the optional flags object. Absent keys stay
// nil so the engine falls back to its configured defaults.
func flagOverrides(req mcp.CallToolRequest) (grounding, urlContext *bool) {
	flags, ok := req.GetArguments()["flags"].(map[string]any)
	if !ok {
		return nil, nil
	}
	if v, ok := flags["grounding"].(bool); ok {
		grounding = &v
	}
	if v, ok := flags["urlContext"].(bool); ok {
		urlContext = &v
	}
	return grounding, urlContext
}

func deliveryMode(entry cache.Entry) delivery.Mode {
	if entry.ReportURL != "" {
		return delivery.ModeOffloaded
	}
	return delivery.ModeInline
}
