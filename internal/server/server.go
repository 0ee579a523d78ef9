// Package server wires all MCP components and creates server instances.
//
// This is the composition root: it creates concrete implementations
// and injects them into the tool and resource handlers that depend on
// abstractions. No business logic lives here, only wiring.
package server

import (
	"log/slog"

	"github.com/HendryAvila/scout/internal/cache"
	"github.com/HendryAvila/scout/internal/config"
	"github.com/HendryAvila/scout/internal/research"
	"github.com/HendryAvila/scout/internal/resources"
	"github.com/HendryAvila/scout/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Deps carries the process-wide collaborators shared by every server
// instance. The cache is the only cross-request continuity in stateless
// HTTP mode, so it must be created once and passed everywhere.
type Deps struct {
	Engine   research.Engine
	Cache    *cache.ResultCache
	Uploader tools.Uploader
	Logger   *slog.Logger
}

// New creates a fully configured MCP server instance. remote must be
// true for stateless/remote HTTP bindings; it switches the delivery
// policy to always offload.
//
// Stdio and SSE use one instance per connection; stateless HTTP calls
// New once per inbound request via a Factory.
func New(cfg config.Settings, deps Deps, remote bool) *server.MCPServer {
	s := server.NewMCPServer(
		"scout",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	researchTool := tools.NewResearchTool(deps.Engine, deps.Cache, deps.Uploader, remote, deps.Logger)
	s.AddTool(researchTool.Definition(), researchTool.Handle)

	resourceHandler := resources.NewHandler(cfg)
	s.AddResource(resourceHandler.CapabilitiesResource(), resourceHandler.HandleCapabilities)

	return s
}

// Factory produces a fresh protocol-server instance. The stateless HTTP
// binding invokes it once per request; SSE invokes it once per session.
type Factory func() *server.MCPServer

// NewFactory binds settings and dependencies into a Factory.
func NewFactory(cfg config.Settings, deps Deps, remote bool) Factory {
	return func() *server.MCPServer {
		return New(cfg, deps, remote)
	}
}

// serverInstructions tells the calling AI how to use the tool well.
func serverInstructions() string {
	return `You have access to Scout, a deep-research server.

Call the deep-research tool with a focused query to run multi-step web
research and receive a markdown report. Guidance:

- Prefer one precise query over several vague ones; identical queries
  within the cache window return instantly from cache.
- depth (1-5) controls how many rounds of follow-up research run;
  breadth (1-5) controls how many directions are explored per round.
  Defaults (3/3) suit most questions.
- Pass existingLearnings from earlier runs to build on them instead of
  rediscovering the same facts.
- Large reports arrive as a signed download link with a curl command;
  run it to fetch the report before reading.
- The scout://capabilities resource lists enabled feature flags and the
  active cache TTL.`
}
