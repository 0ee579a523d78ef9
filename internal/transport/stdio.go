package transport

import (
	"context"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServeStdio binds one long-lived protocol-server instance to the
// process's standard input/output for the whole process lifetime. There
// is a single implicit session and no authentication; a terminal
// failure is returned to the caller, which exits the process.
//
// All logging goes to stderr; stdout is the transport's wire.
func ServeStdio(ctx context.Context, s *mcpserver.MCPServer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("stdio transport ready")

	srv := mcpserver.NewStdioServer(s)
	return srv.Listen(ctx, os.Stdin, os.Stdout)
}
