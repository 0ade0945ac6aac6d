// Command liveset-mcp exposes a running LiveSet server over the Model
// Context Protocol on stdio, so an MCP client on another machine (typically
// across the tailnet) can read and drive the live session.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/claude/liveset/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "http://localhost:8484", "LiveSet server URL")
	apiKey := flag.String("api-key", os.Getenv("LIVESET_AUTH_API_KEY"), "API key for the LiveSet server")
	flag.Parse()

	// stdout carries the MCP transport; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiveSet MCP starting", "version", Version, "server", *serverURL)

	source := mcp.NewHTTPClient(*serverURL, *apiKey)
	s := mcp.New(source, Version, log)

	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
