// Package mcp exposes the live workout session over the Model Context
// Protocol, so an assistant can read the reconciled session and drive the
// same operations the UI has: logging sets, running the rest timer, and
// finishing the workout.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(source SessionSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiveSet", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiveSet live workout session. Read the reconciled session state, log completed sets, drive the rest timer, and finish the workout. Weight and reps are free-text; unparseable values are silently ignored."),
	)

	h := &handlers{source: source, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetLiveSession, Handler: h.getLiveSession},
		server.ServerTool{Tool: toolRefreshSession, Handler: h.refreshSession},
		server.ServerTool{Tool: toolStartWorkout, Handler: h.startWorkout},
		server.ServerTool{Tool: toolFinishWorkout, Handler: h.finishWorkout},
		server.ServerTool{Tool: toolLogSet, Handler: h.logSet},
		server.ServerTool{Tool: toolUpdateSlot, Handler: h.updateSlot},
		server.ServerTool{Tool: toolStartRest, Handler: h.startRest},
		server.ServerTool{Tool: toolStopRest, Handler: h.stopRest},
		server.ServerTool{Tool: toolAdjustRest, Handler: h.adjustRest},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	s.AddResources(
		server.ServerResource{Resource: resLiveSession, Handler: h.liveSessionResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	source SessionSource
	log    *slog.Logger
}

var resLiveSession = mcp.NewResource(
	"liveset://session",
	"Live Session",
	mcp.WithResourceDescription("The current workout session, fully reconciled: exercises, slots, timer state, and any surfaced error"),
	mcp.WithMIMEType("application/json"),
)
