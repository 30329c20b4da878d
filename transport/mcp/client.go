package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/openpair/chesspair/game/orchestrator"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"ChessPair Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`ChessPair - MCP Interface

This is a thin client that proxies all requests to the REST API server.

ChessPair pairs anonymous WebSocket clients into two-party chess sessions,
first-in-first-out, and relays validated moves between them. Gameplay is
WebSocket-only; these tools observe the server, they cannot play.

AVAILABLE TOOLS:
- list_sessions: List all live game sessions
- get_session: Get one session (participants, position, phase, pending replay requests)
- server_stats: Matchmaking and session counters
- protocol_reference: The WebSocket message protocol clients speak`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all live game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Get matchmaking and session counters (connections, waiting, moves, games finished)",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "protocol_reference",
		Description: "Describe the WebSocket message protocol clients use to play",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleProtocolReference)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                            `json:"count"`
		Sessions []orchestrator.SessionSnapshot `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Live Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (%s, created %s)\n",
			s.ID, s.Phase, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var snap orchestrator.SessionSnapshot
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &snap)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSession(&snap)), nil
}

func (c *Client) handleServerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats orchestrator.Stats
	err := c.apiCall("GET", "/api/stats", nil, &stats)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Connections:      %d\n", stats.Connections)
	fmt.Fprintf(&b, "Waiting in queue: %d\n", stats.Waiting)
	fmt.Fprintf(&b, "Active sessions:  %d\n", stats.ActiveSessions)
	fmt.Fprintf(&b, "Sessions created: %d\n", stats.SessionsCreated)
	fmt.Fprintf(&b, "Moves applied:    %d\n", stats.MovesApplied)
	fmt.Fprintf(&b, "Invalid moves:    %d\n", stats.InvalidMoves)
	fmt.Fprintf(&b, "Games finished:   %d\n", stats.GamesFinished)
	fmt.Fprintf(&b, "Replays agreed:   %d\n", stats.Replays)
	fmt.Fprintf(&b, "Teardowns:        %d\n", stats.Teardowns)

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleProtocolReference(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(protocolReference), nil
}

const protocolReference = `ChessPair WebSocket protocol (JSON, one message per frame)

Client -> Server:
  {"type": "join"}                                   request a game
  {"type": "move", "from": "e2", "to": "e4"}         attempt a move
  {"type": "move", "from": "e7", "to": "e8", "promotion": "q"}
  {"type": "replay"}                                 request a rematch
  {"type": "quit"}                                   leave the current game

Server -> Client:
  {"type": "start", "state": "<fen>", "color": "white|black"}
  {"type": "move", "uci": "e2e4", "state": "<fen>"}  accepted, both players
  {"type": "invalid", "uci": "e2e5"}                 rejected, requester only
  {"type": "game_over", "result": "1-0"}             terminal position
  {"type": "replay_start", "state": "<fen>"}         both sides agreed
  {"type": "opponent_left"}                          peer quit or disconnected

Pairing is FIFO; the first handle dequeued plays white. After an opponent
leaves, re-issue join to be paired again.`

func formatSession(s *orchestrator.SessionSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\n", s.ID)
	fmt.Fprintf(&b, "  White:   %s\n", s.White)
	fmt.Fprintf(&b, "  Black:   %s\n", s.Black)
	fmt.Fprintf(&b, "  Phase:   %s\n", s.Phase)
	fmt.Fprintf(&b, "  State:   %s\n", s.State)
	fmt.Fprintf(&b, "  Created: %s\n", s.CreatedAt.Format(time.RFC3339))
	if s.ReplayRequests > 0 {
		fmt.Fprintf(&b, "  Replay requests pending: %d\n", s.ReplayRequests)
	}
	return b.String()
}

// apiCall performs an HTTP request against the REST API and decodes the
// JSON response into result.
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}
