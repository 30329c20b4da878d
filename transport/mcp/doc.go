// Package mcp exposes the ChessPair server to MCP hosts as a read-only
// observer. It is a thin client proxying every tool call to the REST API,
// so it works equally against an in-process server or a remote one.
//
// Tools: list_sessions, get_session, server_stats, protocol_reference.
// Gameplay stays WebSocket-only; there are deliberately no tools that join
// queues or submit moves.
package mcp
