// Package websocket provides the WebSocket transport for ChessPair.
//
// The websocket package implements:
//   - Per-connection opaque handles (UUIDs) assigned at upgrade time
//   - Addressed, fire-and-forget delivery of server messages
//   - Connect/disconnect notification into the orchestrator
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub tracks all
// live connections by handle. Each connection is served by two dedicated
// goroutines (readPump/writePump) that manage reading, writing, ping/pong,
// and cleanup.
//
// Unlike a broadcast chat hub, the hub never groups clients itself: room
// membership is the orchestrator's business. The hub only answers "send
// this message to this handle".
//
// Message Protocol:
//
// Messages are JSON-encoded protocol.ClientMessage / protocol.ServerMessage
// values. Inbound frames that fail to parse are logged and dropped; the
// connection stays up.
//
// Connection Lifecycle:
//
//  1. Client connects to /ws, receives a fresh handle
//  2. Hub reports Connected to the sink
//  3. Parsed client messages flow into the sink
//  4. Read failure or close tears the connection down
//  5. Hub reports Disconnected exactly once
//
// Usage:
//
//	hub := websocket.NewHub(orch)
//	mux.HandleFunc("/ws", hub.ServeWS)
package websocket
