// Package api provides the HTTP surface of the ChessPair server.
//
// Endpoints:
//
// Gameplay:
//   - GET /ws - WebSocket upgrade; all gameplay (join, move, replay, quit)
//     happens over this connection using the protocol package messages
//
// Observation:
//   - GET /api/sessions - list live sessions
//   - GET /api/sessions/{id} - one session by ID
//   - GET /api/stats - orchestrator counters
//   - GET /healthz - liveness probe
//
// All observation endpoints return JSON and read through the orchestrator's
// serialized inspection channel, so they never race the dispatch loop.
// There are no write endpoints: sessions exist only as a consequence of
// matchmaking and die with their participants.
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message"
//	}
package api
