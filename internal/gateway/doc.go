// Package gateway runs the jardin message bus.
//
// # Overview
//
// The Gateway owns the SQLite store, the conversation service, the live
// broadcaster and one HTTP server. It listens on a plain TCP address or, when
// tailscale.enabled is set, on a tsnet node inside the tailnet.
//
//	gw, err := gateway.New(cfg, logger)
//	if err != nil { ... }
//	err = gw.Run(ctx) // blocks until ctx is canceled
//
// # HTTP API
//
// All /api and /ws routes require the "sesion" cookie (or a Bearer token).
//
//	GET  /health                              liveness, no auth
//	GET  /api/conversaciones/{id}/mensajes    history, oldest first
//	POST /api/mensajes                        submit a message
//	GET  /ws                                  live bus (websocket)
//
// Submissions take {"conversacionId":5,"contenido":"hola"} and an optional
// Idempotency-Key header. A repeated key answers 200 with
// {"estado":"duplicado","id":N} instead of creating a second message.
//
// # Live Bus
//
// After upgrading, a client sends {"tipo":"join","conversacionId":N}. From
// then on every message recorded in that conversation is pushed as
// {"tipo":"mensaje","mensaje":{...}}. Joining again switches conversations.
// Bad directives and refused joins answer {"tipo":"error","error":"..."} and
// leave the connection open. The server pings every live.ping_interval and
// drops clients silent for longer than live.pong_wait.
package gateway
