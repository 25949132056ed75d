// Package api serves search and chat over HTTP with gin.
//
// Routes:
//
//	POST /api/search              semantic search
//	POST /api/keyword             keyword search
//	POST /api/chat                answer a question, logging it when session_id is set
//	POST /api/sessions            create a chat session
//	GET  /api/sessions/:id/logs   list a session's query logs
//	GET  /api/related/:type/:id   records related to a record
//	GET  /healthz                 liveness
//	GET  /metrics                 Prometheus metrics
//
// Blank queries are rejected with 400 here; the services below assume a
// non-empty query.
package api
