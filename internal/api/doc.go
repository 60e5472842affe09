// Package api exposes the support bot over HTTP.
//
// Endpoints:
//
//	POST /ask     answer a support question from the knowledge base
//	GET  /health  liveness probe
//	GET  /ready   readiness probe (pings the database)
//
// Health probes sit outside the middleware stack so orchestration
// checks are never rate limited or CORS gated. Everything else goes
// through recovery, request-ID, logging, CORS and per-IP rate limiting,
// in that order.
package api
