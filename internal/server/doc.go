// Package server hosts the portfolio API, the admin panel, and the websocket
// relay from a single HTTP listener.
//
// The server builds a consistent middleware chain of recovery, logging, audit,
// analytics capture, rate limiting, security headers, CORS, compression, and
// body limiting so handlers all share common protections and instrumentation.
// Requests carrying websocket upgrade headers are handed to the relay before
// the chain applies rate limiting or body parsing.
package server
