// Package http exposes a session manager over HTTP.
//
// Routes follow the embedded OpenAPI document (see GetSpec). Outputs of every session are
// fanned out as server-sent events on /events through a StreamManager, which doubles as the
// nodes' Sink.
package http
