// Package server implements the EchoRoom real-time chat service.
//
// The hub owns the session registry and processes every inbound event on a
// single goroutine, so presence state never needs locks. Clients, the wire
// event vocabulary, configuration, routing, and the HTTP surface live in
// specialized files to keep the codebase maintainable and testable as the
// project grows.
package server
