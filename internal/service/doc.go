// Package service implements the dashboard controller for spheremap.
//
// A Dashboard sits between the HTTP handlers and the remote map API. It owns
// the view-state store and the render driver, and it turns user actions into
// API round trips followed by a full map refresh.
//
// # Model Replacement
//
// Every successful fetch replaces the whole model. Fetches are neither
// coalesced nor cancelled, so when two refreshes race the one that completes
// last wins.
//
// # Status
//
// Failures never propagate past the dashboard as panics or global handlers.
// Each operation records its own failure in a single status slot holding
// either a notice or an error; setting one clears the other.
//
// # Drag Persistence
//
// DragNode snaps the node synchronously and persists the constrained
// position in the background. A failed write sets the error slot and leaves
// the local position in place until the next refresh.
//
// # Event System
//
// The dashboard publishes events via EventBus for real-time updates to
// connected clients via Server-Sent Events (SSE).
package service
