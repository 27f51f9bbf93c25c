// Package handler implements the HTTP layer of the spheremap dashboard.
//
// DashboardHandler exposes the view state, the layout modes, node, edge and
// sphere mutations, drag-and-drop, organization switching and bulk
// import/export of a service.Dashboard as a JSON API under /api.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201,
// 202 for drags whose persistence continues in the background, 204 for
// deletes). Error responses return JSON with {error, details} structure.
// Input errors are 400, remote 404s stay 404 and other remote failures are
// reported as 502.
//
// # Middleware
//
// Chain composes Recover, CORS, Logger and Metrics around the mux. Metrics
// must sit innermost so the matched route pattern is visible to it.
package handler
