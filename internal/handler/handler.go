package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"spheremap/internal/client"
	"spheremap/internal/codec"
	"spheremap/internal/domain"
	"spheremap/internal/geometry"
	"spheremap/internal/normalize"
	"spheremap/internal/service"
	"spheremap/internal/viewstate"
)

// maxImportBytes bounds bulk import bodies
const maxImportBytes = 16 << 20

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DashboardHandler exposes a Dashboard over HTTP
type DashboardHandler struct {
	svc *service.Dashboard
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.Dashboard) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Register mounts every route on mux
func (h *DashboardHandler) Register(mux *http.ServeMux) {
	// View state
	mux.HandleFunc("GET /api/view", h.GetView)
	mux.HandleFunc("GET /api/frame", h.GetFrame)
	mux.HandleFunc("PUT /api/layout", h.SetLayout)
	mux.HandleFunc("POST /api/layout/save", h.SaveLayout)
	mux.HandleFunc("POST /api/spheres/{id}/visibility", h.ToggleSphere)
	mux.HandleFunc("PUT /api/focus", h.SetFocus)
	mux.HandleFunc("DELETE /api/focus", h.ClearFocus)
	mux.HandleFunc("GET /api/filters", h.GetFilters)
	mux.HandleFunc("PUT /api/filters", h.SetFilters)

	// Nodes
	mux.HandleFunc("GET /api/nodes", h.ListNodes)
	mux.HandleFunc("POST /api/nodes", h.CreateNode)
	mux.HandleFunc("GET /api/nodes/{id}", h.GetNode)
	mux.HandleFunc("PATCH /api/nodes/{id}", h.UpdateNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", h.DeleteNode)
	mux.HandleFunc("POST /api/nodes/{id}/archive", h.ArchiveNode)
	mux.HandleFunc("POST /api/nodes/{id}/drag", h.DragNode)

	// Selection
	mux.HandleFunc("GET /api/selection", h.GetSelection)
	mux.HandleFunc("PUT /api/selection", h.SelectNode)
	mux.HandleFunc("DELETE /api/selection", h.ClearSelection)

	// Edges
	mux.HandleFunc("GET /api/edges", h.ListEdges)
	mux.HandleFunc("POST /api/edges", h.CreateEdge)
	mux.HandleFunc("GET /api/edges/candidates", h.EdgeCandidates)
	mux.HandleFunc("PATCH /api/edges/{id}", h.UpdateEdge)
	mux.HandleFunc("DELETE /api/edges/{id}", h.DeleteEdge)

	// Spheres
	mux.HandleFunc("GET /api/spheres", h.ListSpheres)
	mux.HandleFunc("POST /api/spheres", h.CreateSphere)
	mux.HandleFunc("PATCH /api/spheres/{id}", h.UpdateSphere)
	mux.HandleFunc("DELETE /api/spheres/{id}", h.DeleteSphere)

	// Organization and sync
	mux.HandleFunc("GET /api/organization", h.GetOrganization)
	mux.HandleFunc("PUT /api/organization", h.LoadOrganization)
	mux.HandleFunc("POST /api/refresh", h.Refresh)
	mux.HandleFunc("GET /api/status", h.GetStatus)
	mux.HandleFunc("DELETE /api/status", h.ClearStatus)

	// Bulk
	mux.HandleFunc("GET /api/export", h.Export)
	mux.HandleFunc("POST /api/import", h.Import)

	mux.HandleFunc("GET /healthz", h.Health)
}

// ViewResponse is the full view state
type ViewResponse struct {
	OrganizationID int64             `json:"organization_id"`
	LayoutMode     domain.LayoutMode `json:"layout_mode"`
	Visible        []int64           `json:"visible_sphere_ids"`
	FocusSphereID  *int64            `json:"focus_sphere_id,omitempty"`
	Filters        viewstate.Filters `json:"filters"`
	Status         service.Status    `json:"status"`
	Frame          domain.Frame      `json:"frame"`
}

// GetView returns the view state with the current frame
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	store := h.svc.Store()
	resp := ViewResponse{
		OrganizationID: h.svc.OrganizationID(),
		LayoutMode:     store.Mode(),
		Visible:        store.VisibleSphereIDs(),
		Filters:        store.Filters(),
		Status:         h.svc.Status(),
		Frame:          h.svc.Frame(),
	}
	if id, ok := store.Focus(); ok {
		resp.FocusSphereID = &id
	}
	writeJSON(w, resp, http.StatusOK)
}

// GetFrame renders at the canvas size given by width and height
func (h *DashboardHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("width") == "" && q.Get("height") == "" {
		writeJSON(w, h.svc.Frame(), http.StatusOK)
		return
	}
	size := geometry.Size{
		Width:  geometry.ToNumber(q.Get("width"), 0),
		Height: geometry.ToNumber(q.Get("height"), 0),
	}
	writeJSON(w, h.svc.Render(size), http.StatusOK)
}

// SetLayout switches the layout mode
func (h *DashboardHandler) SetLayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"layout_mode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.svc.SetLayoutMode(req.Mode) {
		writeError(w, "Invalid layout mode", fmt.Sprintf("%q is not one of saved, radial, grid", req.Mode), http.StatusBadRequest)
		return
	}
	writeJSON(w, h.svc.Frame(), http.StatusOK)
}

// SaveLayout persists the current layout as the saved one
func (h *DashboardHandler) SaveLayout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SaveLayout(r.Context()); err != nil {
		writeServiceError(w, "Failed to save layout", err)
		return
	}
	writeJSON(w, h.svc.Status(), http.StatusOK)
}

// ToggleSphere flips a sphere's visibility
func (h *DashboardHandler) ToggleSphere(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.svc.ToggleSphere(id)
	writeJSON(w, map[string]any{"visible_sphere_ids": h.svc.Store().VisibleSphereIDs()}, http.StatusOK)
}

// SetFocus focuses a sphere; focusing the focused sphere clears focus
func (h *DashboardHandler) SetFocus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SphereID int64 `json:"sphere_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.svc.SetFocus(req.SphereID)
	writeJSON(w, h.svc.Frame(), http.StatusOK)
}

// ClearFocus removes the focus
func (h *DashboardHandler) ClearFocus(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearFocus()
	writeJSON(w, h.svc.Frame(), http.StatusOK)
}

// GetFilters returns the filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Store().Filters(), http.StatusOK)
}

// SetFilters replaces the filters and refetches the map
func (h *DashboardHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var req viewstate.Filters
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Type != "" {
		t, ok := domain.ParseNodeType(string(req.Type))
		if !ok {
			writeError(w, "Invalid filter", fmt.Sprintf("unknown node type %q", req.Type), http.StatusBadRequest)
			return
		}
		req.Type = t
	}
	if req.Status != "" {
		s, ok := domain.ParseNodeStatus(string(req.Status))
		if !ok {
			writeError(w, "Invalid filter", fmt.Sprintf("unknown status %q", req.Status), http.StatusBadRequest)
			return
		}
		req.Status = s
	}
	if err := h.svc.SetFilters(r.Context(), req); err != nil {
		writeServiceError(w, "Failed to apply filters", err)
		return
	}
	writeJSON(w, h.svc.Frame(), http.StatusOK)
}

// ListNodes returns the filtered nodes
func (h *DashboardHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Store().FilteredNodes(), http.StatusOK)
}

// GetNode returns one node of the model
func (h *DashboardHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	node, found := h.svc.Store().Node(id)
	if !found {
		writeError(w, "Not found", fmt.Sprintf("node %d not found", id), http.StatusNotFound)
		return
	}
	writeJSON(w, node, http.StatusOK)
}

// CreateNode creates a node
func (h *DashboardHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var form service.NodeForm
	if !decodeBody(w, r, &form) {
		return
	}
	node, err := h.svc.CreateNode(r.Context(), form)
	if err != nil {
		writeServiceError(w, "Failed to create node", err)
		return
	}
	writeJSON(w, node, http.StatusCreated)
}

// UpdateNode patches a node
func (h *DashboardHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch client.NodePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	node, err := h.svc.UpdateNode(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, "Failed to update node", err)
		return
	}
	writeJSON(w, node, http.StatusOK)
}

// ArchiveNode archives a node
func (h *DashboardHandler) ArchiveNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	node, err := h.svc.ArchiveNode(r.Context(), id)
	if err != nil {
		writeServiceError(w, "Failed to archive node", err)
		return
	}
	writeJSON(w, node, http.StatusOK)
}

// DeleteNode deletes a node
func (h *DashboardHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteNode(r.Context(), id); err != nil {
		writeServiceError(w, "Failed to delete node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DragRequest is a node drop in canvas pixels. A missing dimension is taken
// from the last rendered frame.
type DragRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DragNode snaps a dropped node into its sphere; persistence continues in the background
func (h *DashboardHandler) DragNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req DragRequest
	if !decodeBody(w, r, &req) {
		return
	}
	size := geometry.Size{Width: req.Width, Height: req.Height}
	if !(size.Width > 0) || !(size.Height > 0) {
		f := h.svc.Frame()
		if !(size.Width > 0) {
			size.Width = f.Width
		}
		if !(size.Height > 0) {
			size.Height = f.Height
		}
	}
	result, err := h.svc.DragNode(r.Context(), id, geometry.Point{X: req.X, Y: req.Y}, size)
	if err != nil {
		writeServiceError(w, "Failed to move node", err)
		return
	}
	writeJSON(w, result, http.StatusAccepted)
}

// GetSelection returns the node of the open node card
func (h *DashboardHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	node, ok := h.svc.Store().SelectedNode()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, node, http.StatusOK)
}

// SelectNode opens the node card
func (h *DashboardHandler) SelectNode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NodeID int64 `json:"node_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.svc.SelectNode(req.NodeID) {
		writeError(w, "Not found", fmt.Sprintf("node %d not found", req.NodeID), http.StatusNotFound)
		return
	}
	node, _ := h.svc.Store().SelectedNode()
	writeJSON(w, node, http.StatusOK)
}

// ClearSelection closes the node card
func (h *DashboardHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.svc.CloseNodeCard()
	w.WriteHeader(http.StatusNoContent)
}

// ListEdges returns the edges whose endpoints are both filtered in
func (h *DashboardHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Store().FilteredEdges(), http.StatusOK)
}

// EdgeCandidates returns the nodes offered as endpoints for a sphere
func (h *DashboardHandler) EdgeCandidates(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("sphere_id")
	if raw == "" {
		writeJSON(w, h.svc.Store().EdgeCandidates(), http.StatusOK)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, "Invalid sphere ID", err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, h.svc.SetEdgeSphere(id), http.StatusOK)
}

// CreateEdge creates an edge
func (h *DashboardHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var form service.EdgeForm
	if !decodeBody(w, r, &form) {
		return
	}
	edge, err := h.svc.CreateEdge(r.Context(), form)
	if err != nil {
		writeServiceError(w, "Failed to create edge", err)
		return
	}
	writeJSON(w, edge, http.StatusCreated)
}

// UpdateEdge changes an edge's relation type
func (h *DashboardHandler) UpdateEdge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		RelationType string `json:"relation_type"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	edge, err := h.svc.UpdateEdge(r.Context(), id, req.RelationType)
	if err != nil {
		writeServiceError(w, "Failed to update edge", err)
		return
	}
	writeJSON(w, edge, http.StatusOK)
}

// DeleteEdge deletes an edge
func (h *DashboardHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteEdge(r.Context(), id); err != nil {
		writeServiceError(w, "Failed to delete edge", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSpheres returns every sphere of the model
func (h *DashboardHandler) ListSpheres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Store().Spheres(), http.StatusOK)
}

// CreateSphere creates a sphere
func (h *DashboardHandler) CreateSphere(w http.ResponseWriter, r *http.Request) {
	var form service.SphereForm
	if !decodeBody(w, r, &form) {
		return
	}
	sphere, err := h.svc.CreateSphere(r.Context(), form)
	if err != nil {
		writeServiceError(w, "Failed to create sphere", err)
		return
	}
	writeJSON(w, sphere, http.StatusCreated)
}

// UpdateSphere patches a sphere
func (h *DashboardHandler) UpdateSphere(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch client.SpherePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	sphere, err := h.svc.UpdateSphere(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, "Failed to update sphere", err)
		return
	}
	writeJSON(w, sphere, http.StatusOK)
}

// DeleteSphere deletes a sphere
func (h *DashboardHandler) DeleteSphere(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSphere(r.Context(), id); err != nil {
		writeServiceError(w, "Failed to delete sphere", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrganizationResponse describes the selected organization
type OrganizationResponse struct {
	ID      int64           `json:"id"`
	Members []client.Member `json:"members"`
	Groups  []client.Group  `json:"groups"`
}

// GetOrganization returns the selected organization
func (h *DashboardHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, OrganizationResponse{
		ID:      h.svc.OrganizationID(),
		Members: nonNil(h.svc.Members()),
		Groups:  nonNil(h.svc.Groups()),
	}, http.StatusOK)
}

// LoadOrganization switches to another organization
func (h *DashboardHandler) LoadOrganization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganizationID int64 `json:"organization_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.LoadOrganization(r.Context(), req.OrganizationID); err != nil {
		writeServiceError(w, "Failed to load organization", err)
		return
	}
	h.GetOrganization(w, r)
}

// Refresh refetches the map
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refresh(r.Context()); err != nil {
		writeServiceError(w, "Failed to refresh map", err)
		return
	}
	writeJSON(w, h.svc.Frame(), http.StatusOK)
}

// GetStatus returns the status slot
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status(), http.StatusOK)
}

// ClearStatus empties the status slot
func (h *DashboardHandler) ClearStatus(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearStatus()
	w.WriteHeader(http.StatusNoContent)
}

// Export returns the remote export document. With format=yaml it is
// transcoded field for field.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, "Invalid format", err.Error(), http.StatusBadRequest)
		return
	}
	data, err := h.svc.Export(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to export graph", err)
		return
	}

	filename := fmt.Sprintf("spheremap-%d.%s", h.svc.OrganizationID(), c.Format())
	if c.Format() == "json" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		w.Write(data)
		return
	}

	var buf bytes.Buffer
	if err := codec.Transcode(data, c, &buf); err != nil {
		log.Printf("Failed to encode export: %v", err)
		writeError(w, "Failed to export graph", err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Write(buf.Bytes())
}

// ImportResponse reports what an import sent
type ImportResponse struct {
	Spheres int              `json:"spheres"`
	Nodes   int              `json:"nodes"`
	Edges   int              `json:"edges"`
	Report  normalize.Report `json:"report"`
}

// Import parses a JSON or YAML body and posts it to the remote import
func (h *DashboardHandler) Import(w http.ResponseWriter, r *http.Request) {
	imp := codec.ForContentType(r.Header.Get("Content-Type"))
	if f := r.URL.Query().Get("format"); f != "" {
		c, err := codec.ForFormat(f)
		if err != nil {
			writeError(w, "Invalid format", err.Error(), http.StatusBadRequest)
			return
		}
		imp = c
	}

	bulk, err := codec.Decode(imp, io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, "Invalid import document", err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.svc.Import(r.Context(), bulk); err != nil {
		writeServiceError(w, "Failed to import graph", err)
		return
	}

	spheres, nodes, edges := bulk.Map.Counts()
	writeJSON(w, ImportResponse{Spheres: spheres, Nodes: nodes, Edges: edges, Report: bulk.Report}, http.StatusOK)
}

// Health reports liveness
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Helper functions

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}

// writeServiceError maps dashboard errors to statuses: input errors are
// 400, remote failures keep 404 and otherwise become 502
func writeServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, msg, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "), http.StatusBadRequest)
	case client.IsNotFound(err):
		writeError(w, "Not found", err.Error(), http.StatusNotFound)
	default:
		writeError(w, msg, err.Error(), http.StatusBadGateway)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, "Invalid ID", fmt.Sprintf("%q is not a positive integer", raw), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
