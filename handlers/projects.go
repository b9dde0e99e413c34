package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jmorrell/taskdeck/database"
	"github.com/jmorrell/taskdeck/services"
)

// ProjectHandler handles project CRUD endpoints.
type ProjectHandler struct {
	store *database.Store
	hub   *services.Hub
}

func NewProjectHandler(store *database.Store, hub *services.Hub) *ProjectHandler {
	return &ProjectHandler{
		store: store,
		hub:   hub,
	}
}

type projectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Create makes a new project.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "Project title is required")
		return
	}

	project, err := h.store.CreateProject(r.Context(), req.Title, req.Description)
	if err != nil {
		respondStoreError(w, err, "Project not found", "Error creating project")
		return
	}

	h.hub.Broadcast(services.Event{Type: services.EventProjectCreated, Payload: project})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Project created",
		"project": project,
	})
}

// List returns every project.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		respondStoreError(w, err, "Project not found", "Error fetching projects")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// Get returns a single project with its tasks embedded.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	project, err := h.store.GetProject(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Project not found", "Error fetching project")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}

// Update renames a project and replaces its description.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "Project title is required")
		return
	}

	project, err := h.store.UpdateProject(r.Context(), id, req.Title, req.Description)
	if err != nil {
		respondStoreError(w, err, "Project not found", "Error updating project")
		return
	}

	h.hub.Broadcast(services.Event{Type: services.EventProjectUpdated, Payload: project})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Project updated",
		"project": project,
	})
}

// Delete removes a project and cascades to its tasks.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.DeleteProject(r.Context(), id); err != nil {
		respondStoreError(w, err, "Project not found", "Error deleting project")
		return
	}

	h.hub.Broadcast(services.Event{Type: services.EventProjectDeleted, Payload: map[string]string{"id": id}})
	writeMessage(w, http.StatusOK, "Project and its tasks deleted")
}

// DeleteAll wipes every project and every task.
func (h *ProjectHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAllProjects(r.Context()); err != nil {
		respondStoreError(w, err, "Project not found", "Error deleting all projects")
		return
	}

	h.hub.Broadcast(services.Event{Type: services.EventProjectsCleared})
	writeMessage(w, http.StatusOK, "All projects and tasks deleted")
}
