package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jmorrell/taskdeck/database"
	"github.com/jmorrell/taskdeck/services"
)

// TaskHandler handles task CRUD and per-project bulk endpoints.
type TaskHandler struct {
	store *database.Store
	hub   *services.Hub
}

func NewTaskHandler(store *database.Store, hub *services.Hub) *TaskHandler {
	return &TaskHandler{
		store: store,
		hub:   hub,
	}
}

type taskRequest struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Create adds a task under an existing project.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "Title is required")
		return
	}

	task, err := h.store.CreateTask(r.Context(), projectID, req.Title, req.Status)
	if err != nil {
		respondStoreError(w, err, "Project not found", "Error creating task")
		return
	}

	h.hub.Broadcast(services.Event{Type: services.EventTaskCreated, Payload: task})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Task created",
		"task":    task,
	})
}

// Get returns a single task.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	task, err := h.store.GetTask(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Task not found", "Error fetching task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

// Update replaces a task's title and status.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "Task title is required")
		return
	}

	task, err := h.store.UpdateTask(r.Context(), id, req.Title, req.Status)
	if err != nil {
		respondStoreError(w, err, "Task not found", "Error updating task")
		return
	}

	h.hub.Broadcast(services.Event{Type: services.EventTaskUpdated, Payload: task})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Task updated",
		"task":    task,
	})
}

// Delete removes a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.DeleteTask(r.Context(), id); err != nil {
		respondStoreError(w, err, "Task not found", "Error deleting task")
		return
	}

	h.hub.Broadcast(services.Event{Type: services.EventTaskDeleted, Payload: map[string]string{"id": id}})
	writeMessage(w, http.StatusOK, "Task deleted")
}

// DeleteAllForProject removes every task under a project.
func (h *TaskHandler) DeleteAllForProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	if err := h.store.DeleteProjectTasks(r.Context(), projectID); err != nil {
		respondStoreError(w, err, "Project not found", "Error deleting tasks for project")
		return
	}

	h.hub.Broadcast(services.Event{Type: services.EventTasksCleared, Payload: map[string]string{"project_id": projectID}})
	writeMessage(w, http.StatusOK, "All tasks deleted for project")
}

// MarkAllDone forces every task under a project into "done".
func (h *TaskHandler) MarkAllDone(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	if err := h.store.MarkProjectTasksDone(r.Context(), projectID); err != nil {
		respondStoreError(w, err, "Project not found", "Error updating tasks")
		return
	}

	h.hub.Broadcast(services.Event{Type: services.EventTasksCompleted, Payload: map[string]string{"project_id": projectID}})
	writeMessage(w, http.StatusOK, "All tasks for project marked as done")
}
