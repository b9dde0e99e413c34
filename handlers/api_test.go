package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/jmorrell/taskdeck/database"
	"github.com/jmorrell/taskdeck/services"
)

const testCookieName = "taskdeck_session"

// newTestServer wires the full API the same way main does and returns
// a client with a cookie jar so the session cookie round-trips.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := database.NewStore(db)
	authService := services.NewAuthService(store, "test-secret", time.Hour)

	hub := services.NewHub()
	go hub.Run()

	cookie := CookieConfig{Name: testCookieName}
	authHandler := NewAuthHandler(authService, cookie)
	projectHandler := NewProjectHandler(store, hub)
	taskHandler := NewTaskHandler(store, hub)
	session := NewSessionMiddleware(authService, testCookieName)

	r := mux.NewRouter()
	r.HandleFunc("/api/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/logout", authHandler.Logout).Methods("GET")
	r.HandleFunc("/api/check-session", authHandler.CheckSession).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(session.RequireAuth)
	api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	api.HandleFunc("/projects", projectHandler.List).Methods("GET")
	api.HandleFunc("/projects", projectHandler.DeleteAll).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/tasks/mark-all-done", taskHandler.MarkAllDone).Methods("PUT")
	api.HandleFunc("/projects/{projectId}/tasks", taskHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{projectId}/tasks", taskHandler.DeleteAllForProject).Methods("DELETE")
	api.HandleFunc("/projects/{id}", projectHandler.Get).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.Update).Methods("PUT")
	api.HandleFunc("/projects/{id}", projectHandler.Delete).Methods("DELETE")
	api.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	api.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PUT")
	api.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}

	return server, &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (int, map[string]any) {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reqBody = bytes.NewBuffer(payload)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func register(t *testing.T, client *http.Client, baseURL, username, password string) map[string]any {
	t.Helper()

	code, body := doJSON(t, client, http.MethodPost, baseURL+"/api/register",
		map[string]string{"username": username, "password": password})
	if code != http.StatusOK {
		t.Fatalf("register: got %d, body %v", code, body)
	}
	return body
}

func createProject(t *testing.T, client *http.Client, baseURL, title string) string {
	t.Helper()

	code, body := doJSON(t, client, http.MethodPost, baseURL+"/api/projects",
		map[string]string{"title": title})
	if code != http.StatusOK {
		t.Fatalf("create project: got %d, body %v", code, body)
	}
	project := body["project"].(map[string]any)
	return project["id"].(string)
}

func createTask(t *testing.T, client *http.Client, baseURL, projectID, title string) string {
	t.Helper()

	code, body := doJSON(t, client, http.MethodPost,
		fmt.Sprintf("%s/api/projects/%s/tasks", baseURL, projectID),
		map[string]string{"title": title})
	if code != http.StatusCreated {
		t.Fatalf("create task: got %d, body %v", code, body)
	}
	task := body["task"].(map[string]any)
	return task["id"].(string)
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	server, client := newTestServer(t)

	body := register(t, client, server.URL, "alice", "pw1")
	user := body["user"].(map[string]any)
	if user["username"] != "alice" {
		t.Errorf("registered user: %v", user)
	}
	if _, hasHash := user["password_hash"]; hasHash {
		t.Error("password hash leaked in response")
	}

	// Registration auto-logs-in: the session cookie must already work.
	code, body := doJSON(t, client, http.MethodGet, server.URL+"/api/check-session", nil)
	if code != http.StatusOK {
		t.Fatalf("check-session: got %d, body %v", code, body)
	}
	if body["loggedIn"] != true {
		t.Errorf("check-session: %v", body)
	}
	if body["user"].(map[string]any)["username"] != "alice" {
		t.Errorf("check-session user: %v", body["user"])
	}

	code, _ = doJSON(t, client, http.MethodGet, server.URL+"/api/logout", nil)
	if code != http.StatusOK {
		t.Fatalf("logout: got %d", code)
	}

	code, body = doJSON(t, client, http.MethodGet, server.URL+"/api/check-session", nil)
	if code != http.StatusUnauthorized || body["loggedIn"] != false {
		t.Fatalf("check-session after logout: got %d, body %v", code, body)
	}

	// Fresh login with the same credentials works.
	code, body = doJSON(t, client, http.MethodPost, server.URL+"/api/login",
		map[string]string{"username": "alice", "password": "pw1"})
	if code != http.StatusOK {
		t.Fatalf("login: got %d, body %v", code, body)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	server, client := newTestServer(t)

	register(t, client, server.URL, "alice", "pw1")

	code, body := doJSON(t, client, http.MethodPost, server.URL+"/api/register",
		map[string]string{"username": "alice", "password": "pw2"})
	if code != http.StatusBadRequest {
		t.Fatalf("duplicate register: got %d", code)
	}
	if body["message"] != "username already exists try logging in" {
		t.Errorf("duplicate register message: %v", body["message"])
	}
}

func TestAuthValidationAndErrors(t *testing.T) {
	server, client := newTestServer(t)

	register(t, client, server.URL, "alice", "pw1")
	if code, _ := doJSON(t, client, http.MethodGet, server.URL+"/api/logout", nil); code != http.StatusOK {
		t.Fatalf("logout: got %d", code)
	}

	cases := []struct {
		name    string
		path    string
		payload map[string]string
		message string
	}{
		{"register empty", "/api/register", map[string]string{"username": "", "password": "pw"}, "Username and password cannot be empty"},
		{"login empty", "/api/login", map[string]string{"username": "alice", "password": ""}, "Username and password cannot be empty"},
		{"login unknown user", "/api/login", map[string]string{"username": "ghost", "password": "pw"}, "username does not exist try signing up"},
		{"login wrong password", "/api/login", map[string]string{"username": "alice", "password": "nope"}, "Invalid password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := doJSON(t, client, http.MethodPost, server.URL+tc.path, tc.payload)
			if code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400", code)
			}
			if body["message"] != tc.message {
				t.Errorf("message: got %v, want %q", body["message"], tc.message)
			}
		})
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	server, client := newTestServer(t)

	code, _ := doJSON(t, client, http.MethodGet, server.URL+"/api/projects", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: got %d, want 401", code)
	}

	code, _ = doJSON(t, client, http.MethodPost, server.URL+"/api/projects",
		map[string]string{"title": "p"})
	if code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create: got %d, want 401", code)
	}
}

func TestProjectWithTaskScenario(t *testing.T) {
	server, client := newTestServer(t)

	register(t, client, server.URL, "alice", "pw1")

	projectID := createProject(t, client, server.URL, "Sprint 1")
	createTask(t, client, server.URL, projectID, "Write spec")

	code, body := doJSON(t, client, http.MethodGet, server.URL+"/api/projects/"+projectID, nil)
	if code != http.StatusOK {
		t.Fatalf("get project: got %d, body %v", code, body)
	}

	project := body["project"].(map[string]any)
	if project["title"] != "Sprint 1" {
		t.Errorf("project title: %v", project["title"])
	}

	tasks := project["tasks"].([]any)
	if len(tasks) != 1 {
		t.Fatalf("embedded tasks: got %d, want 1", len(tasks))
	}
	task := tasks[0].(map[string]any)
	if task["title"] != "Write spec" || task["status"] != "to do" {
		t.Errorf("embedded task: %v", task)
	}
}

func TestProjectValidationAndNotFound(t *testing.T) {
	server, client := newTestServer(t)

	register(t, client, server.URL, "alice", "pw1")

	code, body := doJSON(t, client, http.MethodPost, server.URL+"/api/projects",
		map[string]string{"title": ""})
	if code != http.StatusBadRequest || body["message"] != "Project title is required" {
		t.Fatalf("empty title: got %d, body %v", code, body)
	}

	code, _ = doJSON(t, client, http.MethodGet, server.URL+"/api/projects/missing", nil)
	if code != http.StatusNotFound {
		t.Fatalf("unknown project: got %d, want 404", code)
	}

	code, _ = doJSON(t, client, http.MethodPost, server.URL+"/api/projects/missing/tasks",
		map[string]string{"title": "t"})
	if code != http.StatusNotFound {
		t.Fatalf("task under unknown project: got %d, want 404", code)
	}
}

func TestTaskUpdateRoundTrip(t *testing.T) {
	server, client := newTestServer(t)

	register(t, client, server.URL, "alice", "pw1")
	projectID := createProject(t, client, server.URL, "p")
	taskID := createTask(t, client, server.URL, projectID, "X")

	code, body := doJSON(t, client, http.MethodPut, server.URL+"/api/tasks/"+taskID,
		map[string]string{"title": "Y", "status": "done"})
	if code != http.StatusOK {
		t.Fatalf("update task: got %d, body %v", code, body)
	}

	code, body = doJSON(t, client, http.MethodGet, server.URL+"/api/tasks/"+taskID, nil)
	if code != http.StatusOK {
		t.Fatalf("get task: got %d", code)
	}
	task := body["task"].(map[string]any)
	if task["title"] != "Y" || task["status"] != "done" {
		t.Errorf("round trip task: %v", task)
	}

	code, body = doJSON(t, client, http.MethodPut, server.URL+"/api/tasks/"+taskID,
		map[string]string{"title": "Y", "status": "Done"})
	if code != http.StatusBadRequest {
		t.Fatalf("bad status: got %d, body %v", code, body)
	}

	code, body = doJSON(t, client, http.MethodPut, server.URL+"/api/tasks/"+taskID,
		map[string]string{"title": "", "status": "done"})
	if code != http.StatusBadRequest || body["message"] != "Task title is required" {
		t.Fatalf("empty title: got %d, body %v", code, body)
	}
}

func TestDeleteProjectCascadesOverAPI(t *testing.T) {
	server, client := newTestServer(t)

	register(t, client, server.URL, "alice", "pw1")
	projectID := createProject(t, client, server.URL, "p")

	var taskIDs []string
	for i := 0; i < 3; i++ {
		taskIDs = append(taskIDs, createTask(t, client, server.URL, projectID, "t"))
	}

	code, _ := doJSON(t, client, http.MethodDelete, server.URL+"/api/projects/"+projectID, nil)
	if code != http.StatusOK {
		t.Fatalf("delete project: got %d", code)
	}

	code, _ = doJSON(t, client, http.MethodGet, server.URL+"/api/projects/"+projectID, nil)
	if code != http.StatusNotFound {
		t.Fatalf("get deleted project: got %d, want 404", code)
	}

	for _, id := range taskIDs {
		code, _ := doJSON(t, client, http.MethodGet, server.URL+"/api/tasks/"+id, nil)
		if code != http.StatusNotFound {
			t.Errorf("task %s: got %d, want 404", id, code)
		}
	}
}

func TestProjectBulkTaskOperations(t *testing.T) {
	server, client := newTestServer(t)

	register(t, client, server.URL, "alice", "pw1")
	projectID := createProject(t, client, server.URL, "p")
	createTask(t, client, server.URL, projectID, "a")
	createTask(t, client, server.URL, projectID, "b")

	code, _ := doJSON(t, client, http.MethodPut,
		fmt.Sprintf("%s/api/projects/%s/tasks/mark-all-done", server.URL, projectID), nil)
	if code != http.StatusOK {
		t.Fatalf("mark all done: got %d", code)
	}

	_, body := doJSON(t, client, http.MethodGet, server.URL+"/api/projects/"+projectID, nil)
	for _, raw := range body["project"].(map[string]any)["tasks"].([]any) {
		task := raw.(map[string]any)
		if task["status"] != "done" {
			t.Errorf("task not done: %v", task)
		}
	}

	code, _ = doJSON(t, client, http.MethodDelete,
		fmt.Sprintf("%s/api/projects/%s/tasks", server.URL, projectID), nil)
	if code != http.StatusOK {
		t.Fatalf("delete project tasks: got %d", code)
	}

	_, body = doJSON(t, client, http.MethodGet, server.URL+"/api/projects/"+projectID, nil)
	if tasks, ok := body["project"].(map[string]any)["tasks"]; ok && tasks != nil {
		if list, isList := tasks.([]any); isList && len(list) != 0 {
			t.Errorf("tasks remain after bulk delete: %v", list)
		}
	}

	code, _ = doJSON(t, client, http.MethodPut,
		server.URL+"/api/projects/missing/tasks/mark-all-done", nil)
	if code != http.StatusNotFound {
		t.Fatalf("mark all done on unknown project: got %d, want 404", code)
	}
}

func TestDeleteAllProjects(t *testing.T) {
	server, client := newTestServer(t)

	register(t, client, server.URL, "alice", "pw1")
	for i := 0; i < 2; i++ {
		projectID := createProject(t, client, server.URL, fmt.Sprintf("p%d", i))
		createTask(t, client, server.URL, projectID, "t")
	}

	code, _ := doJSON(t, client, http.MethodDelete, server.URL+"/api/projects", nil)
	if code != http.StatusOK {
		t.Fatalf("delete all projects: got %d", code)
	}

	code, body := doJSON(t, client, http.MethodGet, server.URL+"/api/projects", nil)
	if code != http.StatusOK {
		t.Fatalf("list projects: got %d", code)
	}
	if projects := body["projects"].([]any); len(projects) != 0 {
		t.Errorf("projects remain: %v", projects)
	}
}

func TestAnyAuthenticatedSessionMayMutate(t *testing.T) {
	server, aliceClient := newTestServer(t)

	register(t, aliceClient, server.URL, "alice", "pw1")
	projectID := createProject(t, aliceClient, server.URL, "shared")

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	bobClient := &http.Client{Jar: jar}
	register(t, bobClient, server.URL, "bob", "pw2")

	// Flat authorization: bob may update alice's project.
	code, _ := doJSON(t, bobClient, http.MethodPut, server.URL+"/api/projects/"+projectID,
		map[string]string{"title": "renamed"})
	if code != http.StatusOK {
		t.Fatalf("cross-user update: got %d, want 200", code)
	}
}
