package database

import "time"

// Task status values. "to do" is the default for newly created tasks.
const (
	StatusToDo       = "to do"
	StatusInProgress = "in progress"
	StatusDone       = "done"
)

// ValidStatuses enumerates the statuses a task may hold.
var ValidStatuses = map[string]bool{
	StatusToDo:       true,
	StatusInProgress: true,
	StatusDone:       true,
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Omit from JSON output for security
	CreatedAt    time.Time `json:"created_at"`
}

// SafeUser is the projection of a User that is safe to return to clients.
type SafeUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Safe returns the client-facing projection of the user.
func (u *User) Safe() SafeUser {
	return SafeUser{ID: u.ID, Username: u.Username}
}

// Session associates an opaque id with an authenticated user. Sessions
// are stored server-side so logout revokes them immediately.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Tasks       []Task    `json:"tasks,omitempty"` // populated by GetProject only
}

type Task struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
