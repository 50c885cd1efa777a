// Package testutil provides an in-memory TaskTracker backend for tests. It
// speaks the same JSON and session-cookie protocol as the real server.
package testutil

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tasktracker/internal/model"
)

const sessionCookie = "session"

type user struct {
	model.User
	password string
}

type task struct {
	model.Task
	owner int
}

type failure struct {
	status  int
	message string
}

type Backend struct {
	Server *httptest.Server
	// Now stamps created_at/updated_at.
	Now func() time.Time

	mu       sync.Mutex
	users    map[int]*user
	tasks    map[int]*task
	sessions map[string]int
	nextUser int
	nextTask int
	failures map[string]failure
	requests []string
}

// NewBackend starts the fake server and stops it when t ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		Now:      time.Now,
		users:    map[int]*user{},
		tasks:    map[int]*task{},
		sessions: map[string]int{},
		failures: map[string]failure{},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(b.record, b.injectFailures)

	e.POST("/auth/login", b.login)
	e.POST("/auth/register", b.register)
	e.POST("/auth/logout", b.logout)
	e.GET("/auth/login", func(c echo.Context) error {
		return renderForm(c, "login-form", "")
	})

	authed := e.Group("", b.requireUser)
	authed.GET("/auth/api/me", b.me)
	authed.GET("/api/tasks", b.listTasks)
	authed.POST("/api/tasks", b.createTask)
	authed.PUT("/api/tasks/:id", b.updateTask)
	authed.DELETE("/api/tasks/:id", b.deleteTask)
	authed.GET("/auth/api/users", b.listUsers, b.requireAdmin)
	authed.DELETE("/auth/api/users/:id", b.deleteUser, b.requireAdmin)

	b.Server = httptest.NewServer(e)
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) URL() string {
	return b.Server.URL
}

func (b *Backend) AddUser(username, password string, admin bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(username, password, admin)
}

func (b *Backend) addUserLocked(username, password string, admin bool) int {
	b.nextUser++
	b.users[b.nextUser] = &user{
		User:     model.User{ID: b.nextUser, Username: username, IsAdmin: admin},
		password: password,
	}
	return b.nextUser
}

// AddTask stores t for owner and returns its id. Zero timestamps are set to Now.
func (b *Backend) AddTask(owner int, t model.Task) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextTask++
	t.ID = b.nextTask
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = model.Timestamp{Time: b.Now()}
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	b.tasks[t.ID] = &task{Task: t, owner: owner}
	return t.ID
}

func (b *Backend) Task(id int) (model.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	return t.Task, true
}

func (b *Backend) UserExists(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.users[id]
	return ok
}

// Fail makes every later "METHOD /path" request answer status with an error
// payload until Recover is called.
func (b *Backend) Fail(method, path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, message: message}
}

func (b *Backend) Recover(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, method+" "+path)
}

// Requests returns "METHOD /path" for every request served so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r == method+" "+path {
			n++
		}
	}
	return n
}

func (b *Backend) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		b.mu.Lock()
		b.requests = append(b.requests, c.Request().Method+" "+c.Request().URL.Path)
		b.mu.Unlock()
		return next(c)
	}
}

func (b *Backend) injectFailures(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		b.mu.Lock()
		f, ok := b.failures[c.Request().Method+" "+c.Request().URL.Path]
		b.mu.Unlock()
		if ok {
			return c.JSON(f.status, echo.Map{"error": f.message})
		}
		return next(c)
	}
}

func (b *Backend) currentUser(c echo.Context) (*user, bool) {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.sessions[cookie.Value]
	if !ok {
		return nil, false
	}
	u, ok := b.users[id]
	return u, ok
}

func (b *Backend) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, ok := b.currentUser(c)
		if !ok {
			return c.Redirect(http.StatusFound, "/auth/login")
		}
		c.Set("user", u)
		return next(c)
	}
}

func (b *Backend) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !c.Get("user").(*user).IsAdmin {
			return c.Redirect(http.StatusFound, "/")
		}
		return next(c)
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (b *Backend) login(c echo.Context) error {
	var in credentials
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b.mu.Lock()
	var found *user
	for _, u := range b.users {
		if u.Username == in.Username {
			found = u
		}
	}
	if found == nil {
		b.mu.Unlock()
		return renderForm(c, "login-form", "Incorrect username.")
	}
	if found.password != in.Password {
		b.mu.Unlock()
		return renderForm(c, "login-form", "Incorrect password.")
	}
	token := uuid.NewString()
	b.sessions[token] = found.ID
	b.mu.Unlock()

	c.SetCookie(&http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true})
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Login successful!"})
}

func (b *Backend) register(c echo.Context) error {
	var in credentials
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	switch {
	case in.Username == "":
		return renderForm(c, "register-form", "Username is required.")
	case in.Password == "":
		return renderForm(c, "register-form", "Password is required.")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Username == in.Username {
			return renderForm(c, "register-form", fmt.Sprintf("User %s is already registered.", in.Username))
		}
	}
	b.addUserLocked(in.Username, in.Password, false)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Registration successful!"})
}

// renderForm answers like the server's auth views do on a rejected
// submission: 200 with the HTML form and the error flashed above it.
func renderForm(c echo.Context, id, flash string) error {
	var page strings.Builder
	page.WriteString("<html><body><div id=\"alert-container\">")
	if flash != "" {
		fmt.Fprintf(&page, "<div class=\"alert alert-error\">%s</div>", html.EscapeString(flash))
	}
	fmt.Fprintf(&page, "</div><form id=%q></form></body></html>", id)
	return c.HTML(http.StatusOK, page.String())
}

func (b *Backend) logout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		b.mu.Lock()
		delete(b.sessions, cookie.Value)
		b.mu.Unlock()
	}
	c.SetCookie(&http.Cookie{Name: sessionCookie, Path: "/", MaxAge: -1})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (b *Backend) me(c echo.Context) error {
	return c.JSON(http.StatusOK, c.Get("user").(*user).User)
}

func (b *Backend) listTasks(c echo.Context) error {
	owner := c.Get("user").(*user).ID
	b.mu.Lock()
	out := []model.Task{}
	for _, t := range b.tasks {
		if t.owner == owner {
			out = append(out, t.Task)
		}
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, echo.Map{"tasks": out})
}

func (b *Backend) createTask(c echo.Context) error {
	var in struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		DueDate     string `json:"due_date"`
		Tags        string `json:"tags"`
	}
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if strings.TrimSpace(in.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title is required"})
	}
	priority, err := model.ParsePriority(in.Priority)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	due, err := model.ParseDate(in.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid due date"})
	}
	id := b.AddTask(c.Get("user").(*user).ID, model.Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		DueDate:     due,
		Tags:        in.Tags,
	})
	created, _ := b.Task(id)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "task": created})
}

func (b *Backend) ownedTask(c echo.Context) (*task, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid task id"})
	}
	owner := c.Get("user").(*user).ID
	t, ok := b.tasks[id]
	if !ok || t.owner != owner {
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "Task not found"})
	}
	return t, nil
}

func (b *Backend) updateTask(c echo.Context) error {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.ownedTask(c)
	if t == nil {
		return err
	}
	updated := t.Task
	for name, raw := range fields {
		var target any
		switch name {
		case "title":
			target = &updated.Title
		case "description":
			target = &updated.Description
		case "priority":
			target = &updated.Priority
		case "due_date":
			target = &updated.DueDate
		case "tags":
			target = &updated.Tags
		case "status":
			target = &updated.Status
		default:
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("Invalid %s", name)})
		}
	}
	if strings.TrimSpace(updated.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title is required"})
	}
	updated.UpdatedAt = model.Timestamp{Time: b.Now()}
	t.Task = updated
	return c.JSON(http.StatusOK, echo.Map{"success": true, "task": updated})
}

func (b *Backend) deleteTask(c echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.ownedTask(c)
	if t == nil {
		return err
	}
	delete(b.tasks, t.ID)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (b *Backend) listUsers(c echo.Context) error {
	b.mu.Lock()
	users := make([]model.User, 0, len(b.users))
	for _, u := range b.users {
		users = append(users, u.User)
	}
	b.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return c.JSON(http.StatusOK, echo.Map{"users": users, "current_user_id": c.Get("user").(*user).ID})
}

func (b *Backend) deleteUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Invalid user id"})
	}
	if id == c.Get("user").(*user).ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "You cannot delete your own account."})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "User not found."})
	}
	delete(b.users, id)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": fmt.Sprintf("User %s has been deleted.", u.Username)})
}
