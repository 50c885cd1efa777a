package api

import (
	"context"
	"fmt"
	"net/http"

	"tasktracker/internal/model"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TaskInput is the body of create and full update requests. DueDate is
// "YYYY-MM-DD" or empty.
type TaskInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	DueDate     string         `json:"due_date"`
	Tags        string         `json:"tags"`
}

type statusPatch struct {
	Status model.Status `json:"status"`
}

// UserList is the admin listing plus the id of the admin asking for it.
type UserList struct {
	Users         []model.User `json:"users"`
	CurrentUserID int          `json:"current_user_id"`
}

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	return c.submit(ctx, loginPath, credentials{username, password})
}

func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	return c.submit(ctx, "/auth/register", credentials{username, password})
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	return err
}

func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	_, err := c.do(ctx, http.MethodGet, "/auth/api/me", nil, &u)
	return u, err
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var out struct {
		Tasks []model.Task `json:"tasks"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, in TaskInput) error {
	_, err := c.do(ctx, http.MethodPost, "/api/tasks", in, nil)
	return err
}

func (c *Client) UpdateTask(ctx context.Context, id int, in TaskInput) error {
	_, err := c.do(ctx, http.MethodPut, taskPath(id), in, nil)
	return err
}

// SetStatus is the status-only update behind the checkbox toggle.
func (c *Client) SetStatus(ctx context.Context, id int, status model.Status) error {
	_, err := c.do(ctx, http.MethodPut, taskPath(id), statusPatch{status}, nil)
	return err
}

func (c *Client) DeleteTask(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
	return err
}

func (c *Client) ListUsers(ctx context.Context) (UserList, error) {
	var out UserList
	_, err := c.do(ctx, http.MethodGet, "/auth/api/users", nil, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id int) (string, error) {
	env, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/auth/api/users/%d", id), nil, nil)
	return env.Message, err
}

func taskPath(id int) string {
	return fmt.Sprintf("/api/tasks/%d", id)
}
