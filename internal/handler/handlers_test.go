package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/chetan-code/taskdesk/internal/mail"
	"github.com/chetan-code/taskdesk/internal/models"
	"github.com/chetan-code/taskdesk/internal/repository"
	"github.com/chetan-code/taskdesk/internal/repository/repotest"
	"github.com/chetan-code/taskdesk/internal/service"
	"github.com/chetan-code/taskdesk/internal/session"
	"github.com/gorilla/sessions"
)

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type testApp struct {
	srv    *httptest.Server
	svc    *service.Service
	mailer *fakeMailer
	db     *sql.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	m := &fakeMailer{}
	repo, db := repotest.Open(t)
	svc := service.New(repo, m)
	sm := session.NewManager([]byte("test secret"), time.Hour, false, nil)
	h := NewTodoHandler(svc, sm, sessions.NewCookieStore([]byte("flash secret")), false)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &testApp{srv: srv, svc: svc, mailer: m, db: db}
}

type response struct {
	status   int
	location string
	body     string
}

// client does not follow redirects so tests can assert on them.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func do(t *testing.T, c *http.Client, req *http.Request) response {
	t.Helper()
	res, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return response{status: res.StatusCode, location: res.Header.Get("Location"), body: string(body)}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return do(t, c, req)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, c, req)
}

// signup registers username and returns a logged in client and the user.
func (a *testApp) signup(t *testing.T, username string) (*http.Client, *models.User) {
	t.Helper()
	c := a.client(t)
	res := a.post(t, c, "/register", url.Values{"username": {username}, "password": {"pw"}, "confirmation": {"pw"}})
	if res.status != http.StatusSeeOther {
		t.Fatalf("register %s: expected 303, got %d: %s", username, res.status, res.body)
	}
	res = a.post(t, c, "/login", url.Values{"username": {username}, "password": {"pw"}})
	if res.status != http.StatusSeeOther || res.location != "/" {
		t.Fatalf("login %s: expected redirect to /, got %d %q", username, res.status, res.location)
	}
	user, err := a.svc.Login(context.Background(), username, "pw")
	if err != nil {
		t.Fatalf("lookup %s: %v", username, err)
	}
	return c, user
}

func (a *testApp) tasks(t *testing.T, userID uint) []models.Task {
	t.Helper()
	tasks, err := a.svc.ListTasks(context.Background(), repository.TaskFilter{OwnerID: userID})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	return tasks
}

func expectContains(t *testing.T, res response, want string) {
	t.Helper()
	if !strings.Contains(res.body, want) {
		t.Errorf("expected body to contain %q, got status %d:\n%s", want, res.status, res.body)
	}
}

func TestAuthFlow(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)

	res := a.get(t, c, "/")
	if res.status != http.StatusOK {
		t.Fatalf("expected anonymous home page, got %d", res.status)
	}

	res = a.get(t, c, "/create_task")
	if res.status != http.StatusSeeOther || res.location != "/login" {
		t.Errorf("expected redirect to /login, got %d %q", res.status, res.location)
	}

	res = a.post(t, c, "/register", url.Values{"username": {"ana"}, "password": {"pw"}, "confirmation": {"pw"}})
	if res.status != http.StatusSeeOther || res.location != "/login" {
		t.Fatalf("expected redirect to /login after register, got %d %q", res.status, res.location)
	}
	expectContains(t, a.get(t, c, "/login"), "Registered! Please log in.")

	//registering does not log in
	res = a.get(t, c, "/create_task")
	if res.status != http.StatusSeeOther {
		t.Errorf("expected no session after register, got %d", res.status)
	}

	res = a.post(t, c, "/login", url.Values{"username": {"ana"}, "password": {"nope"}})
	if res.status != http.StatusBadRequest {
		t.Errorf("expected 400 for wrong password, got %d", res.status)
	}
	expectContains(t, res, "Invalid username and/or password")

	res = a.post(t, c, "/login", url.Values{"username": {"ana"}, "password": {"pw"}})
	if res.status != http.StatusSeeOther || res.location != "/" {
		t.Fatalf("expected login redirect to /, got %d %q", res.status, res.location)
	}
	expectContains(t, a.get(t, c, "/"), "ana")

	res = a.get(t, c, "/create_task")
	if res.status != http.StatusOK {
		t.Errorf("expected create_task form, got %d", res.status)
	}

	a.get(t, c, "/logout")
	res = a.get(t, c, "/create_task")
	if res.status != http.StatusSeeOther || res.location != "/login" {
		t.Errorf("expected redirect to /login after logout, got %d %q", res.status, res.location)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, "ana")

	c := a.client(t)
	res := a.post(t, c, "/register", url.Values{"username": {"ana"}, "password": {"x"}, "confirmation": {"x"}})
	if res.status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", res.status)
	}
	expectContains(t, res, "Username already taken")

	if _, err := a.svc.Login(context.Background(), "ana", "pw"); err != nil {
		t.Errorf("expected first user to be unaffected: %v", err)
	}
}

func TestRegister_TrimsUsername(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, "ana")

	c := a.client(t)
	res := a.post(t, c, "/register", url.Values{"username": {" ana "}, "password": {"x"}, "confirmation": {"x"}})
	if res.status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", res.status)
	}
	expectContains(t, res, "Username already taken")

	res = a.post(t, c, "/login", url.Values{"username": {"  ana"}, "password": {"pw"}})
	if res.status != http.StatusSeeOther || res.location != "/" {
		t.Errorf("expected login with padded username to succeed, got %d %q", res.status, res.location)
	}
}

func TestPasswordTooLong(t *testing.T) {
	a := newTestApp(t)
	long := strings.Repeat("p", 80)

	c := a.client(t)
	res := a.post(t, c, "/register", url.Values{"username": {"ana"}, "password": {long}, "confirmation": {long}})
	if res.status != http.StatusBadRequest {
		t.Errorf("register: expected 400, got %d", res.status)
	}
	expectContains(t, res, "Password is too long")

	c, _ = a.signup(t, "bob")
	res = a.post(t, c, "/change_password", url.Values{"old_password": {"pw"}, "new_password": {long}, "confirmation": {long}})
	if res.status != http.StatusBadRequest {
		t.Errorf("change_password: expected 400, got %d", res.status)
	}
	expectContains(t, res, "Password is too long")

	if _, err := a.svc.Login(context.Background(), "bob", "pw"); err != nil {
		t.Errorf("expected old password to still work: %v", err)
	}
}

func TestChangePassword_ClearsSession(t *testing.T) {
	a := newTestApp(t)
	c, _ := a.signup(t, "ana")

	res := a.post(t, c, "/change_password", url.Values{"old_password": {"wrong"}, "new_password": {"n"}, "confirmation": {"n"}})
	expectContains(t, res, "Invalid username and/or password")

	res = a.post(t, c, "/change_password", url.Values{"old_password": {"pw"}, "new_password": {"n"}, "confirmation": {"n"}})
	if res.status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.status, res.body)
	}
	expectContains(t, res, "Password was changed! Please log in with your new password")

	res = a.get(t, c, "/create_task")
	if res.status != http.StatusSeeOther || res.location != "/login" {
		t.Errorf("expected session to be cleared, got %d %q", res.status, res.location)
	}
	if _, err := a.svc.Login(context.Background(), "ana", "n"); err != nil {
		t.Errorf("expected new password to work: %v", err)
	}
}

func TestTasks_ListingFilters(t *testing.T) {
	a := newTestApp(t)
	c, ana := a.signup(t, "ana")

	res := a.post(t, c, "/create_project", url.Values{"name": {"Garden"}})
	if res.status != http.StatusSeeOther {
		t.Fatalf("create_project: expected 303, got %d: %s", res.status, res.body)
	}
	projects, err := a.svc.ListProjects(context.Background(), ana.ID)
	if err != nil || len(projects) != 1 {
		t.Fatalf("expected one project, got %v (%v)", projects, err)
	}
	pid := fmt.Sprint(projects[0].ID)

	for _, form := range []url.Values{
		{"title": {"Loose task"}, "due_date": {"2024-01-15"}, "project_id": {"None"}},
		{"title": {"Plant roses"}, "project_id": {pid}},
		{"title": {"Finished chore"}, "project_id": {""}},
	} {
		res := a.post(t, c, "/create_task", form)
		if res.status != http.StatusSeeOther {
			t.Fatalf("create_task %v: expected 303, got %d: %s", form, res.status, res.body)
		}
	}

	var loose, finished models.Task
	for _, task := range a.tasks(t, ana.ID) {
		switch task.Title {
		case "Loose task":
			loose = task
		case "Finished chore":
			finished = task
		}
	}
	if loose.DueDateValue() != "2024-01-15" {
		t.Errorf("expected due date 2024-01-15, got %q", loose.DueDateValue())
	}
	if finished.DueDate != nil || finished.ProjectID != nil {
		t.Errorf("expected no due date and no project, got %+v", finished)
	}

	res = a.post(t, c, fmt.Sprintf("/mark_done_ajax/%d", finished.ID), nil)
	if res.status != http.StatusOK {
		t.Fatalf("mark_done_ajax: expected 200, got %d", res.status)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(res.body), &payload); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if payload["message"] != "Task marked as completed" {
		t.Errorf("unexpected payload %v", payload)
	}

	home := a.get(t, c, "/")
	expectContains(t, home, "Loose task")
	if strings.Contains(home.body, "Plant roses") || strings.Contains(home.body, "Finished chore") {
		t.Errorf("expected only open tasks without project on home page:\n%s", home.body)
	}

	inProject := a.get(t, c, "/?project_id="+pid)
	expectContains(t, inProject, "Plant roses")
	if strings.Contains(inProject.body, "Loose task") {
		t.Errorf("expected project listing to exclude other tasks")
	}

	completed := a.get(t, c, "/?completed&project_id="+pid)
	expectContains(t, completed, "Finished chore")
	if strings.Contains(completed.body, "Plant roses") || strings.Contains(completed.body, "Loose task") {
		t.Errorf("expected completed listing to contain only completed tasks")
	}

	res = a.post(t, c, fmt.Sprintf("/mark_undone_ajax/%d", finished.ID), nil)
	if res.status != http.StatusOK {
		t.Fatalf("mark_undone_ajax: expected 200, got %d", res.status)
	}
	expectContains(t, a.get(t, c, "/"), "Finished chore")

	if res := a.get(t, c, "/?project_id=abc"); res.status != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed project_id, got %d", res.status)
	}
}

func TestTasks_RejectMalformedForms(t *testing.T) {
	a := newTestApp(t)
	c, ana := a.signup(t, "ana")

	cases := []struct {
		form url.Values
		want string
	}{
		{url.Values{"title": {""}}, "Please, write a title"},
		{url.Values{"title": {"x"}, "due_date": {"15/01/2024"}}, "Please, write the due date as YYYY-MM-DD"},
		{url.Values{"title": {"x"}, "project_id": {"abc"}}, "Please, choose one of your projects"},
		{url.Values{"title": {"x"}, "project_id": {"42"}}, "Please, choose one of your projects"},
	}
	for _, tc := range cases {
		res := a.post(t, c, "/create_task", tc.form)
		if res.status != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", tc.form, res.status)
		}
		expectContains(t, res, tc.want)
	}
	if n := len(a.tasks(t, ana.ID)); n != 0 {
		t.Errorf("expected nothing stored, got %d tasks", n)
	}
}

func TestTasks_OwnershipIsEnforced(t *testing.T) {
	a := newTestApp(t)
	anaClient, ana := a.signup(t, "ana")
	bobClient, _ := a.signup(t, "bob")

	a.post(t, anaClient, "/create_task", url.Values{"title": {"X"}})
	tasks := a.tasks(t, ana.ID)
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	id := tasks[0].ID

	res := a.post(t, bobClient, fmt.Sprintf("/mark_done_ajax/%d", id), nil)
	if res.status != http.StatusForbidden {
		t.Errorf("expected 403, got %d", res.status)
	}
	expectContains(t, res, `"error"`)

	res = a.post(t, bobClient, fmt.Sprintf("/edit_task/%d", id), url.Values{"title": {"pwned"}})
	if res.status != http.StatusSeeOther || res.location != "/" {
		t.Errorf("expected silent redirect for foreign edit, got %d %q", res.status, res.location)
	}
	if res := a.get(t, bobClient, fmt.Sprintf("/edit_task/%d", id)); res.status != http.StatusSeeOther {
		t.Errorf("expected foreign edit form to redirect, got %d", res.status)
	}

	res = a.post(t, bobClient, fmt.Sprintf("/delete_task/%d", id), nil)
	if res.status != http.StatusSeeOther || res.location != "/" {
		t.Errorf("expected silent redirect for foreign delete, got %d %q", res.status, res.location)
	}
	a.post(t, bobClient, fmt.Sprintf("/mark_done/%d", id), nil)

	got, err := a.svc.OwnedTask(context.Background(), ana.ID, id)
	if err != nil {
		t.Fatalf("expected task to survive: %v", err)
	}
	if got.Title != "X" || got.Completed {
		t.Errorf("expected untouched task, got %+v", got)
	}
}

func TestTasks_EditDoneDelete(t *testing.T) {
	a := newTestApp(t)
	c, ana := a.signup(t, "ana")

	a.post(t, c, "/create_task", url.Values{"title": {"X"}})
	id := a.tasks(t, ana.ID)[0].ID

	expectContains(t, a.get(t, c, fmt.Sprintf("/edit_task/%d", id)), `value="X"`)

	res := a.post(t, c, fmt.Sprintf("/edit_task/%d", id), url.Values{"title": {"Y"}, "description": {"new"}})
	if res.status != http.StatusSeeOther {
		t.Fatalf("edit_task: expected 303, got %d: %s", res.status, res.body)
	}
	home := a.get(t, c, "/")
	expectContains(t, home, "<h3>Y</h3>")
	if strings.Contains(home.body, "<h3>X</h3>") {
		t.Errorf("expected old title to be gone")
	}

	res = a.post(t, c, fmt.Sprintf("/mark_done/%d", id), nil)
	if res.status != http.StatusSeeOther || res.location != "/" {
		t.Errorf("mark_done: expected redirect home, got %d %q", res.status, res.location)
	}
	if got, _ := a.svc.OwnedTask(context.Background(), ana.ID, id); got == nil || !got.Completed {
		t.Errorf("expected task to be completed")
	}

	a.post(t, c, fmt.Sprintf("/delete_task/%d", id), nil)
	if _, err := a.svc.OwnedTask(context.Background(), ana.ID, id); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected task to be deleted, got %v", err)
	}

	//missing tasks are ignored like foreign ones
	res = a.post(t, c, fmt.Sprintf("/mark_done_ajax/%d", id), nil)
	if res.status != http.StatusForbidden {
		t.Errorf("expected 403 for a deleted task, got %d", res.status)
	}
}

func TestContact(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)
	form := url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "subject": {"Hi"}, "message": {"Hello"}}

	res := a.post(t, c, "/contact", form)
	if res.status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.status, res.body)
	}
	expectContains(t, res, "Your message has been sent! Thank you!")
	if len(a.mailer.sent) != 1 || a.mailer.sent[0].Email != "ana@example.com" {
		t.Errorf("expected one message from ana, got %+v", a.mailer.sent)
	}

	res = a.post(t, c, "/contact", url.Values{"name": {"Ana"}})
	if res.status != http.StatusBadRequest {
		t.Errorf("expected 400 for an incomplete form, got %d", res.status)
	}

	a.mailer.err = errors.New("connection refused")
	res = a.post(t, c, "/contact", form)
	if res.status != http.StatusBadGateway {
		t.Errorf("expected 502 when the relay fails, got %d", res.status)
	}
	expectContains(t, res, "Error sending message")
}

func TestAjax_RequiresLoginAsJSON(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)

	res := a.post(t, c, "/mark_done_ajax/1", nil)
	if res.status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d %q", res.status, res.location)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(res.body), &body); err != nil {
		t.Fatalf("expected JSON body, got %q: %v", res.body, err)
	}
	if body["error"] == "" {
		t.Errorf("expected an error message, got %v", body)
	}
}

func TestDeletedUser_SessionIsCleared(t *testing.T) {
	a := newTestApp(t)
	c, user := a.signup(t, "ana")

	if _, err := a.db.Exec("DELETE FROM users WHERE id = ?", user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	res := a.get(t, c, "/")
	if res.status != http.StatusSeeOther || res.location != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", res.status, res.location)
	}

	//the cookie is gone, so the home page is the anonymous one again
	res = a.get(t, c, "/")
	if res.status != http.StatusOK {
		t.Errorf("expected anonymous home page, got %d", res.status)
	}
	if strings.Contains(res.body, "/logout") {
		t.Errorf("expected no logged in header, got:\n%s", res.body)
	}

	res = a.post(t, c, "/mark_done_ajax/1", nil)
	if res.status != http.StatusUnauthorized {
		t.Errorf("expected 401 on ajax route, got %d", res.status)
	}
}

func TestPersistenceFailures(t *testing.T) {
	a := newTestApp(t)
	c, user := a.signup(t, "ana")

	res := a.post(t, c, "/create_task", url.Values{"title": {"write report"}})
	if res.status != http.StatusSeeOther {
		t.Fatalf("create_task: expected 303, got %d: %s", res.status, res.body)
	}
	id := a.tasks(t, user.ID)[0].ID

	//users and projects still work, every task query fails
	if _, err := a.db.Exec("DROP TABLE tasks"); err != nil {
		t.Fatalf("drop tasks: %v", err)
	}

	res = a.post(t, c, fmt.Sprintf("/mark_done_ajax/%d", id), nil)
	if res.status != http.StatusInternalServerError {
		t.Errorf("mark_done_ajax: expected 500, got %d", res.status)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(res.body), &body); err != nil {
		t.Fatalf("expected JSON body, got %q: %v", res.body, err)
	}
	if body["error"] != "could not update task" {
		t.Errorf("expected error %q, got %v", "could not update task", body)
	}

	res = a.post(t, c, "/create_task", url.Values{"title": {"another"}})
	if res.status != http.StatusInternalServerError {
		t.Errorf("create_task: expected 500, got %d", res.status)
	}
	expectContains(t, res, "Sorry, we could not save your changes. Please try again.")
}
