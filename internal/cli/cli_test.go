package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formset/internal/config"
	"github.com/goliatone/go-formset/internal/prompt"
	"github.com/goliatone/go-formset/internal/server"
)

const tasksFragment = `<table class="formset" id="tasks"><tbody>` +
	`<tr><td><span class="row-counter">1</span></td>` +
	`<td><input name="tasks-0-name" id="id_tasks-0-name" value="Setup"></td></tr>` +
	`<tr class="add-row"><td><a href="#">Add task</a></td></tr>` +
	`</tbody></table>` +
	`<input type="hidden" name="tasks-TOTAL_FORMS" value="1">`

func run(t *testing.T, app *App, stdin string, args ...string) (string, error) {
	t.Helper()
	if app == nil {
		app = &App{}
	}
	cmd := newRootCmd(app)
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestIncrementCmd(t *testing.T) {
	out, err := run(t, nil, "", "increment", "participants-0-user", "form-1-participant-1", "plain")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	want := "participants-1-user\nform-2-participant-2\nplain\n"
	if out != want {
		t.Fatalf("unexpected output %q, want %q", out, want)
	}

	if _, err := run(t, nil, "", "increment"); err == nil {
		t.Fatalf("expected an argument error")
	}
}

func TestAddRowCmd_Stdin(t *testing.T) {
	out, err := run(t, nil, tasksFragment, "add-row", "--section", "#tasks", "--count", "2")
	if err != nil {
		t.Fatalf("add-row: %v", err)
	}
	for _, fragment := range []string{`name="tasks-1-name"`, `name="tasks-2-name"`, `value="3"`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, out)
		}
	}
}

func TestAddRowCmd_InPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	writeFile(t, path, "<!DOCTYPE html><html><body>"+tasksFragment+"</body></html>")

	out, err := run(t, nil, "", "add-row", "--in", path, "--out", path)
	if err != nil {
		t.Fatalf("add-row: %v", err)
	}
	if out != "" {
		t.Fatalf("expected nothing on stdout, got %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `name="tasks-1-name"`) || !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Fatalf("unexpected file content:\n%s", data)
	}
}

func TestAddRowCmd_Errors(t *testing.T) {
	if _, err := run(t, nil, tasksFragment, "add-row", "--count", "0"); err == nil {
		t.Fatalf("expected count error")
	}
	if _, err := run(t, nil, tasksFragment, "add-row", "--section", "#missing"); err == nil {
		t.Fatalf("expected missing section error")
	}
}

func TestBindWidgetsCmd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bindings.yaml"), `
bindings:
  - widget: date
    selector: input.when
    priority: 90
`)
	markup := `<form><select name="participants-0-assignees"></select><input class="when" name="when"></form>`

	out, err := run(t, nil, markup, "bind-widgets", "--bindings", dir, "--autocomplete-base", "/api")
	if err != nil {
		t.Fatalf("bind-widgets: %v", err)
	}
	for _, fragment := range []string{
		`data-widget="select"`,
		`data-endpoint-url="/api/participants/autocomplete/"`,
		`data-widget="date"`,
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, out)
		}
	}

	if _, err := run(t, nil, markup, "bind-widgets", "--bindings", filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected bindings dir error")
	}
}

func TestRewriteLinksCmd(t *testing.T) {
	page := `<select id="camp-context-select"><option value="1">2015</option><option value="2" selected>2016</option></select>` +
		`<a href="/dpadmin/tasks/">Tasks</a><a href="/about/">About</a>`

	out, err := run(t, nil, page, "rewrite-links")
	if err != nil {
		t.Fatalf("rewrite-links: %v", err)
	}
	if !strings.Contains(out, `href="/dpadmin/tasks/?c=2"`) || !strings.Contains(out, `href="/about/"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = run(t, nil, page, "rewrite-links", "--context", "7")
	if err != nil {
		t.Fatalf("rewrite-links: %v", err)
	}
	if !strings.Contains(out, `href="/dpadmin/tasks/?c=7"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, err := run(t, nil, `<a href="/dpadmin/">x</a>`, "rewrite-links"); err == nil {
		t.Fatalf("expected missing context error")
	}
}

type scriptedDriver struct {
	inputs  []string
	confirm []bool
}

func (d *scriptedDriver) Input(context.Context, prompt.InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *scriptedDriver) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) {
	if len(d.confirm) == 0 {
		return false, errors.New("no confirm scripted")
	}
	v := d.confirm[0]
	d.confirm = d.confirm[1:]
	return v, nil
}

func (d *scriptedDriver) Select(context.Context, prompt.SelectConfig) (int, error) {
	return -1, errors.New("no select scripted")
}

func (d *scriptedDriver) MultiSelect(context.Context, prompt.SelectConfig) ([]int, error) {
	return nil, errors.New("no multiselect scripted")
}

func (d *scriptedDriver) Info(context.Context, string) error { return nil }

func TestFillCmd_Form(t *testing.T) {
	app := &App{driver: &scriptedDriver{inputs: []string{"hello", "again"}, confirm: []bool{true, false}}}

	out, err := run(t, app, "", "fill", "--prefix", "notes", "--field", "text")
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	want := "notes-0-text=hello&notes-1-text=again&notes-INITIAL_FORMS=1&notes-MAX_NUM_FORMS=1000&notes-MIN_NUM_FORMS=0&notes-TOTAL_FORMS=2\n"
	if out != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, out)
	}
}

func TestFillCmd_SeededHTML(t *testing.T) {
	app := &App{driver: &scriptedDriver{inputs: []string{"Setup", "Teardown"}, confirm: []bool{true, false}}}
	seed := "tasks-TOTAL_FORMS=1&tasks-INITIAL_FORMS=1&tasks-0-name=Setup\n"

	out, err := run(t, app, seed, "fill", "--prefix", "tasks", "--field", "name!", "--in", "-", "--format", "html")
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	for _, fragment := range []string{
		`name="tasks-0-name" id="id_tasks-0-name" value="Setup"`,
		`name="tasks-1-name" id="id_tasks-1-name" value="Teardown"`,
		`name="tasks-TOTAL_FORMS" value="2"`,
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, out)
		}
	}
}

func TestFillCmd_Errors(t *testing.T) {
	app := &App{driver: &scriptedDriver{}}
	if _, err := run(t, app, "", "fill", "--prefix", "x", "--field", "a", "--format", "xml"); err == nil {
		t.Fatalf("expected format error")
	}
	if _, err := run(t, app, "", "fill", "--prefix", "x", "--field", "a:color"); err == nil {
		t.Fatalf("expected field error")
	}
	if _, err := run(t, app, "", "fill", "--field", "a"); err == nil {
		t.Fatalf("expected required prefix error")
	}
}

func TestParseFields_SearchBase(t *testing.T) {
	fields, err := parseFields([]string{
		"user:lookup:/participants/autocomplete/",
		"tags:lookup:https://other.example.com/tags/",
	}, "http://localhost:3200/")
	if err != nil {
		t.Fatalf("parse fields: %v", err)
	}
	if fields[0].Endpoint != "http://localhost:3200/participants/autocomplete/" {
		t.Fatalf("unexpected endpoint %q", fields[0].Endpoint)
	}
	if fields[1].Endpoint != "https://other.example.com/tags/" {
		t.Fatalf("absolute endpoints must be kept, got %q", fields[1].Endpoint)
	}
}

func TestServerOptions(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "people.yaml")
	writeFile(t, sourcePath, `
participants:
  - id: 1
    username: jdoe
    first_name: Jane
    last_name: Doe
    start_date: "2016-08-27"
    end_date: "2016-08-29"
tags:
  - id: 10
    name: kitchen
`)
	rowPath := filepath.Join(dir, "row.html")
	writeFile(t, rowPath, `<li>{{ names.user }}</li>`)

	cfg := &config.Configuration{
		Server: config.ServerOptions{BasePath: "/", MetricsPath: "/metrics"},
		Data:   config.DataOptions{SourceFile: sourcePath, RowTemplate: rowPath, MatchMode: "fuzzy"},
	}
	fns, err := serverOptions(cfg)
	if err != nil {
		t.Fatalf("server options: %v", err)
	}
	srv, err := server.New(fns...)
	if err != nil {
		t.Fatalf("server: %v", err)
	}

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/participants/autocomplete/?q=jne", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Jane Doe") {
		t.Fatalf("unexpected autocomplete response %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/participants/autocomplete/?q=jane&d=2016-09-01", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"disqualified_for_date":true`) {
		t.Fatalf("expected availability annotation %d: %s", rr.Code, rr.Body.String())
	}

	form := "participants-TOTAL_FORMS=1&participants-INITIAL_FORMS=1&participants-0-user=1"
	req := httptest.NewRequest(http.MethodPost, "/formsets/participants/rows", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "<li>participants-1-user</li>" {
		t.Fatalf("unexpected add-row response %d: %q", rr.Code, rr.Body.String())
	}

	cfg.Data.SourceFile = filepath.Join(dir, "missing.yaml")
	if _, err := serverOptions(cfg); err == nil {
		t.Fatalf("expected missing source error")
	}
}

func TestRowTemplateOptions(t *testing.T) {
	dir := t.TempDir()
	bare := filepath.Join(dir, "row")
	writeFile(t, bare, `<li>{{ names.user }}</li>`)

	if _, err := rowTemplateOptions(filepath.Join(dir, "missing.html")); err == nil {
		t.Fatalf("expected missing template error")
	}
	if _, err := rowTemplateOptions(bare); err == nil || !strings.Contains(err.Error(), "extension") {
		t.Fatalf("expected extension error, got %v", err)
	}
}
