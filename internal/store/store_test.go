package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loykin/curlproxy/internal/command"
	"github.com/loykin/curlproxy/internal/common"
	"github.com/loykin/curlproxy/internal/executor"
	"github.com/loykin/curlproxy/internal/proxy"
	"github.com/loykin/curlproxy/internal/verbose"
)

// helper to open a store in a temporary file path
func openTempStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.DriverConfig == nil {
		cfg.DriverConfig = &SqliteConfig{Path: filepath.Join(t.TempDir(), DbFileName)}
	}
	st, err := Open(context.Background(), cfg, common.NewDiscardLogger())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestTableNames(t *testing.T) {
	tn, err := TableNames("")
	if err != nil || tn.ProxyRuns != "proxy_runs" {
		t.Fatalf("default = %v, %v", tn, err)
	}
	tn, err = TableNames(" app ")
	if err != nil || tn.ProxyRuns != "app_proxy_runs" {
		t.Fatalf("prefixed = %v, %v", tn, err)
	}
	for _, bad := range []string{"1app", "app;drop", "a-b", "x y"} {
		if _, err := TableNames(bad); err == nil {
			t.Fatalf("prefix %q should be rejected", bad)
		}
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpen_PostgresWithoutDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "postgres", DriverConfig: &PostgresConfig{}}, nil); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestStore_RecordListGet(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t, Config{TablePrefix: "test"})
	if st.Driver() != DriverSqlite || st.Table() != "test_proxy_runs" {
		t.Fatalf("driver=%s table=%s", st.Driver(), st.Table())
	}

	if err := st.Record(ctx, Run{}); err == nil {
		t.Fatalf("run without id must be rejected")
	}
	for i, id := range []string{"a", "b", "c"} {
		status := 200 + i
		if err := st.Record(ctx, Run{ID: id, Command: "curl " + id, TargetURL: "https://x", Outcome: "completed", HTTPStatus: &status, Success: true}); err != nil {
			t.Fatalf("Record(%s): %v", id, err)
		}
	}

	runs, err := st.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "c" || runs[2].ID != "a" {
		t.Fatalf("runs = %+v", runs)
	}
	runs, _ = st.List(ctx, 1)
	if len(runs) != 1 || runs[0].ID != "c" || *runs[0].HTTPStatus != 202 {
		t.Fatalf("limited runs = %+v", runs)
	}

	got, err := st.Get(ctx, "b")
	if err != nil || got.Command != "curl b" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := st.Get(ctx, "zzz"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("Get missing err = %v", err)
	}
}

func TestStore_ReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	cfg := Config{DriverConfig: &SqliteConfig{Path: path}}

	st, err := Open(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Record(ctx, Run{ID: "kept", Command: "curl", TargetURL: "https://x", Outcome: "completed"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	_ = st.Close()

	st = openTempStore(t, cfg)
	if _, err := st.Get(ctx, "kept"); err != nil {
		t.Fatalf("run lost after reopen: %v", err)
	}
}

func sampleResponse() *proxy.Response {
	status := 200
	ct := "application/json"
	res := executor.Result{
		Stdout:      `{"token":"abc123"}`,
		Stderr:      "< set-cookie: session=s3cr3t",
		ExitCode:    0,
		CommandLine: "curl -H 'Authorization: Bearer abc.def.ghi' https://api.example.com/data?token=t0k",
		Elapsed:     42 * time.Millisecond,
		Outcome:     executor.OutcomeCompleted,
	}
	r := proxy.Assemble(res, &verbose.Metadata{HTTPStatusCode: &status, ContentType: &ct})
	r.RunID = "run-1"
	return r
}

func TestRecorder_MasksAndOmitsOutput(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t, Config{})
	rec := NewRecorder(st, common.NewMasker())

	spec := command.Spec{TargetURL: "https://api.example.com/data?token=t0k"}
	if err := rec.Record(ctx, spec, sampleResponse()); err != nil {
		t.Fatalf("Record: %v", err)
	}
	run, err := st.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for _, leak := range []string{"abc.def.ghi", "t0k"} {
		if strings.Contains(run.Command, leak) || strings.Contains(run.TargetURL, leak) {
			t.Fatalf("secret %q persisted: %+v", leak, run)
		}
	}
	if run.Output != nil || run.Error != nil {
		t.Fatalf("output must not be kept without save_output")
	}
	if run.HTTPStatus == nil || *run.HTTPStatus != 200 || *run.ElapsedMs != 42 || !run.Success {
		t.Fatalf("run = %+v", run)
	}
}

func TestRecorder_SaveOutput(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t, Config{SaveOutput: true})
	rec := NewRecorder(st, nil)

	if err := rec.Record(ctx, command.Spec{TargetURL: "https://x"}, sampleResponse()); err != nil {
		t.Fatalf("Record: %v", err)
	}
	run, err := st.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Output == nil || run.Error == nil {
		t.Fatalf("output should be kept: %+v", run)
	}
	if strings.Contains(*run.Output, "abc123") || strings.Contains(*run.Error, "s3cr3t") {
		t.Fatalf("kept output must be masked: %q %q", *run.Output, *run.Error)
	}
}

func TestRecorder_WithProxyService(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t, Config{})
	svc := proxy.New(proxy.Options{
		Builder:    command.Builder{Binary: "definitely-missing-client"},
		Recorder:   NewRecorder(st, nil),
		RejectMode: proxy.RejectFail,
	})

	resp, err := svc.Execute(ctx, command.Spec{TargetURL: "https://x", RawParameters: "-d 'a|b'"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	run, err := st.Get(ctx, resp.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Outcome != "rejected" || run.ExitCode != -1 || run.ElapsedMs != nil {
		t.Fatalf("run = %+v", run)
	}
}
