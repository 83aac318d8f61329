package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"moviebox/internal/api"
	"moviebox/internal/daemon"
	"moviebox/internal/testsupport"
	"moviebox/internal/tmdb"
)

func TestDaemonStartStop(t *testing.T) {
	srv := testsupport.NewTMDBServer(t)
	srv.AddMovie(tmdb.MovieDetails{ID: 673, Title: "Sample", PosterPath: "/abc.jpg"})
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBServer(srv))

	d, err := daemon.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.Address == "" {
		t.Fatal("expected listen address")
	}
	if status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("database path = %q, want %q", status.DatabasePath, cfg.DatabasePath())
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	resp, err := http.Get("http://" + status.Address + "/api/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	var health api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "healthy" {
		t.Fatalf("unexpected health %+v", health)
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := daemon.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	second, err := daemon.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected lock contention error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !d.Status(context.Background()).Running {
		if time.Now().After(deadline) {
			t.Fatal("daemon never started")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if d.Status(context.Background()).LastPrune == nil {
		t.Fatal("expected an initial prune")
	}
}

func TestPruneNowRecordsReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	report := d.PruneNow()
	if report.Err != "" {
		t.Fatalf("prune error: %s", report.Err)
	}
	if got := d.Status(context.Background()).LastPrune; got == nil || !got.At.Equal(report.At) {
		t.Fatalf("last prune not recorded: %+v", got)
	}
}
