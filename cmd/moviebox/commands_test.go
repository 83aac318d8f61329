package main

import (
	"encoding/json"
	"testing"

	"moviebox/internal/screen"
)

func TestMovieCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"movie", "673"}, env.configPath)
	if err != nil {
		t.Fatalf("movie: %v", err)
	}
	requireContains(t, out, "Sample (2004)")
	requireContains(t, out, "2h 21m")
	requireContains(t, out, "Lead Actor")
	requireContains(t, out, "Official Trailer")
	requireContains(t, out, "Other Movie")
	requireContains(t, out, "Rate:    0/5")

	out, _, err = runCLI(t, []string{"movie", "673", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("movie --json: %v", err)
	}
	var snap screen.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode snapshot: %v\n%s", err, out)
	}
	if snap.State != screen.StateLoaded || snap.Card.MovieID != 673 || !snap.Card.HasPoster {
		t.Fatalf("unexpected snapshot: state=%s card=%+v", snap.State, snap.Card)
	}

	if _, _, err := runCLI(t, []string{"movie", "999"}, env.configPath); err == nil {
		t.Fatal("expected unknown movie to fail")
	}
	if _, _, err := runCLI(t, []string{"movie", "abc"}, env.configPath); err == nil {
		t.Fatal("expected invalid id to fail")
	}
}

func TestListAndSearchCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Sample")
	requireContains(t, out, "Other Movie")
	requireContains(t, out, "Page 1 of 1 (2 results)")

	if _, _, err := runCLI(t, []string{"list", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected unknown list to fail")
	}

	out, _, err = runCLI(t, []string{"search", "other"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Other Movie")
	requireNotContains(t, out, "Sample")
}

func TestCardCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"card", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("card list: %v", err)
	}
	requireContains(t, out, "No cards yet")

	out, _, err = runCLI(t, []string{"card", "add", "673", "--rate", "4", "--comment", "great"}, env.configPath)
	if err != nil {
		t.Fatalf("card add: %v", err)
	}
	requireContains(t, out, "Sample (673)")
	requireContains(t, out, "Rate:    4/5")
	requireNotContains(t, out, "Poster:  none")

	if _, _, err := runCLI(t, []string{"card", "rate", "673", "7"}, env.configPath); err != nil {
		t.Fatalf("card rate: %v", err)
	}
	if _, _, err := runCLI(t, []string{"card", "comment", "673", "watch", "again"}, env.configPath); err != nil {
		t.Fatalf("card comment: %v", err)
	}

	out, _, err = runCLI(t, []string{"card", "show", "673", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("card show: %v", err)
	}
	var view screen.MovieCardView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	if view.Rate != 5 || view.Comment != "watch again" || !view.HasPoster {
		t.Fatalf("unexpected card %+v", view)
	}

	out, _, err = runCLI(t, []string{"card", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("card list: %v", err)
	}
	requireContains(t, out, "watch again")

	out, _, err = runCLI(t, []string{"movie", "673"}, env.configPath)
	if err != nil {
		t.Fatalf("movie: %v", err)
	}
	requireContains(t, out, "Rate:    5/5")

	if _, _, err := runCLI(t, []string{"card", "delete", "673"}, env.configPath); err != nil {
		t.Fatalf("card delete: %v", err)
	}
	if _, _, err := runCLI(t, []string{"card", "show", "673"}, env.configPath); err == nil {
		t.Fatal("expected deleted card to be missing")
	}
	if _, _, err := runCLI(t, []string{"card", "rate", "680", "3"}, env.configPath); err == nil {
		t.Fatal("expected rating a missing card to fail")
	}
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"card", "add", "673"}, env.configPath); err != nil {
		t.Fatalf("card add: %v", err)
	}

	out, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Disk")
	requireContains(t, out, env.cfg.ImageCacheDir())

	out, _, err = runCLI(t, []string{"cache", "prune"}, env.configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "Removed 0 images")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Image cache cleared")
}
