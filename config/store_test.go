package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreSwapNotifiesListeners(t *testing.T) {
	type cfg struct{ N int }
	s := NewStore(&cfg{N: 1})

	var gotOld, gotNext int
	s.OnChange(func(old, next *cfg) {
		gotOld, gotNext = old.N, next.N
	})

	prev := s.Swap(&cfg{N: 2})
	if prev.N != 1 {
		t.Errorf("swap returned %d, want 1", prev.N)
	}
	if gotOld != 1 || gotNext != 2 {
		t.Errorf("listener saw %d -> %d", gotOld, gotNext)
	}
	if s.Get().N != 2 {
		t.Errorf("get = %d", s.Get().N)
	}
}

func TestLoadTOMLRoster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.toml")
	data := `
[hub]
timeout = "2s"
max_in_flight = 4

[[server]]
name = "gopls"
languages = ["go"]
encoding = "utf-16"

[[server]]
name = "golangci"
languages = ["go"]
methods = ["textDocument/codeAction"]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadTOML(path, &Roster{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Duration(r.Hub.Timeout) != 2*time.Second {
		t.Errorf("timeout = %v", time.Duration(r.Hub.Timeout))
	}
	if r.Hub.MaxInFlight != 4 {
		t.Errorf("max_in_flight = %d", r.Hub.MaxInFlight)
	}
	if len(r.Servers) != 2 || r.Servers[1].ID != "golangci" {
		t.Errorf("servers = %+v", r.Servers)
	}
}

func TestLoadTOMLMissingFileReturnsDefaults(t *testing.T) {
	defaults := &Roster{Servers: []ServerConfig{{Name: "fallback"}}}
	r, err := LoadTOML(filepath.Join(t.TempDir(), "absent.toml"), defaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Servers) != 1 || r.Servers[0].Name != "fallback" {
		t.Errorf("defaults not returned: %+v", r)
	}
}

func TestLoadTOMLValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.toml")
	if err := os.WriteFile(path, []byte("[[server]]\nname = \"x\"\nencoding = \"utf-9\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTOML(path, &Roster{}); err == nil {
		t.Error("expected a validation error")
	}
}

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.toml")
	if err := os.WriteFile(path, []byte("# empty\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 1)
	w, err := NewWatcher(path, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[hub]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never fired")
	}
}
