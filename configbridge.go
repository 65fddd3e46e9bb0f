package chorus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/chorus-lsp/chorus/config"
	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/protocol"
)

// RosterRegistry adapts a TOML roster file into a hot-reloading Registry.
// Reads see an immutable registry snapshot; a reload builds a fresh one and
// swaps it in atomically, so a dispatch in progress keeps the roster it
// started with.
type RosterRegistry struct {
	path   string
	logger *slog.Logger

	roster   *config.Store[config.Roster]
	registry *config.Store[config.StaticRegistry]
	watcher  *config.Watcher
}

// OpenRoster loads the roster file and builds the initial registry. A
// missing file yields an empty roster, which is valid: every operation then
// reports ErrNoCapability until a reload brings servers in.
func OpenRoster(path string, logger *slog.Logger) (*RosterRegistry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	roster, err := config.LoadTOML(path, &config.Roster{})
	if err != nil {
		return nil, fmt.Errorf("opening roster: %w", err)
	}
	r := &RosterRegistry{
		path:     path,
		logger:   logger,
		roster:   config.NewStore(roster),
		registry: config.NewStore(config.NewStaticRegistry(roster)),
	}
	return r, nil
}

// ClientsFor implements Registry against the current snapshot.
func (r *RosterRegistry) ClientsFor(method string, uri protocol.DocumentURI) []dispatch.Client {
	return r.registry.Get().ClientsFor(method, uri)
}

// ClientByID implements Registry against the current snapshot.
func (r *RosterRegistry) ClientByID(id string) (dispatch.Client, bool) {
	return r.registry.Get().ClientByID(id)
}

// Roster returns the current roster snapshot.
func (r *RosterRegistry) Roster() *config.Roster { return r.roster.Get() }

// HubOptions derives hub tuning options from the roster's [hub] section.
func (r *RosterRegistry) HubOptions() []Option {
	var opts []Option
	hc := r.roster.Get().Hub
	if hc.Timeout > 0 {
		opts = append(opts, WithTimeout(time.Duration(hc.Timeout)))
	}
	if hc.MaxInFlight > 0 {
		opts = append(opts, WithMaxInFlight(hc.MaxInFlight))
	}
	return opts
}

// Watch starts the roster file watcher. Every successful reload swaps the
// registry and calls onReload; wiring hub.Invalidate there makes results
// aggregated against the old roster stale.
func (r *RosterRegistry) Watch(onReload func()) error {
	w, err := config.NewWatcher(r.path, func() {
		if err := r.Reload(); err != nil {
			r.logger.Warn("roster reload failed, keeping previous roster",
				"path", r.path, "error", err)
			return
		}
		if onReload != nil {
			onReload()
		}
	}, config.WithWatcherLogger(r.logger))
	if err != nil {
		return fmt.Errorf("watching roster: %w", err)
	}
	r.watcher = w
	return nil
}

// Reload re-reads the roster file and swaps in a fresh registry. A roster
// that fails to parse or validate leaves the previous one in place.
func (r *RosterRegistry) Reload() error {
	roster, err := config.LoadTOML(r.path, &config.Roster{})
	if err != nil {
		return err
	}
	r.roster.Swap(roster)
	r.registry.Swap(config.NewStaticRegistry(roster))
	r.logger.Info("roster reloaded", "path", r.path, "servers", len(roster.Servers))
	return nil
}

// Close stops the watcher, if one was started.
func (r *RosterRegistry) Close() error {
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Close()
}
