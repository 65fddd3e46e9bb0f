package config

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/protocol"
)

// Duration wraps time.Duration with TOML text unmarshalling ("5s", "250ms").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Roster is the top-level TOML configuration: hub-wide settings plus the
// ordered list of language server clients. Server order in the file is the
// registration order used for tie-breaking.
type Roster struct {
	Hub     HubConfig      `toml:"hub"`
	Servers []ServerConfig `toml:"server"`
}

// HubConfig holds hub-wide dispatch settings.
type HubConfig struct {
	// Timeout bounds each fan-out. Zero means the built-in default.
	Timeout Duration `toml:"timeout"`
	// MaxInFlight caps concurrent per-client calls. Zero means unlimited.
	MaxInFlight int64 `toml:"max_in_flight"`
}

// ServerConfig describes one language server client.
type ServerConfig struct {
	// ID uniquely identifies the client. Defaults to Name when empty.
	ID string `toml:"id"`
	// Name is the human-readable label shown in hover headings and
	// disambiguation choices.
	Name string `toml:"name"`
	// Languages lists the language IDs this client serves ("go", "rust").
	// Empty means the client serves every document.
	Languages []string `toml:"languages"`
	// Methods is an optional allowlist of LSP methods. Empty means the
	// client advertises support for all aggregated methods.
	Methods []string `toml:"methods"`
	// Encoding is the client's position encoding: utf-8, utf-16 or utf-32.
	// Defaults to utf-16.
	Encoding string `toml:"encoding"`
}

// Validate implements Validatable.
func (r *Roster) Validate() error {
	seen := make(map[string]bool, len(r.Servers))
	for i := range r.Servers {
		s := &r.Servers[i]
		if s.Name == "" {
			return fmt.Errorf("server %d: name is required", i)
		}
		if s.ID == "" {
			s.ID = s.Name
		}
		if seen[s.ID] {
			return fmt.Errorf("server %q: duplicate id", s.ID)
		}
		seen[s.ID] = true

		if s.Encoding == "" {
			s.Encoding = string(protocol.EncodingUTF16)
		}
		if !protocol.OffsetEncoding(s.Encoding).Valid() {
			return fmt.Errorf("server %q: unknown encoding %q", s.ID, s.Encoding)
		}
	}
	return nil
}

// StaticRegistry is a registry built from a roster snapshot. Client order is
// the roster's server order. The registry is immutable; reloads build a fresh
// one and swap it in.
type StaticRegistry struct {
	clients []*staticClient
}

// NewStaticRegistry builds a registry from a validated roster.
func NewStaticRegistry(r *Roster) *StaticRegistry {
	reg := &StaticRegistry{clients: make([]*staticClient, 0, len(r.Servers))}
	for _, s := range r.Servers {
		c := &staticClient{
			id:       s.ID,
			name:     s.Name,
			encoding: protocol.OffsetEncoding(s.Encoding),
		}
		if len(s.Languages) > 0 {
			c.languages = make(map[string]bool, len(s.Languages))
			for _, l := range s.Languages {
				c.languages[l] = true
			}
		}
		if len(s.Methods) > 0 {
			c.methods = make(map[string]bool, len(s.Methods))
			for _, m := range s.Methods {
				c.methods[m] = true
			}
		}
		reg.clients = append(reg.clients, c)
	}
	return reg
}

// ClientsFor returns, in registration order, the clients that serve the
// document's language and advertise support for the method. An empty URI
// (workspace-wide requests) skips the language filter.
func (r *StaticRegistry) ClientsFor(method string, uri protocol.DocumentURI) []dispatch.Client {
	lang := LanguageForURI(uri)
	var out []dispatch.Client
	for _, c := range r.clients {
		if uri != "" && !c.servesLanguage(lang) {
			continue
		}
		if !c.Supports(method) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ClientByID looks up a client by its roster ID.
func (r *StaticRegistry) ClientByID(id string) (dispatch.Client, bool) {
	for _, c := range r.clients {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

// Len returns the number of registered clients.
func (r *StaticRegistry) Len() int { return len(r.clients) }

type staticClient struct {
	id        string
	name      string
	encoding  protocol.OffsetEncoding
	languages map[string]bool // nil = all languages
	methods   map[string]bool // nil = all methods
}

func (c *staticClient) ID() string   { return c.id }
func (c *staticClient) Name() string { return c.name }

func (c *staticClient) Supports(method string) bool {
	if c.methods == nil {
		return true
	}
	return c.methods[method]
}

func (c *staticClient) Encoding() protocol.OffsetEncoding { return c.encoding }

func (c *staticClient) servesLanguage(lang string) bool {
	if c.languages == nil {
		return true
	}
	return c.languages[lang]
}

// extensionLanguages maps file extensions to LSP language identifiers.
var extensionLanguages = map[string]string{
	".go":   "go",
	".rs":   "rust",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascriptreact",
	".ts":   "typescript",
	".tsx":  "typescriptreact",
	".c":    "c",
	".h":    "c",
	".cc":   "cpp",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".java": "java",
	".rb":   "ruby",
	".php":  "php",
	".lua":  "lua",
	".zig":  "zig",
	".hs":   "haskell",
	".ml":   "ocaml",
	".ex":   "elixir",
	".exs":  "elixir",
	".json": "json",
	".toml": "toml",
	".yaml": "yaml",
	".yml":  "yaml",
	".md":   "markdown",
	".sh":   "shellscript",
	".html": "html",
	".css":  "css",
	".sql":  "sql",
}

// LanguageForURI derives the LSP language identifier from a document URI's
// file extension. Unknown extensions map to "".
func LanguageForURI(uri protocol.DocumentURI) string {
	ext := strings.ToLower(path.Ext(string(uri)))
	return extensionLanguages[ext]
}
