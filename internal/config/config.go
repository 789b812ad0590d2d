package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/GosuCode/oklch-color-preview/internal/annotate"
)

// RepoDirName is the per-repository configuration directory.
const RepoDirName = ".oklch-preview"

// Config holds application configuration.
type Config struct {
	// MaxDocumentChars is the maximum character count accepted for a scanned
	// or stored document.
	MaxDocumentChars int `json:"max_document_chars"`

	// BorderLight is drawn around dark swatches.
	BorderLight string `json:"border_light,omitempty"`

	// BorderDark is drawn around light swatches.
	BorderDark string `json:"border_dark,omitempty"`

	// BorderOutOfGamut replaces the contrast border when a color had to be
	// clamped into sRGB.
	BorderOutOfGamut string `json:"border_out_of_gamut,omitempty"`

	// AllowedPaths is an allowlist of directories that document_import may
	// read from, in addition to the server's working directory.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for document_import.
	// Symlink checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names to disable entirely.
	// Known types: "color", "document", "session".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	opts := annotate.DefaultOptions()
	return &Config{
		MaxDocumentChars: 500000,
		BorderLight:      opts.LightBorder,
		BorderDark:       opts.DarkBorder,
		BorderOutOfGamut: opts.OutOfGamutBorder,
	}
}

// AnnotateOptions returns marker styling derived from the config.
func (c *Config) AnnotateOptions() annotate.Options {
	opts := annotate.DefaultOptions()
	if c == nil {
		return opts
	}
	if c.BorderLight != "" {
		opts.LightBorder = c.BorderLight
	}
	if c.BorderDark != "" {
		opts.DarkBorder = c.BorderDark
	}
	if c.BorderOutOfGamut != "" {
		opts.OutOfGamutBorder = c.BorderOutOfGamut
	}
	return opts
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the global directory and the
// nearest repo config found by walking upward from startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest repo config.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, RepoDirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		MaxDocumentChars: firstNonZero(overlay.MaxDocumentChars, base.MaxDocumentChars),
		BorderLight:      firstNonEmpty(overlay.BorderLight, base.BorderLight),
		BorderDark:       firstNonEmpty(overlay.BorderDark, base.BorderDark),
		BorderOutOfGamut: firstNonEmpty(overlay.BorderOutOfGamut, base.BorderOutOfGamut),
		DBMaxOpenConns:   firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:   firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
