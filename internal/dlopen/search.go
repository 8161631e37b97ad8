package dlopen

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// searchConfig is the optional "anari.toml" a deployment can drop in
// the working directory (or point at via ANARI_CONFIG) to extend where
// backend shared objects are looked for, beyond the OS's own loader
// search rules. ANARI itself has no such file; this is a documented
// addition (SPEC_FULL.md §0, "Config-file parsing for backend
// search-path overrides") rather than a literal part of the original
// C API, grounded on how spaghettifunk-anima loads a TOML settings
// file at startup with the same library (go-toml/v2).
type searchConfig struct {
	LibraryPaths []string `toml:"library_paths"`
}

// SearchPaths returns the directories, in priority order, that
// LoadLibrary should probe for a backend shared object: first ".",
// which stands for the OS loader's own default search path (callers
// pass a bare filename with no directory component straight to
// dlopen for it), then ANARI_CONFIG's library_paths (if the file
// exists and parses).
func SearchPaths() []string {
	paths := []string{"."}
	cfgPath := os.Getenv("ANARI_CONFIG")
	if cfgPath == "" {
		cfgPath = "anari.toml"
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return paths
	}
	var cfg searchConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return paths
	}
	for _, p := range cfg.LibraryPaths {
		paths = append(paths, filepath.Clean(p))
	}
	return paths
}
