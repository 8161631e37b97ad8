// Package debugtrace creates the per-process, per-instance trace
// directory the debug layer writes into (spec.md §4.8, §6.4): a
// directory under ANARI_DEBUG_TRACE_DIR containing "trace.c" and any
// spilled ".bin" array payloads. Naming needs to be unique across
// concurrent processes sharing the same ANARI_DEBUG_TRACE_DIR without
// colliding, which is the same problem request/session IDs solve
// elsewhere in the pack (other_examples/manifests/spaghettifunk-anima
// and soockee-pixel-bot-go both pull in google/uuid for exactly this).
package debugtrace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Dir creates and returns a fresh trace directory under base, named
// "<base>_<uuid>" the way spec.md §6.4 asks for ("a per-process,
// per-instance subdirectory"). It returns ("", false) if base is empty,
// which callers treat as "tracing disabled".
func Dir(base string) (string, bool) {
	if base == "" {
		return "", false
	}
	dir := fmt.Sprintf("%s_%s", filepath.Clean(base), uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false
	}
	return dir, true
}
