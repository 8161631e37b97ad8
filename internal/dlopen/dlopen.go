// Package dlopen implements the platform side of spec.md §4.2: locating
// a backend shared object by name and resolving a fixed set of C-ABI
// entry points from it, without cgo.
//
// The teacher never needed this — gviegas-neo3's backends (driver/vk) are
// compiled in and self-register via a package init() calling
// driver.Register (see driver/vk/driver.go). ANARI backends instead live
// outside the binary as `[lib]anari_library_<name>.{so,dylib,dll}` files
// loaded at runtime, so this package reaches for
// github.com/ebitengine/purego, the cgo-free dlopen/dlsym binding named
// in the retrieval pack (other_examples/manifests/{soockee-pixel-bot-go,
// goadesign-goa-ai,marmos91-dittofs,phanxgames-willow,ternarybob-iter,
// totodo713-vamplite}/go.mod).
package dlopen

import (
	"fmt"
	"runtime"
)

// Library is a loaded shared object.
type Library struct {
	handle uintptr
	path   string
}

// FileName returns the platform-appropriate shared-object file name for
// the backend named name, e.g. "libanari_library_helide.so" on Linux.
func FileName(name string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("anari_library_%s.dll", name)
	case "darwin":
		return fmt.Sprintf("libanari_library_%s.dylib", name)
	default:
		return fmt.Sprintf("libanari_library_%s.so", name)
	}
}

// EntryPoint returns the mangled entry-point symbol name for verb on the
// backend named name, per spec.md §4.2: "anari_library_<name>_<verb>".
func EntryPoint(name, verb string) string {
	return fmt.Sprintf("anari_library_%s_%s", name, verb)
}

// Open loads the shared object at path.
func Open(path string) (*Library, error) {
	h, err := openPlatform(path)
	if err != nil {
		return nil, err
	}
	return &Library{handle: h, path: path}, nil
}

// Close unloads the shared object. Callers must ensure no device derived
// from it is still alive (spec.md §4.2: unloading earlier is a
// programming error, reported but not undefined behavior).
func (l *Library) Close() error {
	if l == nil || l.handle == 0 {
		return nil
	}
	return closePlatform(l.handle)
}

// Symbol resolves a C symbol by exact name. ok is false when the symbol
// is absent; per spec.md §4.2 an absent OPTIONAL entry point is success,
// so callers decide what "absent" means, this function only reports it.
func (l *Library) Symbol(name string) (addr uintptr, ok bool) {
	return symPlatform(l.handle, name)
}

// Path returns the path Open was called with.
func (l *Library) Path() string { return l.path }
