// Package library implements ANARI's two-level loading model (spec.md
// §4.6, §6.1): a process-wide registry of in-process Backends
// (populated by each backend package's init, mirroring the teacher's
// driver registry) plus dynamic loading of out-of-process backend
// shared objects by name through internal/dlopen, with "environment"
// redirected via ANARI_LIBRARY.
//
// Grounded on driver/driver.go's Driver/Register/Drivers trio.
package library

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/device"
	"github.com/anari-go/anari/internal/dlopen"
	"github.com/anari-go/anari/internal/diag"
	"github.com/anari-go/anari/object"
)

// loadLog reports library-level conditions (load failures, absent
// optional entry points) for which no device-scoped status callback
// exists yet (spec.md §7 still wants these surfaced, just through the
// fallback structured logger until a device is constructed).
var loadLog = diag.New(nil)

// ParamInfo describes one parameter a device subtype's object subtype
// accepts (spec.md §4.6, "parameterInfo reports, per parameter,
// whether it is required, its declared type, and a human-readable
// description"). Backends return these from ParameterInfo rather than
// the runtime inferring them from use.
type ParamInfo struct {
	Name        string
	Type        atype.DataType
	Description string
	Required    bool
}

// Backend is what a loadable ANARI library exposes: one or more device
// subtypes, each constructible into a device.Device.
//
// Implementations are expected to call Register exactly once from an
// init function (spec.md §4.6, "devices are named by subtype string
// within a library").
type Backend interface {
	// Name is the library name passed to LoadLibrary, e.g. "helide".
	Name() string

	// DeviceSubtypes lists the device subtype names this backend can
	// construct (almost always a single entry).
	DeviceSubtypes() []string

	// NewDevice constructs a device.Device of the given subtype. It takes
	// no status callback; one is installed afterwards through the
	// device's SetStatusCallback.
	NewDevice(subtype string) (device.Device, error)

	// ObjectSubtypes lists the object subtypes a device subtype
	// recognizes for the given object kind (spec.md §4.6, "objectSubtypes
	// enumerates the subtype strings newObject will accept for a given
	// kind"). Returns nil for a kind the backend declares no named
	// subtypes for.
	ObjectSubtypes(deviceSubtype string, kind object.Kind) []string

	// ParameterInfo describes every parameter objectSubtype of kind
	// accepts (spec.md §4.6, "parameterInfo"). Returns nil for an
	// unrecognized (deviceSubtype, kind, objectSubtype) triple.
	ParameterInfo(deviceSubtype, objectSubtype string, kind object.Kind) []ParamInfo

	// DeviceExtensions lists the vendor extension names (e.g.
	// "ANARI_KHR_GEOMETRY_TRIANGLE") a device subtype declares support
	// for (spec.md §4.6, "deviceExtensions"). Returns nil if the backend
	// declares no extensions beyond the core API.
	DeviceExtensions(deviceSubtype string) []string
}

var (
	mu       sync.Mutex
	backends []Backend
)

// Register registers an in-process Backend. If a backend with the
// same name was already registered, it is replaced.
func Register(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	for i := range backends {
		if backends[i].Name() == b.Name() {
			backends[i] = b
			log.Printf("anari: library %q replaced", b.Name())
			return
		}
	}
	backends = append(backends, b)
	log.Printf("anari: library %q registered", b.Name())
}

// Registered returns the in-process backends registered so far.
func Registered() []Backend {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Backend, len(backends))
	copy(out, backends)
	return out
}

// Library is a loaded ANARI library, backed either by an in-process
// Backend or a dynamically loaded shared object.
type Library struct {
	name    string
	backend Backend
	dl      *dlopen.Library
}

// Load resolves name to a Library: "environment" redirects to the
// ANARI_LIBRARY environment variable's value (spec.md §6.1); any other
// name is first matched against in-process Registered backends by
// substring (mirroring the teacher's loadDriver name matching), then,
// failing that, loaded dynamically via internal/dlopen.
func Load(name string) (*Library, error) {
	if name == "environment" {
		envName := os.Getenv("ANARI_LIBRARY")
		if envName == "" {
			err := fmt.Errorf("library: ANARI_LIBRARY is not set")
			loadLog.Report(0, diag.Error, diag.CodeLoadError, "load: %v", err)
			return nil, err
		}
		name = envName
	}

	if b, ok := findRegistered(name); ok {
		return &Library{name: name, backend: b}, nil
	}

	for _, dir := range dlopen.SearchPaths() {
		path := dir + string(os.PathSeparator) + dlopen.FileName(name)
		if dir == "." {
			path = dlopen.FileName(name)
		}
		dl, err := dlopen.Open(path)
		if err != nil {
			continue
		}
		return &Library{name: name, dl: dl}, nil
	}
	err := fmt.Errorf("library: %q not found as an in-process backend or shared object", name)
	loadLog.Report(0, diag.Error, diag.CodeLoadError, "load: %v", err)
	return nil, err
}

// LoadModule loads an optional named module into the library (spec.md
// §4.2, §6.2, §6.3). No in-process or dynamically loaded backend in this
// runtime exposes loadable modules; per spec.md §4.2's "a missing
// optional entry point is success", this reports the absence and
// returns nil rather than failing the caller.
func (l *Library) LoadModule(name string) error {
	loadLog.Report(0, diag.Info, diag.CodeNone, "loadModule: %q has no module entry point; treating as absent-optional-success", l.name)
	return nil
}

// UnloadModule mirrors LoadModule's absent-optional-entry-point handling.
func (l *Library) UnloadModule(name string) error {
	loadLog.Report(0, diag.Info, diag.CodeNone, "unloadModule: %q has no module entry point; treating as absent-optional-success", l.name)
	return nil
}

func findRegistered(name string) (Backend, bool) {
	mu.Lock()
	defer mu.Unlock()
	for _, b := range backends {
		if b.Name() == name || strings.Contains(b.Name(), name) {
			return b, true
		}
	}
	return nil, false
}

// Unload releases any OS-level resources a dynamically loaded Library
// holds. It is a no-op for in-process backends.
func (l *Library) Unload() error {
	if l.dl != nil {
		return l.dl.Close()
	}
	return nil
}

// DeviceSubtypes lists the device subtype names this library can
// construct.
func (l *Library) DeviceSubtypes() []string {
	if l.backend != nil {
		return l.backend.DeviceSubtypes()
	}
	// A dynamically loaded backend is expected to export a symbol
	// enumerating its subtypes; until a reference shared-object backend
	// defines that ABI, dynamically loaded libraries report no subtypes.
	return nil
}

// ObjectSubtypes lists the object subtypes the library's named device
// subtype accepts for kind. A dynamically loaded library that does not
// export introspection reports none, consistent with DeviceSubtypes'
// "absent ABI means absent metadata" handling above.
func (l *Library) ObjectSubtypes(deviceSubtype string, kind object.Kind) []string {
	if l.backend != nil {
		return l.backend.ObjectSubtypes(deviceSubtype, kind)
	}
	return nil
}

// ParameterInfo describes the parameters objectSubtype of kind accepts
// under the library's named device subtype.
func (l *Library) ParameterInfo(deviceSubtype, objectSubtype string, kind object.Kind) []ParamInfo {
	if l.backend != nil {
		return l.backend.ParameterInfo(deviceSubtype, objectSubtype, kind)
	}
	return nil
}

// DeviceExtensions lists the vendor extension names the library's named
// device subtype declares.
func (l *Library) DeviceExtensions(deviceSubtype string) []string {
	if l.backend != nil {
		return l.backend.DeviceExtensions(deviceSubtype)
	}
	return nil
}

// NewDevice constructs a device of the given subtype.
func (l *Library) NewDevice(subtype string) (device.Device, error) {
	if l.backend != nil {
		return l.backend.NewDevice(subtype)
	}
	entry := dlopen.EntryPoint(l.name, "new_device_"+subtype)
	if _, ok := l.dl.Symbol(entry); !ok {
		return nil, fmt.Errorf("library: %q has no entry point %q", l.name, entry)
	}
	return nil, fmt.Errorf("library: dynamic device construction across the cgo-free ABI is not implemented")
}
