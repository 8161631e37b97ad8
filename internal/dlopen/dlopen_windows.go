//go:build windows

package dlopen

import "errors"

// purego's dlopen/dlsym pair is POSIX-only; a Windows backend loader
// would go through purego.NewLazyDLL + syscall.NewCallback instead of
// this file's openPlatform/symPlatform shape, which the runtime does not
// need today since the reference backend (backend/helide) is always
// compiled in. Left as an explicit unsupported stub rather than a
// silent no-op, so a caller reaching it gets LoadError instead of a
// mysterious always-empty symbol table.
var errUnsupported = errors.New("dlopen: dynamic backend loading is not implemented for windows")

func openPlatform(path string) (uintptr, error) { return 0, errUnsupported }

func closePlatform(handle uintptr) error { return nil }

func symPlatform(handle uintptr, name string) (uintptr, bool) { return 0, false }
