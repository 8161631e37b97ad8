//go:build linux || darwin

package dlopen

import "github.com/ebitengine/purego"

func openPlatform(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func closePlatform(handle uintptr) error {
	return purego.Dlclose(handle)
}

func symPlatform(handle uintptr, name string) (uintptr, bool) {
	addr, err := purego.Dlsym(handle, name)
	if err != nil {
		return 0, false
	}
	return addr, true
}
