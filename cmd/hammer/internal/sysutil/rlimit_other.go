//go:build !linux && !darwin

package sysutil

// RaiseFileLimit is a no-op where RLIMIT_NOFILE does not apply.
func RaiseFileLimit(want uint64) (uint64, error) {
	return want, nil
}
