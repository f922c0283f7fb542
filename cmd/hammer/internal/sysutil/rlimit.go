//go:build linux || darwin

package sysutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// RaiseFileLimit lifts the soft RLIMIT_NOFILE to at least want, capped at
// the hard limit, and returns the resulting soft limit.
func RaiseFileLimit(want uint64) (uint64, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return 0, fmt.Errorf("getrlimit: %w", err)
	}
	if lim.Cur >= want {
		return lim.Cur, nil
	}

	target := want
	if target > lim.Max {
		target = lim.Max
	}
	if target <= lim.Cur {
		return lim.Cur, fmt.Errorf("hard file limit %d is below the %d descriptors needed", lim.Max, want)
	}

	raised := unix.Rlimit{Cur: target, Max: lim.Max}
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &raised); err != nil {
		return lim.Cur, fmt.Errorf("setrlimit to %d: %w", target, err)
	}
	if target < want {
		return target, fmt.Errorf("hard file limit %d is below the %d descriptors needed", lim.Max, want)
	}
	return target, nil
}
