//go:build !unix

package asyncnet

import "syscall"

// ReuseAddrControl is a no-op on platforms without SO_REUSEADDR semantics.
func ReuseAddrControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
