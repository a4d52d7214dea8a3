package nbd

import (
	"errors"
	"syscall"
)

// rawOSErrno extracts the raw host OS error number from err, if any is
// present in its chain (e.g. a *os.PathError wrapping a syscall.Errno).
func rawOSErrno(err error) (uint32, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return uint32(errno), true
	}
	return 0, false
}

// isEINTR reports whether err is the host's "interrupted system call"
// error, which the copy loop retries transparently instead of treating as
// a fatal error.
func isEINTR(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.EINTR
}
