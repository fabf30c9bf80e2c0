//go:build linux

package rtkit

import (
	"os"

	"golang.org/x/sys/unix"
)

// CurrentThreadID returns the kernel thread id (tid) of the calling
// thread. Pin the goroutine with runtime.LockOSThread before passing the
// result to a priority request, or the goroutine may migrate to another
// thread between the two.
func CurrentThreadID() uint64 {
	return uint64(unix.Gettid())
}

// CurrentProcessID returns the process id of the current process.
func CurrentProcessID() uint64 {
	return uint64(os.Getpid())
}
