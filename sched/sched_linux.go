//go:build linux

// Package sched wraps the Linux scheduling syscalls an rtkit caller
// needs: the RLIMIT_RTTIME resource limit that must be in place before
// requesting real-time priority, and sched_getattr / getpriority for
// inspecting what a thread actually got.
package sched

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Scheduling policies as reported in Attr.Policy.
const (
	PolicyOther uint32 = 0
	PolicyFIFO  uint32 = 1
	PolicyRR    uint32 = 2
)

// Attr mirrors the kernel's struct sched_attr (the original 48-byte
// layout; newer kernels may report a larger Size).
type Attr struct {
	Size     uint32
	Policy   uint32
	Flags    uint64
	Nice     int32
	Priority uint32
	Runtime  uint64
	Deadline uint64
	Period   uint64
}

// GetAttr returns the scheduling attributes of the given thread id.
// A tid of 0 means the calling thread.
func GetAttr(tid int) (*Attr, error) {
	var attr Attr
	size := uint32(unsafe.Sizeof(attr))
	_, _, errno := unix.Syscall6(unix.SYS_SCHED_GETATTR,
		uintptr(tid),
		uintptr(unsafe.Pointer(&attr)),
		uintptr(size),
		0, 0, 0)
	if errno != 0 {
		return nil, fmt.Errorf("sched_getattr: %w", errno)
	}
	return &attr, nil
}

// SetRTTimeLimit sets RLIMIT_RTTIME (soft and hard) to usec
// microseconds. rtkit refuses real-time requests from processes without
// a finite RLIMIT_RTTIME; set this to the daemon's RTTimeUSecMax (or
// lower) before calling MakeThreadRealtime.
func SetRTTimeLimit(usec uint64) error {
	lim := unix.Rlimit{Cur: usec, Max: usec}
	if err := unix.Setrlimit(unix.RLIMIT_RTTIME, &lim); err != nil {
		return fmt.Errorf("setrlimit(RLIMIT_RTTIME): %w", err)
	}
	return nil
}

// RTTimeLimit returns the current soft RLIMIT_RTTIME in microseconds.
func RTTimeLimit() (uint64, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_RTTIME, &lim); err != nil {
		return 0, fmt.Errorf("getrlimit(RLIMIT_RTTIME): %w", err)
	}
	return lim.Cur, nil
}

// Nice returns the nice level of the given thread id (0 = calling
// thread).
func Nice(tid int) (int, error) {
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, tid)
	if err != nil {
		return 0, fmt.Errorf("getpriority: %w", err)
	}
	// The raw syscall biases the result by 20 to keep it nonnegative.
	return 20 - prio, nil
}
