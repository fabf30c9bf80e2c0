// Package rtkit talks to the RealtimeKit daemon over the system D-Bus
// (Linux only, pure Go).
//
// RealtimeKit ("rtkit") is a privileged daemon that grants real-time or
// high (negative nice) scheduling priority to threads of unprivileged
// processes, within policy limits the daemon enforces itself. This
// package is a thin synchronous binding: every operation is exactly one
// bus round trip, nothing is cached, and no bounds are checked locally.
package rtkit

import (
	"slices"

	"github.com/godbus/dbus/v5"
)

const (
	rtkitService   = "org.freedesktop.RealtimeKit1"
	rtkitPath      = dbus.ObjectPath("/org/freedesktop/RealtimeKit1")
	rtkitInterface = "org.freedesktop.RealtimeKit1"

	propsGet = "org.freedesktop.DBus.Properties.Get"
)

// Client is a handle to the rtkit daemon. It owns one system bus
// connection for its lifetime. A Client is not safe for concurrent use;
// callers sharing one across goroutines must serialize access themselves.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Open connects to the system bus and verifies that rtkit is registered
// on it. The availability check is a point-in-time probe: a later call
// can still fail if the daemon goes away. Open does not retry; call it
// again to retry.
func Open() (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, wrapCallError(err)
	}
	if !slices.Contains(names, rtkitService) {
		conn.Close()
		return nil, &ServiceNotAvailableError{Name: rtkitService}
	}

	return &Client{conn: conn, obj: conn.Object(rtkitService, rtkitPath)}, nil
}

// Close releases the bus connection. The Client must not be used after.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) property(name string) (dbus.Variant, error) {
	var v dbus.Variant
	call := c.obj.Call(propsGet, 0, rtkitInterface, name)
	if call.Err != nil {
		return v, wrapCallError(call.Err)
	}
	if err := call.Store(&v); err != nil {
		return v, &DecodeError{Property: name, Err: err}
	}
	return v, nil
}

func (c *Client) int32Property(name string) (int32, error) {
	v, err := c.property(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.Value().(int32)
	if !ok {
		return 0, &DecodeError{Property: name, Value: v.Value()}
	}
	return n, nil
}

// MaxRealtimePriority returns the highest real-time priority the daemon
// will grant.
func (c *Client) MaxRealtimePriority() (int32, error) {
	return c.int32Property("MaxRealtimePriority")
}

// MinNiceLevel returns the lowest (most favorable) nice level the daemon
// will grant.
func (c *Client) MinNiceLevel() (int32, error) {
	return c.int32Property("MinNiceLevel")
}

// RTTimeUSecMax returns the maximum number of microseconds a real-time
// thread may occupy a CPU continuously before the kernel watchdog blocks
// it. Callers must set RLIMIT_RTTIME to this value (or lower) before
// requesting real-time priority, or the grant can be revoked or the
// thread killed by the kernel.
func (c *Client) RTTimeUSecMax() (int64, error) {
	v, err := c.property("RTTimeUSecMax")
	if err != nil {
		return 0, err
	}
	n, ok := v.Value().(int64)
	if !ok {
		return 0, &DecodeError{Property: "RTTimeUSecMax", Value: v.Value()}
	}
	return n, nil
}

func (c *Client) call(method string, args ...interface{}) error {
	return wrapCallError(c.obj.Call(rtkitInterface+"."+method, 0, args...).Err)
}

// MakeThreadHighPriority asks the daemon to set a (typically negative)
// nice level for a thread of the calling process. Bounds are enforced
// daemon-side: a priority below MinNiceLevel is sent as-is and rejected
// by the daemon, not here.
func (c *Client) MakeThreadHighPriority(threadID uint64, priority int32) error {
	return c.call("MakeThreadHighPriority", threadID, priority)
}

// MakeThreadHighPriorityWithPID is MakeThreadHighPriority for a thread
// that may belong to another process. The daemon applies its own
// authorization policy (polkit) to cross-process requests.
func (c *Client) MakeThreadHighPriorityWithPID(processID, threadID uint64, priority int32) error {
	return c.call("MakeThreadHighPriorityWithPID", processID, threadID, priority)
}

// MakeThreadRealtime asks the daemon for a real-time scheduling priority
// for a thread of the calling process. Set RLIMIT_RTTIME first, see
// RTTimeUSecMax.
func (c *Client) MakeThreadRealtime(threadID uint64, priority uint32) error {
	return c.call("MakeThreadRealtime", threadID, priority)
}

// MakeThreadRealtimeWithPID is MakeThreadRealtime for a thread that may
// belong to another process.
func (c *Client) MakeThreadRealtimeWithPID(processID, threadID uint64, priority uint32) error {
	return c.call("MakeThreadRealtimeWithPID", processID, threadID, priority)
}
