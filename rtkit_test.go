//go:build linux

package rtkit

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method string
	args   []interface{}
}

// fakeBusObject substitutes for the daemon's bus object. Only Call is
// implemented; the embedded interface covers the methods the client
// never touches.
type fakeBusObject struct {
	dbus.BusObject
	calls []recordedCall
	reply func(method string, args []interface{}) *dbus.Call
}

func (f *fakeBusObject) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	f.calls = append(f.calls, recordedCall{method: method, args: args})
	return f.reply(method, args)
}

func testClient(reply func(method string, args []interface{}) *dbus.Call) (*Client, *fakeBusObject) {
	fake := &fakeBusObject{reply: reply}
	return &Client{obj: fake}, fake
}

func variantReply(v interface{}) *dbus.Call {
	return &dbus.Call{Body: []interface{}{dbus.MakeVariant(v)}}
}

func emptyReply() *dbus.Call { return &dbus.Call{} }

func errorReply(name, msg string) *dbus.Call {
	return &dbus.Call{Err: dbus.Error{Name: name, Body: []interface{}{msg}}}
}

func TestPropertyRoundTrip(t *testing.T) {
	props := map[string]interface{}{
		"MaxRealtimePriority": int32(20),
		"MinNiceLevel":        int32(-15),
		"RTTimeUSecMax":       int64(200000),
	}
	c, _ := testClient(func(method string, args []interface{}) *dbus.Call {
		require.Equal(t, "org.freedesktop.DBus.Properties.Get", method)
		require.Equal(t, "org.freedesktop.RealtimeKit1", args[0])
		return variantReply(props[args[1].(string)])
	})

	max, err := c.MaxRealtimePriority()
	require.NoError(t, err)
	require.Equal(t, int32(20), max)

	min, err := c.MinNiceLevel()
	require.NoError(t, err)
	require.Equal(t, int32(-15), min)

	rttime, err := c.RTTimeUSecMax()
	require.NoError(t, err)
	require.Equal(t, int64(200000), rttime)
}

func TestPropertyTypeMismatch(t *testing.T) {
	// An int64 where the property advertises int32 must fail, never
	// truncate.
	c, _ := testClient(func(string, []interface{}) *dbus.Call {
		return variantReply(int64(1 << 40))
	})

	_, err := c.MaxRealtimePriority()
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "MaxRealtimePriority", derr.Property)
	require.Equal(t, int64(1<<40), derr.Value)
}

func TestPropertyMissingValue(t *testing.T) {
	c, _ := testClient(func(string, []interface{}) *dbus.Call {
		return emptyReply()
	})

	_, err := c.MinNiceLevel()
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "MinNiceLevel", derr.Property)
}

func TestRemoteErrorPreserved(t *testing.T) {
	c, _ := testClient(func(string, []interface{}) *dbus.Call {
		return errorReply("org.freedesktop.DBus.Error.AccessDenied", "not allowed")
	})

	err := c.MakeThreadRealtime(1234, 10)
	var rerr *RemoteCallError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, "org.freedesktop.DBus.Error.AccessDenied", rerr.Name)
	require.Contains(t, rerr.Error(), "not allowed")

	var cerr *ConnectionError
	require.False(t, errors.As(err, &cerr), "remote error must not classify as transport error")
}

func TestNoLocalBoundEnforcement(t *testing.T) {
	// Bounds live in the daemon: wildly out-of-range priorities still go
	// out on the bus unmodified.
	c, fake := testClient(func(string, []interface{}) *dbus.Call {
		return emptyReply()
	})

	require.NoError(t, c.MakeThreadHighPriority(42, -1000))
	require.NoError(t, c.MakeThreadRealtimeWithPID(7, 42, 9999))
	require.NoError(t, c.MakeThreadHighPriorityWithPID(7, 42, -1000))
	require.NoError(t, c.MakeThreadRealtime(42, 9999))

	require.Len(t, fake.calls, 4)
	require.Equal(t, "org.freedesktop.RealtimeKit1.MakeThreadHighPriority", fake.calls[0].method)
	require.Equal(t, []interface{}{uint64(42), int32(-1000)}, fake.calls[0].args)
	require.Equal(t, "org.freedesktop.RealtimeKit1.MakeThreadRealtimeWithPID", fake.calls[1].method)
	require.Equal(t, []interface{}{uint64(7), uint64(42), uint32(9999)}, fake.calls[1].args)
	require.Equal(t, "org.freedesktop.RealtimeKit1.MakeThreadHighPriorityWithPID", fake.calls[2].method)
	require.Equal(t, []interface{}{uint64(7), uint64(42), int32(-1000)}, fake.calls[2].args)
	require.Equal(t, "org.freedesktop.RealtimeKit1.MakeThreadRealtime", fake.calls[3].method)
	require.Equal(t, []interface{}{uint64(42), uint32(9999)}, fake.calls[3].args)
}

func TestIdentityHelpers(t *testing.T) {
	// Local queries only: no client, no bus.
	if CurrentThreadID() == 0 {
		t.Fatal("zero thread id")
	}
	if CurrentProcessID() == 0 {
		t.Fatal("zero process id")
	}
}
