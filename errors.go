package rtkit

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// ConnectionError reports a transport-level failure: the system bus could
// not be reached, or the connection failed while a call was in flight.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rtkit: bus connection: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ServiceNotAvailableError means the bus is reachable but the rtkit
// well-known name was not among the registered names. Returned only by
// Open.
type ServiceNotAvailableError struct {
	Name string
}

func (e *ServiceNotAvailableError) Error() string {
	return fmt.Sprintf("rtkit: service %s not available on the system bus", e.Name)
}

// RemoteCallError is an explicit error reply from the daemon or the bus
// (policy rejection, authorization denial, malformed arguments). Name and
// Body carry the D-Bus error verbatim, uninterpreted.
type RemoteCallError struct {
	Name string
	Body []interface{}
}

func (e *RemoteCallError) Error() string {
	if len(e.Body) > 0 {
		if msg, ok := e.Body[0].(string); ok {
			return fmt.Sprintf("rtkit: remote call failed: %s: %s", e.Name, msg)
		}
	}
	return fmt.Sprintf("rtkit: remote call failed: %s", e.Name)
}

func (e *RemoteCallError) Unwrap() error {
	return dbus.Error{Name: e.Name, Body: e.Body}
}

// DecodeError means a reply arrived but its payload was not the declared
// native type: wrong variant width, or a reply missing the value wrapper.
// The value is never clamped or defaulted.
type DecodeError struct {
	Property string
	Value    interface{} // offending wire value, if one was decoded
	Err      error       // underlying transport decode error, if any
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rtkit: decoding property %s: %v", e.Property, e.Err)
	}
	return fmt.Sprintf("rtkit: property %s: unexpected wire type %T", e.Property, e.Value)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// wrapCallError classifies a godbus call error: an error reply from the
// remote side keeps its D-Bus identity, everything else is transport.
func wrapCallError(err error) error {
	if err == nil {
		return nil
	}
	var derr dbus.Error
	if errors.As(err, &derr) {
		return &RemoteCallError{Name: derr.Name, Body: derr.Body}
	}
	return &ConnectionError{Err: err}
}
