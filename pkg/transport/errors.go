package transport

import "fmt"

// InvalidRouting reports an illegal character in an addressing field (a
// `to` containing a dot) or an unknown message class encountered while
// decoding.
type InvalidRouting struct {
	Reason string
}

func (e *InvalidRouting) Error() string { return "invalid routing: " + e.Reason }

// TransportDown is returned once the reconnection policy is exhausted
// after a broker disconnect; callers see this only after every
// configured attempt has failed.
type TransportDown struct {
	Name string
	Err  error
}

func (e *TransportDown) Error() string {
	return fmt.Sprintf("transport %s is down: %v", e.Name, e.Err)
}

func (e *TransportDown) Unwrap() error { return e.Err }

// PublishError aggregates the failures from every transport in a
// multi-transport publish where all configured transports failed. Order
// of Errors matches the configured transport order.
type PublishError struct {
	Errors []TransportError
}

// TransportError names which transport produced which error, for
// PublishError's aggregate report.
type TransportError struct {
	Transport string
	Err       error
}

func (e *PublishError) Error() string {
	msg := "publish failed on all transports:"
	for _, te := range e.Errors {
		msg += fmt.Sprintf(" [%s: %v]", te.Transport, te.Err)
	}
	return msg
}

// SerializerError wraps an encode/decode failure encountered on the
// transport's receive or publish path.
type SerializerError struct {
	Err error
}

func (e *SerializerError) Error() string { return "serializer error: " + e.Err.Error() }
func (e *SerializerError) Unwrap() error { return e.Err }
