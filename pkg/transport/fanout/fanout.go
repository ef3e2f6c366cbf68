// Package fanout implements the multi-transport publisher: publish
// iterates an ordered list of transports, invoking each independently,
// and aggregates the result per the spec's partial-failure policy.
package fanout

import (
	"context"

	"github.com/madbomber/smart-message-sub002/pkg/logger"
	"github.com/madbomber/smart-message-sub002/pkg/message"
	"github.com/madbomber/smart-message-sub002/pkg/transport"
)

// Named pairs a transport with the name used in logs and PublishError.
type Named struct {
	Name      string
	Transport transport.Transport
}

// Publisher fans a publish out to an ordered list of transports.
// Transports are independent: a failure in one does not abort the
// others, and the publisher never retries — retries are an upper-layer
// concern.
type Publisher struct {
	transports []Named
}

// New creates a Publisher over the given ordered transports.
func New(transports ...Named) *Publisher {
	return &Publisher{transports: transports}
}

// Publish invokes Publish on every configured transport in order.
// Result policy: all succeed -> log INFO; some succeed and some fail ->
// log WARN and report success; all fail -> return a *transport.PublishError
// aggregating every transport's error, in configured order.
func (p *Publisher) Publish(ctx context.Context, env message.Envelope, routingHint string) error {
	// Stamp once here so every transport in the fan-out sees the same
	// published_at/publisher_pid for this single publish attempt; each
	// transport's own Publish stamps too but is a no-op once this is set.
	env.Header = env.Header.Stamp()

	var succeeded, failed []string
	var errs []transport.TransportError

	for _, named := range p.transports {
		if err := named.Transport.Publish(ctx, env, routingHint); err != nil {
			failed = append(failed, named.Name)
			errs = append(errs, transport.TransportError{Transport: named.Name, Err: err})
			continue
		}
		succeeded = append(succeeded, named.Name)
	}

	switch {
	case len(failed) == 0:
		logger.L().InfoContext(ctx, "publish succeeded on all transports", "envelope_uuid", env.Header.UUID, "transports", succeeded)
		return nil
	case len(succeeded) > 0:
		logger.L().WarnContext(ctx, "publish failed on some transports", "envelope_uuid", env.Header.UUID, "failed", failed, "succeeded", succeeded)
		return nil
	default:
		return &transport.PublishError{Errors: errs}
	}
}
