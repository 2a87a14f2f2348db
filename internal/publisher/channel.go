package publisher

import (
	"context"
)

// ChannelPublisher notifies an embedding caller once per detection pass via
// a channel. Only the latest pass matters: if the consumer lags, the stale
// pending pass is replaced rather than queued, since detection is idempotent
// and re-runnable.
type ChannelPublisher struct {
	ch chan Pass
}

// NewChannelPublisher creates a new channel publisher
func NewChannelPublisher() *ChannelPublisher {
	return &ChannelPublisher{ch: make(chan Pass, 1)}
}

// Name identifies the publisher
func (p *ChannelPublisher) Name() string {
	return "channel"
}

// Publish replaces any undelivered pass with the new one
func (p *ChannelPublisher) Publish(ctx context.Context, pass Pass) error {
	for {
		select {
		case p.ch <- pass:
			return nil
		default:
			select {
			case <-p.ch: // drop the stale pass
			default:
			}
		}
	}
}

// Passes returns the channel detection passes are delivered on
func (p *ChannelPublisher) Passes() <-chan Pass {
	return p.ch
}
