package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

const subscriberBuffer = 64

type subscriber struct {
	pattern string
	ch      chan []byte
}

// SignalBus fans published payloads out to in-process subscribers. A
// subscriber whose buffer is full misses the message.
type SignalBus struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// NewSignalBus returns a SignalBus with no subscribers.
func NewSignalBus() *SignalBus {
	return &SignalBus{subs: make(map[*subscriber]struct{})}
}

// Publish delivers payload to every subscriber matching channel.
func (b *SignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if !matches(s.pattern, channel) {
			continue
		}
		select {
		case s.ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers for channel; a trailing "*" matches any suffix. The
// returned channel is closed when ctx is cancelled.
func (b *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	s := &subscriber{pattern: channel, ch: make(chan []byte, subscriberBuffer)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, s)
		close(s.ch)
		b.mu.Unlock()
	}()
	return s.ch, nil
}

func matches(pattern, channel string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(channel, prefix)
	}
	return pattern == channel
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
