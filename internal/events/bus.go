package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Bus is the in-process Publisher used when no broker is configured.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]chan PostEvent // subject -> список каналов подписчиков
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]chan PostEvent),
	}
}

// Subscribe returns a channel receiving events of one subject and a function
// that unsubscribes and closes the channel.
func (b *Bus) Subscribe(subject string) (<-chan PostEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan PostEvent, 1) // Буфер 1, чтобы не блокировался писатель
	b.subs[subject] = append(b.subs[subject], ch)

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subscribers := b.subs[subject]
		for i, sub := range subscribers {
			if sub == ch {
				b.subs[subject] = append(subscribers[:i], subscribers[i+1:]...)
				close(ch)
				break
			}
		}
	}

	return ch, cancel
}

func (b *Bus) Publish(_ context.Context, ev PostEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[ev.Subject] {
		select {
		case sub <- ev:
		case <-time.After(500 * time.Millisecond):
			// медленный подписчик теряет событие
		}
	}
}

// LogSubscriber logs every event of the given subjects until ctx is done.
func LogSubscriber(ctx context.Context, b *Bus, log *zap.Logger, subjects ...string) {
	var wg sync.WaitGroup
	for _, subject := range subjects {
		ch, cancel := b.Subscribe(subject)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					log.Debug("post event",
						zap.String("subject", ev.Subject),
						zap.String("post_id", ev.PostID),
						zap.String("thread_id", ev.ThreadID))
				}
			}
		}()
	}
	wg.Wait()
}
