package viewServer

import (
	"context"
	"sync"
	"time"

	"github.com/claimstake/console/pkg/eventBus/eventBusTypes"
	"go.uber.org/zap"
)

const defaultActivitySize = 100

type ActivityItem struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// ActivityFeed keeps the most recent events published on the bus.
type ActivityFeed struct {
	size   int
	logger *zap.Logger

	mu    sync.RWMutex
	items []*ActivityItem
}

func NewActivityFeed(size int, l *zap.Logger) *ActivityFeed {
	if size <= 0 {
		size = defaultActivitySize
	}
	return &ActivityFeed{
		size:   size,
		logger: l,
		items:  make([]*ActivityItem, 0, size),
	}
}

func (af *ActivityFeed) Add(event *eventBusTypes.Event) {
	af.mu.Lock()
	defer af.mu.Unlock()

	af.items = append(af.items, &ActivityItem{Name: event.Name, At: event.At, Data: event.Data})
	if len(af.items) > af.size {
		af.items = af.items[len(af.items)-af.size:]
	}
}

// List returns the feed newest first.
func (af *ActivityFeed) List() []*ActivityItem {
	af.mu.RLock()
	defer af.mu.RUnlock()

	out := make([]*ActivityItem, 0, len(af.items))
	for i := len(af.items) - 1; i >= 0; i-- {
		out = append(out, af.items[i])
	}
	return out
}

// Consume subscribes to the bus and records events until ctx is done.
func (af *ActivityFeed) Consume(ctx context.Context, eb eventBusTypes.IEventBus) {
	consumer := eventBusTypes.NewConsumer(ctx, af.size)
	eb.Subscribe(consumer)
	defer eb.Unsubscribe(consumer)

	for {
		select {
		case <-ctx.Done():
			af.logger.Sugar().Debugw("Activity feed stopped")
			return
		case event := <-consumer.Channel:
			af.Add(event)
		}
	}
}
