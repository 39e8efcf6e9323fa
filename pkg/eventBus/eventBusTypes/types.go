package eventBusTypes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	Event_ConnectionChanged = "connectionChanged"
	Event_PageChanged       = "pageChanged"
	Event_ActionConfirmed   = "actionConfirmed"
	Event_ActionFailed      = "actionFailed"
)

type Event struct {
	Name string
	At   time.Time
	Data any
}

func NewEvent(name string, data any) *Event {
	return &Event{
		Name: name,
		At:   time.Now(),
		Data: data,
	}
}

type ConsumerId string

type Consumer struct {
	Id      ConsumerId
	Context context.Context
	Channel chan *Event
}

// NewConsumer creates a consumer with a random id and a buffered channel.
func NewConsumer(ctx context.Context, buffer int) *Consumer {
	return &Consumer{
		Id:      ConsumerId(uuid.New().String()),
		Context: ctx,
		Channel: make(chan *Event, buffer),
	}
}

type ConsumerList struct {
	mu        sync.Mutex
	consumers []*Consumer
}

func NewConsumerList() *ConsumerList {
	return &ConsumerList{
		consumers: make([]*Consumer, 0),
	}
}

func (cl *ConsumerList) Add(consumer *Consumer) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.consumers = append(cl.consumers, consumer)
}

func (cl *ConsumerList) Remove(consumer *Consumer) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for i, c := range cl.consumers {
		if c.Id == consumer.Id {
			cl.consumers = append(cl.consumers[:i], cl.consumers[i+1:]...)
			break
		}
	}
}

func (cl *ConsumerList) GetAll() []*Consumer {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	all := make([]*Consumer, len(cl.consumers))
	copy(all, cl.consumers)
	return all
}

type IEventBus interface {
	Subscribe(consumer *Consumer)
	Unsubscribe(consumer *Consumer)
	Publish(event *Event)
}

type ConnectionChangedData struct {
	SessionId string `json:"sessionId"`
	Connected bool   `json:"connected"`
	Address   string `json:"address"`
	ChainId   string `json:"chainId"`
}

type PageChangedData struct {
	SessionId string `json:"sessionId"`
	Page      uint64 `json:"page"`
	Limit     uint64 `json:"limit"`
	Count     int    `json:"count"`
}

type ActionData struct {
	ActionId string   `json:"actionId"`
	Kind     string   `json:"kind"`
	State    string   `json:"state"`
	TxHashes []string `json:"txHashes"`
	Message  string   `json:"message"`
}
