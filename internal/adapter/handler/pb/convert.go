package pb

import "github.com/rl1809/kitchen-relay/internal/core/domain"

func FromEvent(ev domain.Event) *RelayEvent {
	return &RelayEvent{
		Name:    ev.Name,
		OrderId: ev.OrderID,
		Table:   ev.Table,
		Item:    ev.Item,
		Status:  ev.Status,
	}
}

func (x *RelayEvent) ToEvent() domain.Event {
	if x == nil {
		return domain.Event{}
	}
	return domain.Event{
		Name:    x.Name,
		OrderID: x.OrderId,
		Table:   x.Table,
		Item:    x.Item,
		Status:  x.Status,
	}
}
