package domain

// Relay event names as they appear on the wire.
const (
	EventReceiveOrder        = "ReceiveOrder"
	EventReceiveStatusUpdate = "ReceiveStatusUpdate"
	EventSubscribed          = "Subscribed"
)

// Event is one broadcast from the relay.
type Event struct {
	Name    string
	OrderID string
	Table   string
	Item    string
	Status  string
}

// OrderPlaced is the inbound shape of a ReceiveOrder event. Lengths are
// not capped; the relay forwards payloads of any size.
type OrderPlaced struct {
	OrderID string `validate:"required"`
	Table   string `validate:"required"`
	Item    string `validate:"required"`
}

// StatusChanged is the inbound shape of a ReceiveStatusUpdate event.
// Status is not restricted to the known values.
type StatusChanged struct {
	OrderID string `validate:"required"`
	Status  string `validate:"required"`
}

func NewOrderEvent(orderID, table, item string) Event {
	return Event{Name: EventReceiveOrder, OrderID: orderID, Table: table, Item: item}
}

func NewStatusEvent(orderID, status string) Event {
	return Event{Name: EventReceiveStatusUpdate, OrderID: orderID, Status: status}
}
