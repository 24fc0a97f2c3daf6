package enums

// OrderEventType names the order lifecycle events published to Pub/Sub.
type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
)

// String implements fmt.Stringer.
func (o OrderEventType) String() string {
	return string(o)
}
