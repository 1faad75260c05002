package model

// PreOrderStatus is the state of a customer's pre-order as a whole.
type PreOrderStatus string

const (
	PreOrderDraft     PreOrderStatus = "DRAFT"
	PreOrderSubmitted PreOrderStatus = "SUBMITTED"
	PreOrderCancelled PreOrderStatus = "CANCELLED"
)

// PreOrderItemStatus is tracked per item, independent of the pre-order.
type PreOrderItemStatus string

const (
	ItemConfirmed PreOrderItemStatus = "CONFIRMED"
	ItemCancelled PreOrderItemStatus = "CANCELLED"
)

// PreOrder holds the dishes a customer selected ahead of the visit.  It is
// tied 1:1 to a reservation and only read by the reservation engine.
type PreOrder struct {
	ID            string
	ReservationID string
	Status        PreOrderStatus
	Items         []PreOrderItem
}

// PreOrderItem is one dish line of a pre-order.
type PreOrderItem struct {
	DishID   string
	DishName string
	Quantity int
	Status   PreOrderItemStatus
}

// ActiveQuantity sums quantities of items that are not cancelled.
func (p *PreOrder) ActiveQuantity() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, it := range p.Items {
		if it.Status != ItemCancelled {
			n += it.Quantity
		}
	}
	return n
}
