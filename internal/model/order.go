package model

// Order is the live tally of dishes served for a reservation.  Staff edit
// it while the reservation is in progress.
type Order struct {
	ID            string
	ReservationID string
	Lines         []OrderLine
}

// OrderLine is one dish on an order with its unit price in cents.
type OrderLine struct {
	DishID     string
	Quantity   int
	PriceCents int64
}

// Quantity sums units across all lines.
func (o *Order) Quantity() int {
	if o == nil {
		return 0
	}
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// RevenueCents sums quantity*price across all lines.
func (o *Order) RevenueCents() int64 {
	if o == nil {
		return 0
	}
	var total int64
	for _, l := range o.Lines {
		total += int64(l.Quantity) * l.PriceCents
	}
	return total
}
