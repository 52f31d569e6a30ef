package order

import "slices"

// Order statuses.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// fulfilment is the forward path an order takes once placed.
var fulfilment = []string{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}

// KnownStatus reports whether s is an order status.
func KnownStatus(s string) bool {
	return s == StatusCancelled || slices.Contains(fulfilment, s)
}

func rank(status string) int {
	return slices.Index(fulfilment, status)
}

// CanTransition reports whether the caller may move an order from one
// status to another. Owners may only cancel before processing starts.
// Admins advance one step at a time and may cancel until the order ships.
func CanTransition(from, to string, admin bool) bool {
	if from == to || from == StatusCancelled || from == StatusDelivered {
		return false
	}
	if to == StatusCancelled {
		limit := StatusConfirmed
		if admin {
			limit = StatusProcessing
		}
		return rank(from) >= 0 && rank(from) <= rank(limit)
	}
	if !admin {
		return false
	}
	return rank(from) >= 0 && rank(to) == rank(from)+1
}
