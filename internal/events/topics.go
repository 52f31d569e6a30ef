package events

// Topic constants for domain events emitted by the storefront.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderPaid          = "order.paid"
	TopicOrderCanceled      = "order.canceled"
	TopicOrderStatusChanged = "order.status_changed"
	TopicPaymentFailed      = "payment.failed"
	TopicReviewCreated      = "review.created"
)
