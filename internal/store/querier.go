package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Querier lists every statement implemented by Queries.
type Querier interface {
	AddWishlistItem(ctx context.Context, arg AddWishlistItemParams) error
	CountOrdersForCustomer(ctx context.Context, arg CountOrdersForCustomerParams) (int64, error)
	CountPlants(ctx context.Context, arg CountPlantsParams) (int64, error)
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error)
	CreateReview(ctx context.Context, arg CreateReviewParams) (Review, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetDiscountCode(ctx context.Context, code string) (DiscountCode, error)
	GetOrder(ctx context.Context, id pgtype.UUID) (Order, error)
	GetOrderByPaymentID(ctx context.Context, paymentID string) (Order, error)
	GetPlant(ctx context.Context, id string) (Plant, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (User, error)
	IncrementReviewHelpful(ctx context.Context, id pgtype.UUID) (Review, error)
	InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error)
	ListOrderItemsByOrderIDs(ctx context.Context, orderIDs []pgtype.UUID) ([]OrderItem, error)
	ListOrdersForCustomer(ctx context.Context, arg ListOrdersForCustomerParams) ([]Order, error)
	ListPlants(ctx context.Context, arg ListPlantsParams) ([]Plant, error)
	ListPlantsByIDs(ctx context.Context, ids []string) ([]Plant, error)
	ListReviewsByPlant(ctx context.Context, plantID string) ([]Review, error)
	ListWishlistPlants(ctx context.Context, userID pgtype.UUID) ([]Plant, error)
	MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (Order, error)
	MarkOrderPaymentFailed(ctx context.Context, id pgtype.UUID) error
	RemoveWishlistItem(ctx context.Context, arg RemoveWishlistItemParams) (int64, error)
	SetOrderPaymentID(ctx context.Context, arg SetOrderPaymentIDParams) error
	UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error)
	UpdatePlantRating(ctx context.Context, arg UpdatePlantRatingParams) error
	UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error)
}

var _ Querier = (*Queries)(nil)
