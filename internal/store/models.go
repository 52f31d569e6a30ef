package store

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type Plant struct {
	ID                   string
	Name                 string
	Price                decimal.Decimal
	Description          string
	CareInstructions     string
	SunlightRequirements string
	Category             string
	StockQuantity        int32
	ImageURL             string
	Weight               decimal.Decimal
	AverageRating        decimal.Decimal
	TotalReviews         int32
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type User struct {
	ID           pgtype.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        pgtype.Text
	Address      pgtype.Text
	City         pgtype.Text
	State        pgtype.Text
	ZipCode      pgtype.Text
	Country      pgtype.Text
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type DiscountCode struct {
	Code      string
	Kind      string
	Value     decimal.Decimal
	Active    bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Order struct {
	ID              pgtype.UUID
	UserID          pgtype.UUID
	CustomerEmail   string
	Status          string
	PaymentStatus   string
	PaymentProvider string
	PaymentID       pgtype.Text
	PayerID         pgtype.Text
	CaptureID       pgtype.Text
	Currency        string
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	ShippingCost    decimal.Decimal
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
	DiscountCode    pgtype.Text
	ShippingAddress string
	ShippingCity    string
	ShippingState   string
	ShippingZip     string
	ShippingCountry string
	Notes           pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID        pgtype.UUID
	OrderID   pgtype.UUID
	PlantID   pgtype.Text
	Name      string
	Sku       string
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type Review struct {
	ID           pgtype.UUID
	PlantID      string
	UserID       pgtype.UUID
	UserName     string
	Rating       int32
	Comment      string
	HelpfulCount int32
	CreatedAt    time.Time
}

type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID string
	Payload     []byte
	OccurredAt  time.Time
}
