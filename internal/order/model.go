package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusDraft     OrderStatus = "DRAFT"
	StatusPlaced    OrderStatus = "PLACED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCanceled  OrderStatus = "CANCELED"
)

type Order struct {
	ID           uint
	CustomerID   uint
	Status       OrderStatus
	CheckoutStep string
	IPAddress    string
	Total        decimal.Decimal
	Currency     string
	ItemCount    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (o *Order) IsCanceled() bool {
	return o.Status == StatusCanceled
}

func (o *Order) HasItems() bool {
	return o.ItemCount > 0
}

// Description is the text shown to the customer on the bank's payment page.
func (o *Order) Description() string {
	return fmt.Sprintf("Order #%d", o.ID)
}
