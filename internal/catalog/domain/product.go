package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog record as seen by the commerce core: the
// descriptive fields are read-only here, while Stock and TotalSales are
// mutated exclusively through the inventory ledger.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int32
	TotalSales  int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
