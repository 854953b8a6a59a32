package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the canonical calendar date format used throughout the store.
const DateLayout = "2006-01-02"

// NaturalKey uniquely identifies a sales record independently of the
// storage-assigned surrogate id.
type NaturalKey struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Date      string `json:"date"` // formatted as DateLayout
}

func (k NaturalKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.OrderID, k.ProductID, k.Date)
}

// SalesRecord is one transaction line. Records are created by the ingestion
// pipeline and never mutated afterwards.
type SalesRecord struct {
	ID          uuid.UUID `json:"id"`
	OrderID     string    `json:"order_id"`
	ProductID   string    `json:"product_id"`
	Date        time.Time `json:"date"`
	ProductName string    `json:"product_name"`
	Category    string    `json:"category"`
	Region      string    `json:"region"`
	Location    *string   `json:"location,omitempty"`
	Site        *string   `json:"site,omitempty"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	UnitCost    float64   `json:"unit_cost"`

	// Derived fields, computed from the inputs and never user supplied.
	Sales        float64 `json:"sales"`
	Cost         float64 `json:"cost"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profit_margin"`

	CreatedAt time.Time `json:"created_at"`
}

// NewSalesRecord builds a record from validated inputs and computes the
// derived fields.
func NewSalesRecord(orderID, productID string, date time.Time, productName, category, region string, quantity int, unitPrice, unitCost float64) SalesRecord {
	record := SalesRecord{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		Date:        date,
		ProductName: productName,
		Category:    category,
		Region:      region,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		UnitCost:    unitCost,
		CreatedAt:   time.Now(),
	}
	return record.WithDerivedFields()
}

// WithDerivedFields returns a copy with sales, cost, profit and profit_margin
// recomputed from quantity, unit_price and unit_cost. Margin is 0 when sales
// is 0.
func (r SalesRecord) WithDerivedFields() SalesRecord {
	r.Sales = round2(float64(r.Quantity) * r.UnitPrice)
	r.Cost = round2(float64(r.Quantity) * r.UnitCost)
	r.Profit = round2(r.Sales - r.Cost)
	if r.Sales == 0 {
		r.ProfitMargin = 0
	} else {
		r.ProfitMargin = round4(r.Profit / r.Sales)
	}
	return r
}

// Key returns the natural key of the record.
func (r SalesRecord) Key() NaturalKey {
	return NaturalKey{
		OrderID:   r.OrderID,
		ProductID: r.ProductID,
		Date:      r.Date.Format(DateLayout),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
