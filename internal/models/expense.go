package models

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is the fixed set of expense categories.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryEntertainment Category = "Entertainment"
	CategoryBills         Category = "Bills"
	CategoryOther         Category = "Other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryEntertainment,
	CategoryBills,
	CategoryOther,
}

// categoryAliases maps lower-cased labels accepted at ingestion, including the
// Indonesian labels older clients still send, to the canonical category.
var categoryAliases = map[string]Category{
	"food":          CategoryFood,
	"makanan":       CategoryFood,
	"transport":     CategoryTransport,
	"transportasi":  CategoryTransport,
	"entertainment": CategoryEntertainment,
	"hiburan":       CategoryEntertainment,
	"bills":         CategoryBills,
	"tagihan":       CategoryBills,
	"other":         CategoryOther,
	"lainnya":       CategoryOther,
}

// ParseCategory normalizes a category label.
func ParseCategory(s string) (Category, error) {
	c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", Invalid("category", fmt.Errorf("%w: %q", ErrInvalidCategory, s))
	}
	return c, nil
}

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ExpenseRecord is one entry of money going out.
type ExpenseRecord struct {
	// ID is the unique identifier of the record.
	ID uuid.UUID

	// UserID is the owner.
	UserID uuid.UUID

	// Description says what the money was spent on.
	Description string

	// Amount is always greater than zero.
	Amount decimal.Decimal

	// Category is one of Categories.
	Category Category

	// Date is the calendar day of the expense. Its month is the grouping key.
	Date civil.Date

	// Notes is an optional free-text comment.
	Notes string

	// CreatedAt is the Unix timestamp when the record was created.
	CreatedAt int64
}

// Validate checks the user-entered fields of the record.
func (e ExpenseRecord) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return Invalid("description", ErrEmptyDescription)
	}
	if len(e.Description) > 200 {
		return Invalid("description", ErrTextTooLong)
	}
	if !e.Amount.IsPositive() {
		return Invalid("amount", ErrInvalidAmount)
	}
	if !e.Category.Valid() {
		return Invalid("category", ErrInvalidCategory)
	}
	if !e.Date.IsValid() || e.Date.Year == 0 {
		return Invalid("date", ErrInvalidDate)
	}
	return nil
}

// Period returns the month the expense is grouped under.
func (e ExpenseRecord) Period() Period {
	return PeriodOf(e.Date)
}
