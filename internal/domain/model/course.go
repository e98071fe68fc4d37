package model

import "github.com/shopspring/decimal"

// Course is the priced resource an enrollment refers to.
type Course struct {
	ID    int64
	Title string
	Price decimal.Decimal
}
