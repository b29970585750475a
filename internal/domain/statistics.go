package domain

import "github.com/shopspring/decimal"

// Statistics is a per-organizer rollup for one calendar month.
// DailySales is indexed by day of month minus one and runs up to the last
// day that had a sale; days without sales hold zero.
type Statistics struct {
	TotalEvents   int
	TotalTickets  int
	TotalSales    decimal.Decimal
	TotalReviewed int
	DailySales    []decimal.Decimal
}
