package models

import "time"

// Expense is a single money movement owned by one user.
type Expense struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Date        time.Time `json:"transaction_date"`
	Category    string    `json:"transaction_category"`
	Description string    `json:"transaction_description"`
	Currency    string    `json:"transaction_currency"`
	Amount      float64   `json:"transaction_amount"`
	IsRecurring bool      `json:"is_recurring"`
	IsActive    bool      `json:"is_active"`
}
