package models

import "time"

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction tracks one M-Pesa STK push attempt from initiation to its
// terminal state. CheckoutRequestID is the gateway's correlation identifier
// and is never reused across rows.
type Transaction struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CheckoutRequestID  string    `gorm:"uniqueIndex;size:64;not null" json:"checkout_request_id"`
	MerchantRequestID  string    `gorm:"size:64" json:"merchant_request_id"`
	UserID             uint      `gorm:"index;not null" json:"user_id"`
	PhoneNumber        string    `gorm:"size:15;not null" json:"phone_number"`
	Amount             int64     `gorm:"not null" json:"amount"`
	Description        string    `gorm:"size:100" json:"description"`
	AccountReference   string    `gorm:"size:32" json:"account_reference"`
	Status             string    `gorm:"size:16;not null;index" json:"status"`
	MpesaReceiptNumber string    `gorm:"size:32" json:"mpesa_receipt_number,omitempty"`
	TransactionDate    string    `gorm:"size:20" json:"transaction_date,omitempty"`
	ResultDesc         string    `gorm:"size:255" json:"result_desc,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
