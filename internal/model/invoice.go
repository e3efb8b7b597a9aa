package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// InvoiceStatus enumerates the payment states of an invoice.  An
// invoice is not part of the booking state machine itself but gates
// certain transitions: a booking cannot be completed without a paid
// invoice that has no open refund.
type InvoiceStatus string

const (
    InvoicePending   InvoiceStatus = "pending"
    InvoicePaid      InvoiceStatus = "paid"
    InvoiceOverdue   InvoiceStatus = "overdue"
    InvoiceCancelled InvoiceStatus = "cancelled"
    InvoiceRefunded  InvoiceStatus = "refunded"
)

// ExtraCharge is an additional line item added to an invoice after
// creation (damage fees, overtime, equipment).
type ExtraCharge struct {
    ID          uint64          `json:"id"`
    InvoiceID   uint64          `json:"invoice_id"`
    Amount      decimal.Decimal `json:"amount"`
    Description string          `json:"description"`
    AddedBy     uint64          `json:"added_by"`
    AddedAt     time.Time       `json:"added_at"`
}

// RefundDetails records a refund issued against a paid invoice.
type RefundDetails struct {
    Amount     decimal.Decimal `json:"amount"`
    Reason     string          `json:"reason"`
    RefundedBy uint64          `json:"refunded_by"`
    RefundedAt time.Time       `json:"refunded_at"`
}

// Invoice mirrors the invoices table.  One invoice exists per booking
// once payment is requested.  TotalExtraCharges is maintained by the
// repository as charges are added so FinalAmount never requires a
// join.
//
// Fields:
//  ID                – primary key identifier.
//  BookingID         – booking this invoice belongs to (unique).
//  Status            – pending, paid, overdue, cancelled or refunded.
//  Amount            – base amount, copied from the booking.
//  TotalExtraCharges – running sum of extra charges.
//  PaymentMethod     – how the invoice was paid (nullable until paid).
//  TransactionDate   – when payment was made (nullable until paid).
//  DueDate           – payment deadline (nullable).
//  Refund            – populated only when a refund has been issued.
type Invoice struct {
    ID                uint64          `json:"id"`
    BookingID         uint64          `json:"booking_id"`
    Status            InvoiceStatus   `json:"status"`
    Amount            decimal.Decimal `json:"amount"`
    TotalExtraCharges decimal.Decimal `json:"total_extra_charges"`
    PaymentMethod     *string         `json:"payment_method,omitempty"`
    TransactionDate   *time.Time      `json:"transaction_date,omitempty"`
    DueDate           *time.Time      `json:"due_date,omitempty"`
    Refund            *RefundDetails  `json:"refund_details,omitempty"`
    CreatedAt         time.Time       `json:"created_at"`
    UpdatedAt         time.Time       `json:"updated_at"`
}

// FinalAmount is the amount actually owed: base amount plus all extra
// charges.
func (i *Invoice) FinalAmount() decimal.Decimal {
    return i.Amount.Add(i.TotalExtraCharges)
}
