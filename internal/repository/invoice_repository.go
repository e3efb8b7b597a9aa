package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/shopspring/decimal"

    "github.com/hallbook/auditorium-booking/internal/model"
)

// InvoiceRepo provides data access to invoices and their extra
// charges.  One invoice exists per booking (unique key on booking_id);
// the total_extra_charges column is maintained here so the final
// amount never needs a join.  Status changes are conditional writes in
// the same spirit as the booking repository.
type InvoiceRepo struct {
    db *sql.DB
}

// NewInvoiceRepo returns a new InvoiceRepo bound to the given database.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

const invoiceColumns = `id, booking_id, status, amount, total_extra_charges,
    payment_method, transaction_date, due_date,
    refund_amount, refund_reason, refund_by, refund_at, created_at, updated_at`

// CreateTx inserts a pending invoice for a booking within an existing
// transaction and populates the generated ID.  A duplicate booking_id
// reports ErrInvoiceExists.
func (r *InvoiceRepo) CreateTx(ctx context.Context, tx *sql.Tx, inv *model.Invoice) error {
    const q = `INSERT INTO invoices (booking_id, status, amount, due_date) VALUES (?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, inv.BookingID, inv.Status, inv.Amount, nullTime(inv.DueDate))
    if err != nil {
        // 1062 is the MySQL duplicate-key error; booking_id is unique.
        if strings.Contains(err.Error(), "1062") {
            return ErrInvoiceExists
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    inv.ID = uint64(id)
    return nil
}

// GetByBookingID returns the invoice belonging to a booking, or
// ErrInvoiceNotFound.
func (r *InvoiceRepo) GetByBookingID(ctx context.Context, bookingID uint64) (*model.Invoice, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+invoiceColumns+` FROM invoices WHERE booking_id = ?`, bookingID)
    return scanInvoice(row)
}

// GetByID returns an invoice by primary key, or ErrInvoiceNotFound.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uint64) (*model.Invoice, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
    return scanInvoice(row)
}

// GetByBookingIDTx is GetByBookingID inside an existing transaction.
func (r *InvoiceRepo) GetByBookingIDTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Invoice, error) {
    row := tx.QueryRowContext(ctx,
        `SELECT `+invoiceColumns+` FROM invoices WHERE booking_id = ?`, bookingID)
    return scanInvoice(row)
}

// MarkPaidTx records payment details and flips the invoice to paid.
// The write is guarded on the invoice still being payable (pending or
// overdue); losing that race returns ErrConflict.
func (r *InvoiceRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, invoiceID uint64, method string, txnDate time.Time) error {
    const q = `UPDATE invoices SET status = ?, payment_method = ?, transaction_date = ?
        WHERE id = ? AND status IN (?, ?)`
    res, err := tx.ExecContext(ctx, q,
        model.InvoicePaid, method, txnDate.UTC().Format("2006-01-02 15:04:05"),
        invoiceID, model.InvoicePending, model.InvoiceOverdue,
    )
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

// CancelByBookingTx cancels an open invoice when its booking is
// cancelled.  Paid and refunded invoices are left alone; affecting
// zero rows is not an error here.
func (r *InvoiceRepo) CancelByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE invoices SET status = ? WHERE booking_id = ? AND status IN (?, ?)`,
        model.InvoiceCancelled, bookingID, model.InvoicePending, model.InvoiceOverdue)
    return err
}

// AddExtraCharge appends a charge line and bumps the invoice's running
// total in one transaction.  Charges may only be added while the
// invoice is still payable.
func (r *InvoiceRepo) AddExtraCharge(ctx context.Context, charge *model.ExtraCharge) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := tx.ExecContext(ctx,
        `UPDATE invoices SET total_extra_charges = total_extra_charges + ?
         WHERE id = ? AND status IN (?, ?)`,
        charge.Amount, charge.InvoiceID, model.InvoicePending, model.InvoiceOverdue)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    ins, err := tx.ExecContext(ctx,
        `INSERT INTO invoice_extra_charges (invoice_id, amount, description, added_by) VALUES (?, ?, ?, ?)`,
        charge.InvoiceID, charge.Amount, charge.Description, charge.AddedBy)
    if err != nil {
        return err
    }
    id, err := ins.LastInsertId()
    if err != nil {
        return err
    }
    charge.ID = uint64(id)
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// ListExtraCharges returns all charge lines of an invoice, oldest
// first.
func (r *InvoiceRepo) ListExtraCharges(ctx context.Context, invoiceID uint64) ([]model.ExtraCharge, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, invoice_id, amount, description, added_by, added_at
         FROM invoice_extra_charges WHERE invoice_id = ? ORDER BY added_at`, invoiceID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ExtraCharge, 0)
    for rows.Next() {
        var c model.ExtraCharge
        if err := rows.Scan(&c.ID, &c.InvoiceID, &c.Amount, &c.Description, &c.AddedBy, &c.AddedAt); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Refund records a refund against a paid invoice and flips it to
// refunded.  Guarded on the paid status; anything else is a conflict.
func (r *InvoiceRepo) Refund(ctx context.Context, invoiceID uint64, refund model.RefundDetails) error {
    const q = `UPDATE invoices SET status = ?, refund_amount = ?, refund_reason = ?, refund_by = ?, refund_at = ?
        WHERE id = ? AND status = ?`
    res, err := r.db.ExecContext(ctx, q,
        model.InvoiceRefunded, refund.Amount, refund.Reason, refund.RefundedBy,
        refund.RefundedAt.UTC().Format("2006-01-02 15:04:05"),
        invoiceID, model.InvoicePaid,
    )
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}

// PaidTotals returns the number of paid invoices and the sum of their
// final amounts (base amount plus extra charges).  Refunded invoices do
// not count toward revenue.
func (r *InvoiceRepo) PaidTotals(ctx context.Context) (int64, decimal.Decimal, error) {
	var (
		count int64
		total decimal.NullDecimal
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount + total_extra_charges), 0)
		 FROM invoices WHERE status = ?`, model.InvoicePaid).Scan(&count, &total)
	if err != nil {
		return 0, decimal.Zero, err
	}
	if !total.Valid {
		return count, decimal.Zero, nil
	}
	return count, total.Decimal, nil
}

func scanInvoice(row rowScanner) (*model.Invoice, error) {
    var (
        inv          model.Invoice
        method       sql.NullString
        txnDate      sql.NullTime
        dueDate      sql.NullTime
        refundAmount decimal.NullDecimal
        refundReason sql.NullString
        refundBy     sql.NullInt64
        refundAt     sql.NullTime
    )
    err := row.Scan(
        &inv.ID, &inv.BookingID, &inv.Status, &inv.Amount, &inv.TotalExtraCharges,
        &method, &txnDate, &dueDate,
        &refundAmount, &refundReason, &refundBy, &refundAt,
        &inv.CreatedAt, &inv.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrInvoiceNotFound
    }
    if err != nil {
        return nil, err
    }
    inv.PaymentMethod = strPtr(method)
    inv.TransactionDate = timePtr(txnDate)
    inv.DueDate = timePtr(dueDate)
    if refundAmount.Valid {
        inv.Refund = &model.RefundDetails{
            Amount: refundAmount.Decimal,
            Reason: refundReason.String,
        }
        if refundBy.Valid {
            inv.Refund.RefundedBy = uint64(refundBy.Int64)
        }
        if refundAt.Valid {
            inv.Refund.RefundedAt = refundAt.Time.UTC()
        }
    }
    return &inv, nil
}
