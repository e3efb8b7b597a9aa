package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/hallbook/auditorium-booking/internal/model"
)

// bookingColumns is the full column list of the bookings table in scan
// order.  Every query that returns whole bookings selects exactly
// these columns so scanBooking can be shared.
const bookingColumns = `id, status,
    recommendation_status, recommendation_completed_by, recommendation_completed_at, recommendation_cancellation_reason,
    approval_status, approval_completed_by, approval_completed_at, approval_cancellation_reason,
    amount, auditorium_id, starts_at, ends_at, attending_people_count,
    purpose, contact_name, contact_phone, organization,
    is_draft, cancelled_at, cancellation_reason, created_by, created_at, updated_at`

// BookingRepo provides CRUD and state-guarded updates for bookings.
// All timestamp columns are stored in UTC.  Workflow mutations go
// through SaveWorkflowTx, which performs a conditional write keyed on
// the status the caller observed; a lost race surfaces as ErrConflict
// rather than a silent overwrite.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// StateSnapshot is the workflow state a caller observed before asking
// for a mutation.  SaveWorkflowTx includes all three fields in the
// UPDATE's WHERE clause: the top-level status alone is not enough,
// because stage-local cancels leave it unchanged – two concurrent
// cancel-recommendation calls must not both succeed.
type StateSnapshot struct {
    Status         model.BookingStatus
    Recommendation model.StageStatus
    Approval       model.StageStatus
}

// Snapshot captures the current workflow state of a booking, to be
// taken before handing the booking to the workflow engine.
func Snapshot(b *model.Booking) StateSnapshot {
    return StateSnapshot{
        Status:         b.Status,
        Recommendation: b.Recommendation.Status,
        Approval:       b.Approval.Status,
    }
}

// Create inserts a new booking and populates its generated ID and
// timestamps.  Stage columns default to 'pending' in the schema, so
// only payload and status fields are written.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    const q = `INSERT INTO bookings
        (status, amount, auditorium_id, starts_at, ends_at, attending_people_count,
         purpose, contact_name, contact_phone, organization, is_draft, created_by)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        b.Status, b.Amount, b.AuditoriumID,
        b.StartsAt.UTC().Format("2006-01-02 15:04:05"),
        b.EndsAt.UTC().Format("2006-01-02 15:04:05"),
        b.AttendingPeopleCount, b.Purpose, b.ContactName, b.ContactPhone,
        b.Organization, b.IsDraft, b.CreatedBy,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    // Query back the row to populate defaults and timestamps.
    loaded, err := r.GetByID(ctx, b.ID)
    if err != nil {
        return err
    }
    *b = *loaded
    return nil
}

// GetByID returns a single booking.  ErrBookingNotFound is returned
// when no booking with the given id exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
    return scanBooking(row)
}

// GetByIDTx is GetByID inside an existing transaction, used by
// handlers that load, run the engine and conditionally save in one
// unit.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
    row := tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
    return scanBooking(row)
}

// List returns all bookings ordered by creation time descending.  When
// none exist an empty slice is returned.
func (r *BookingRepo) List(ctx context.Context) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ListByStatus returns bookings whose raw status is one of the given
// values, newest first.  Callers aggregating for display must still
// project the result – raw status alone misses stage-local cancels.
func (r *BookingRepo) ListByStatus(ctx context.Context, statuses ...model.BookingStatus) ([]model.Booking, error) {
    if len(statuses) == 0 {
        return r.List(ctx)
    }
    q := `SELECT ` + bookingColumns + ` FROM bookings WHERE status IN (`
    args := make([]interface{}, 0, len(statuses))
    for i, s := range statuses {
        if i > 0 {
            q += ","
        }
        q += "?"
        args = append(args, s)
    }
    q += `) ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// SaveWorkflowTx persists the workflow-owned fields of a booking with
// an optimistic guard: the UPDATE only matches while the stored state
// still equals the snapshot the caller observed.  Zero rows affected
// means another actor got there first and ErrConflict is returned; the
// caller must roll back, re-fetch and re-evaluate.
func (r *BookingRepo) SaveWorkflowTx(ctx context.Context, tx *sql.Tx, b *model.Booking, expected StateSnapshot) error {
    const q = `UPDATE bookings SET
        status = ?,
        recommendation_status = ?, recommendation_completed_by = ?, recommendation_completed_at = ?, recommendation_cancellation_reason = ?,
        approval_status = ?, approval_completed_by = ?, approval_completed_at = ?, approval_cancellation_reason = ?,
        is_draft = ?, cancelled_at = ?, cancellation_reason = ?
        WHERE id = ? AND status = ? AND recommendation_status = ? AND approval_status = ?`
    res, err := tx.ExecContext(ctx, q,
        b.Status,
        b.Recommendation.Status, nullUint(b.Recommendation.CompletedBy), nullTime(b.Recommendation.CompletedAt), nullStr(b.Recommendation.CancellationReason),
        b.Approval.Status, nullUint(b.Approval.CompletedBy), nullTime(b.Approval.CompletedAt), nullStr(b.Approval.CancellationReason),
        b.IsDraft, nullTime(b.CancelledAt), nullStr(b.CancellationReason),
        b.ID, expected.Status, expected.Recommendation, expected.Approval,
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

// UpdateDetails persists the descriptive payload of a booking (times,
// headcount, contact fields).  The write is guarded on the expected
// status so an edit races cleanly against a concurrent transition.
func (r *BookingRepo) UpdateDetails(ctx context.Context, b *model.Booking, expected model.BookingStatus) error {
    const q = `UPDATE bookings SET
        amount = ?, auditorium_id = ?, starts_at = ?, ends_at = ?, attending_people_count = ?,
        purpose = ?, contact_name = ?, contact_phone = ?, organization = ?
        WHERE id = ? AND status = ?`
    res, err := r.db.ExecContext(ctx, q,
        b.Amount, b.AuditoriumID,
        b.StartsAt.UTC().Format("2006-01-02 15:04:05"),
        b.EndsAt.UTC().Format("2006-01-02 15:04:05"),
        b.AttendingPeopleCount, b.Purpose, b.ContactName, b.ContactPhone, b.Organization,
        b.ID, expected,
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

// DeleteTx permanently removes a booking.  Share links and invoices
// cascade via foreign keys.  The caller is responsible for having
// checked the permanent-delete guard first.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrBookingNotFound
    }
    return nil
}

// rowScanner lets scanBooking work for both QueryRow and Query rows.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
    var (
        b          model.Booking
        recBy      sql.NullInt64
        recAt      sql.NullTime
        recReason  sql.NullString
        appBy      sql.NullInt64
        appAt      sql.NullTime
        appReason  sql.NullString
        cancAt     sql.NullTime
        cancReason sql.NullString
    )
    err := row.Scan(
        &b.ID, &b.Status,
        &b.Recommendation.Status, &recBy, &recAt, &recReason,
        &b.Approval.Status, &appBy, &appAt, &appReason,
        &b.Amount, &b.AuditoriumID, &b.StartsAt, &b.EndsAt, &b.AttendingPeopleCount,
        &b.Purpose, &b.ContactName, &b.ContactPhone, &b.Organization,
        &b.IsDraft, &cancAt, &cancReason, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    b.Recommendation.CompletedBy = uintPtr(recBy)
    b.Recommendation.CompletedAt = timePtr(recAt)
    b.Recommendation.CancellationReason = strPtr(recReason)
    b.Approval.CompletedBy = uintPtr(appBy)
    b.Approval.CompletedAt = timePtr(appAt)
    b.Approval.CancellationReason = strPtr(appReason)
    b.CancelledAt = timePtr(cancAt)
    b.CancellationReason = strPtr(cancReason)
    return &b, nil
}

// Null conversion helpers shared across repositories.

func nullUint(v *uint64) interface{} {
    if v == nil {
        return nil
    }
    return *v
}

func nullTime(v *time.Time) interface{} {
    if v == nil {
        return nil
    }
    return v.UTC().Format("2006-01-02 15:04:05")
}

func nullStr(v *string) interface{} {
    if v == nil {
        return nil
    }
    return *v
}

func uintPtr(v sql.NullInt64) *uint64 {
    if !v.Valid {
        return nil
    }
    u := uint64(v.Int64)
    return &u
}

func timePtr(v sql.NullTime) *time.Time {
    if !v.Valid {
        return nil
    }
    t := v.Time.UTC()
    return &t
}

func strPtr(v sql.NullString) *string {
    if !v.Valid {
        return nil
    }
    s := v.String
    return &s
}
