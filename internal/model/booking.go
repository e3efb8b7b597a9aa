package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// BookingStatus enumerates the top-level lifecycle states of a booking.
// The values are persisted verbatim in the bookings.status column and
// appear in API payloads, so they must never be renamed.  The forward
// progression is:
//
//  draft → pending_approval → recommended → approved →
//  payment_pending → payment_confirmed → completed
//
// plus a terminal "cancelled" reachable from every state before
// payment_confirmed.  Only the workflow package mutates this field.
type BookingStatus string

const (
    StatusDraft            BookingStatus = "draft"
    StatusPendingApproval  BookingStatus = "pending_approval"
    StatusRecommended      BookingStatus = "recommended"
    StatusApproved         BookingStatus = "approved"
    StatusPaymentPending   BookingStatus = "payment_pending"
    StatusPaymentConfirmed BookingStatus = "payment_confirmed"
    StatusCompleted        BookingStatus = "completed"
    StatusCancelled        BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known lifecycle states.  Rows
// read back from the database should always pass this check; request
// payloads may not.
func (s BookingStatus) Valid() bool {
    switch s {
    case StatusDraft, StatusPendingApproval, StatusRecommended, StatusApproved,
        StatusPaymentPending, StatusPaymentConfirmed, StatusCompleted, StatusCancelled:
        return true
    }
    return false
}

// StageStatus is the state of one review stage (recommendation or
// approval).  A stage starts as "pending" and moves exactly once to
// either "completed" or "cancelled".  The explicit pending default
// avoids the absent-vs-pending ambiguity of an optional sub-record.
type StageStatus string

const (
    StagePending   StageStatus = "pending"
    StageCompleted StageStatus = "completed"
    StageCancelled StageStatus = "cancelled"
)

// Stage names one of the two review stages a share link can delegate.
type Stage string

const (
    StageRecommendation Stage = "recommendation"
    StageApproval       Stage = "approval"
)

// StageRecord captures the outcome of a review stage.  CompletedBy and
// CompletedAt are set on both completion and stage-local cancellation;
// CancellationReason only on the latter.  CompletedBy is nil when the
// action arrived through a share link rather than a session.
//
// Fields:
//  Status             – pending, completed or cancelled.
//  CompletedBy        – user who decided the stage (nullable).
//  CompletedAt        – when the stage was decided (nullable).
//  CancellationReason – reason for a stage-local cancel (nullable).
type StageRecord struct {
    Status             StageStatus `json:"status"`
    CompletedBy        *uint64     `json:"completed_by,omitempty"`
    CompletedAt        *time.Time  `json:"completed_at,omitempty"`
    CancellationReason *string     `json:"cancellation_reason,omitempty"`
}

// Booking represents one auditorium reservation request and its
// lifecycle record as stored in the bookings table.  The workflow
// fields (Status, Recommendation, Approval, CancelledAt,
// CancellationReason, IsDraft) are owned by the workflow engine; the
// remaining fields are descriptive payload.
type Booking struct {
    ID                   uint64          `json:"id"`                  // bookings.id
    Status               BookingStatus   `json:"status"`              // bookings.status
    Recommendation       StageRecord     `json:"recommendation"`      // bookings.recommendation_* columns
    Approval             StageRecord     `json:"approval"`            // bookings.approval_* columns
    Amount               decimal.Decimal `json:"amount"`              // bookings.amount (DECIMAL)
    AuditoriumID         uint64          `json:"auditorium_id"`       // bookings.auditorium_id
    StartsAt             time.Time       `json:"starts_at"`           // bookings.starts_at (UTC)
    EndsAt               time.Time       `json:"ends_at"`             // bookings.ends_at (UTC)
    AttendingPeopleCount uint32          `json:"attending_people_count"`
    Purpose              string          `json:"purpose"`
    ContactName          string          `json:"contact_name"`
    ContactPhone         string          `json:"contact_phone"`
    Organization         string          `json:"organization"`
    IsDraft              bool            `json:"is_draft"` // true iff Status == draft
    CancelledAt          *time.Time      `json:"cancelled_at,omitempty"`
    CancellationReason   *string         `json:"cancellation_reason,omitempty"`
    CreatedBy            uint64          `json:"created_by"` // always an admin in practice
    CreatedAt            time.Time       `json:"created_at"`
    UpdatedAt            time.Time       `json:"updated_at"`
}
