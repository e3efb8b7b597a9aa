package workflow

import (
    "strings"
    "time"

    "github.com/hallbook/auditorium-booking/internal/model"
)

// MinReasonLength is the minimum length, after trimming, of the
// cancellation reason for all three cancel variants (admin cancel,
// cancel-recommendation, cancel-approval).  Enforced here rather than
// in any presentation layer.
const MinReasonLength = 10

// allowedTransitions is the authoritative directed graph of top-level
// status changes.  The key is the current state, the value the set of
// states it may move to.  Stage-local cancels are absent on purpose:
// they never change the top-level status.
var allowedTransitions = map[model.BookingStatus][]model.BookingStatus{
    model.StatusDraft:            {model.StatusPendingApproval, model.StatusCancelled},
    model.StatusPendingApproval:  {model.StatusRecommended, model.StatusCancelled},
    model.StatusRecommended:      {model.StatusApproved, model.StatusCancelled},
    model.StatusApproved:         {model.StatusPaymentPending, model.StatusCancelled},
    model.StatusPaymentPending:   {model.StatusPaymentConfirmed, model.StatusCancelled},
    model.StatusPaymentConfirmed: {model.StatusCompleted},
    model.StatusCompleted:        {}, // terminal
    model.StatusCancelled:        {}, // terminal
}

// progressionRank orders the forward path.  Used by tests and reports
// to assert that legal operations never move a booking backwards.
var progressionRank = map[model.BookingStatus]int{
    model.StatusDraft:            0,
    model.StatusPendingApproval:  1,
    model.StatusRecommended:      2,
    model.StatusApproved:         3,
    model.StatusPaymentPending:   4,
    model.StatusPaymentConfirmed: 5,
    model.StatusCompleted:        6,
}

// CanTransition reports whether a direct top-level move from one
// status to another is on the graph.
func CanTransition(from, to model.BookingStatus) bool {
    for _, next := range allowedTransitions[from] {
        if next == to {
            return true
        }
    }
    return false
}

// NextStatuses returns the statuses reachable from the given one.
func NextStatuses(from model.BookingStatus) []model.BookingStatus {
    return allowedTransitions[from]
}

// Rank returns the position of a status on the forward progression and
// whether it is on the path at all (cancelled is not).
func Rank(s model.BookingStatus) (int, bool) {
    r, ok := progressionRank[s]
    return r, ok
}

// PaymentDetails carries the inputs required to confirm payment.
type PaymentDetails struct {
    Method          string    `json:"payment_method"`
    TransactionDate time.Time `json:"transaction_date"`
    Reference       string    `json:"reference,omitempty"`
}

// Submit moves a draft into the approval pipeline.  Admin only.
func Submit(b *model.Booking, actor model.Role) error {
    const op = "submit"
    if actor != model.RoleAdmin {
        return forbidden(op, b, actor)
    }
    if b.Status != model.StatusDraft {
        return invalidTransition(op, b)
    }
    b.Status = model.StatusPendingApproval
    b.IsDraft = false
    return nil
}

// Recommend completes the recommendation stage and advances the
// booking.  Refused once the stage has been cancelled: a stage-local
// cancel permanently blocks forward progress at that stage.
func Recommend(b *model.Booking, actor model.Role, actorID uint64, now time.Time) error {
    const op = "recommend"
    if actor != model.RoleRecommendation {
        return forbidden(op, b, actor)
    }
    if b.Status != model.StatusPendingApproval || b.Recommendation.Status != model.StagePending {
        return invalidTransition(op, b)
    }
    b.Status = model.StatusRecommended
    b.Recommendation = completedStage(actorID, now)
    return nil
}

// CancelRecommendation records a stage-local cancel by the
// recommendation officer.  The top-level status stays
// pending_approval; the booking is effectively cancelled via the
// resolver but the officer gains no delete authority.
func CancelRecommendation(b *model.Booking, actor model.Role, actorID uint64, reason string, now time.Time) error {
    const op = "cancel_recommendation"
    if actor != model.RoleRecommendation {
        return forbidden(op, b, actor)
    }
    if b.Status != model.StatusPendingApproval || b.Recommendation.Status != model.StagePending {
        return invalidTransition(op, b)
    }
    if err := checkReason(op, reason, b); err != nil {
        return err
    }
    b.Recommendation = cancelledStage(actorID, reason, now)
    return nil
}

// Approve completes the approval stage and advances the booking.
func Approve(b *model.Booking, actor model.Role, actorID uint64, now time.Time) error {
    const op = "approve"
    if actor != model.RoleApproval {
        return forbidden(op, b, actor)
    }
    if b.Status != model.StatusRecommended || b.Approval.Status != model.StagePending {
        return invalidTransition(op, b)
    }
    b.Status = model.StatusApproved
    b.Approval = completedStage(actorID, now)
    return nil
}

// CancelApproval records a stage-local cancel by the approval officer.
// The top-level status stays recommended.
func CancelApproval(b *model.Booking, actor model.Role, actorID uint64, reason string, now time.Time) error {
    const op = "cancel_approval"
    if actor != model.RoleApproval {
        return forbidden(op, b, actor)
    }
    if b.Status != model.StatusRecommended || b.Approval.Status != model.StagePending {
        return invalidTransition(op, b)
    }
    if err := checkReason(op, reason, b); err != nil {
        return err
    }
    b.Approval = cancelledStage(actorID, reason, now)
    return nil
}

// RequestPayment moves an approved booking into payment_pending.
func RequestPayment(b *model.Booking, actor model.Role) error {
    const op = "request_payment"
    if actor != model.RoleAdmin {
        return forbidden(op, b, actor)
    }
    if b.Status != model.StatusApproved {
        return invalidTransition(op, b)
    }
    b.Status = model.StatusPaymentPending
    return nil
}

// ConfirmPayment records that payment arrived and moves the booking to
// payment_confirmed.  The caller is responsible for marking the linked
// invoice paid in the same transaction.
func ConfirmPayment(b *model.Booking, actor model.Role, pay PaymentDetails) error {
    const op = "confirm_payment"
    if actor != model.RoleAdmin {
        return forbidden(op, b, actor)
    }
    if b.Status != model.StatusPaymentPending {
        return invalidTransition(op, b)
    }
    if strings.TrimSpace(pay.Method) == "" {
        return validation(op, "payment_method", "payment method is required", b)
    }
    if pay.TransactionDate.IsZero() {
        return validation(op, "transaction_date", "transaction date is required", b)
    }
    b.Status = model.StatusPaymentConfirmed
    return nil
}

// Complete closes out a confirmed booking after the event.  It is
// gated on the invoice: only a paid invoice with no open refund lets a
// booking reach completed.
func Complete(b *model.Booking, actor model.Role, inv *model.Invoice) error {
    const op = "complete"
    if actor != model.RoleAdmin {
        return forbidden(op, b, actor)
    }
    if b.Status != model.StatusPaymentConfirmed {
        return invalidTransition(op, b)
    }
    if inv == nil || inv.Status != model.InvoicePaid {
        return &Rejection{Op: op, State: b.Status, Kind: ErrInvalidTransition,
            Msg: "booking has no paid invoice"}
    }
    if inv.Refund != nil {
        return &Rejection{Op: op, State: b.Status, Kind: ErrInvalidTransition,
            Msg: "invoice has an open refund"}
    }
    b.Status = model.StatusCompleted
    return nil
}

// Cancel is the admin-level cancel: it sets the terminal top-level
// cancelled status.  Legal from every state before payment is
// confirmed.
func Cancel(b *model.Booking, actor model.Role, reason string, now time.Time) error {
    const op = "cancel"
    if actor != model.RoleAdmin {
        return forbidden(op, b, actor)
    }
    switch b.Status {
    case model.StatusPaymentConfirmed, model.StatusCompleted, model.StatusCancelled:
        return invalidTransition(op, b)
    }
    if err := checkReason(op, reason, b); err != nil {
        return err
    }
    trimmed := strings.TrimSpace(reason)
    at := now.UTC()
    b.Status = model.StatusCancelled
    b.IsDraft = false
    b.CancelledAt = &at
    b.CancellationReason = &trimmed
    return nil
}

// CheckPermanentDelete guards the removal of a booking record.  Only
// an admin may permanently delete, and only once the booking is
// effectively cancelled – either the terminal top-level status or a
// stage-local cancel.
func CheckPermanentDelete(b *model.Booking, actor model.Role) error {
    const op = "permanent_delete"
    if actor != model.RoleAdmin {
        return forbidden(op, b, actor)
    }
    if b.Status != model.StatusCancelled && !ResolveCancellation(b).IsCancelled {
        return invalidTransition(op, b)
    }
    return nil
}

func checkReason(op, reason string, b *model.Booking) error {
    if len(strings.TrimSpace(reason)) < MinReasonLength {
        return validation(op, "reason", "cancellation reason must be at least 10 characters", b)
    }
    return nil
}

func completedStage(actorID uint64, now time.Time) model.StageRecord {
    at := now.UTC()
    rec := model.StageRecord{Status: model.StageCompleted, CompletedAt: &at}
    if actorID != 0 {
        rec.CompletedBy = &actorID
    }
    return rec
}

func cancelledStage(actorID uint64, reason string, now time.Time) model.StageRecord {
    rec := completedStage(actorID, now)
    rec.Status = model.StageCancelled
    trimmed := strings.TrimSpace(reason)
    rec.CancellationReason = &trimmed
    return rec
}
