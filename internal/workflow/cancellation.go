package workflow

import "github.com/hallbook/auditorium-booking/internal/model"

// Cancellation is the resolver's verdict on whether a booking is
// effectively cancelled, and by whom.  Actor is empty when the booking
// is live.
type Cancellation struct {
    IsCancelled bool       `json:"is_cancelled"`
    Actor       model.Role `json:"actor,omitempty"`
    Reason      string     `json:"reason,omitempty"`
}

// ResolveCancellation derives the effective cancellation state of a
// booking from its raw status and the two stage records.  Priority
// order, first match wins:
//
//  1. top-level cancelled           → admin cancel
//  2. pending_approval + rec stage cancelled → recommendation cancel
//  3. recommended + approval stage cancelled → approval cancel
//  4. otherwise the booking is live
//
// Rules 2 and 3 require the booking to still sit at the stage that
// produced the cancel.  The engine never advances a booking past a
// cancelled stage, so a stage cancel observed together with a later
// status can only be a stale denormalized read – and must not be
// misread as a current cancellation.
func ResolveCancellation(b *model.Booking) Cancellation {
    if b.Status == model.StatusCancelled {
        return Cancellation{IsCancelled: true, Actor: model.RoleAdmin, Reason: deref(b.CancellationReason)}
    }
    if b.Status == model.StatusPendingApproval && b.Recommendation.Status == model.StageCancelled {
        return Cancellation{IsCancelled: true, Actor: model.RoleRecommendation, Reason: deref(b.Recommendation.CancellationReason)}
    }
    if b.Status == model.StatusRecommended && b.Approval.Status == model.StageCancelled {
        return Cancellation{IsCancelled: true, Actor: model.RoleApproval, Reason: deref(b.Approval.CancellationReason)}
    }
    return Cancellation{}
}

func deref(s *string) string {
    if s == nil {
        return ""
    }
    return *s
}
