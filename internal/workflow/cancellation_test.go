package workflow

import (
	"testing"

	"github.com/hallbook/auditorium-booking/internal/model"
)

func strptr(s string) *string { return &s }

func TestResolveCancellationPriority(t *testing.T) {
	// An admin cancel wins even when a stage cancel is also present.
	b := newBooking(model.StatusCancelled)
	b.CancellationReason = strptr("Client withdrew request")
	b.Recommendation = model.StageRecord{Status: model.StageCancelled, CancellationReason: strptr("stage reason")}

	got := ResolveCancellation(b)
	if !got.IsCancelled || got.Actor != model.RoleAdmin || got.Reason != "Client withdrew request" {
		t.Fatalf("admin cancel should win: %+v", got)
	}
}

func TestResolveCancellationStageRules(t *testing.T) {
	rec := newBooking(model.StatusPendingApproval)
	rec.Recommendation = model.StageRecord{Status: model.StageCancelled, CancellationReason: strptr("Insufficient documentation provided")}
	got := ResolveCancellation(rec)
	if !got.IsCancelled || got.Actor != model.RoleRecommendation {
		t.Fatalf("recommendation cancel not resolved: %+v", got)
	}
	if got.Reason != "Insufficient documentation provided" {
		t.Fatalf("reason not carried: %q", got.Reason)
	}

	app := newBooking(model.StatusRecommended)
	app.Approval = model.StageRecord{Status: model.StageCancelled, CancellationReason: strptr("Conflicts with maintenance window")}
	got = ResolveCancellation(app)
	if !got.IsCancelled || got.Actor != model.RoleApproval {
		t.Fatalf("approval cancel not resolved: %+v", got)
	}
}

func TestResolveCancellationIgnoresStaleStageRecords(t *testing.T) {
	// A cancelled recommendation record on a booking that has somehow
	// advanced past pending_approval is a stale denormalized read and
	// must not count as a current cancellation.
	for _, status := range []model.BookingStatus{
		model.StatusRecommended, model.StatusApproved,
		model.StatusPaymentPending, model.StatusPaymentConfirmed, model.StatusCompleted,
	} {
		b := newBooking(status)
		b.Recommendation = model.StageRecord{Status: model.StageCancelled, CancellationReason: strptr("stale record lingering")}
		if got := ResolveCancellation(b); got.IsCancelled {
			t.Fatalf("status %s: stale recommendation cancel misread as current: %+v", status, got)
		}
	}
	for _, status := range []model.BookingStatus{
		model.StatusApproved, model.StatusPaymentPending, model.StatusPaymentConfirmed,
	} {
		b := newBooking(status)
		b.Approval = model.StageRecord{Status: model.StageCancelled, CancellationReason: strptr("stale record lingering")}
		if got := ResolveCancellation(b); got.IsCancelled {
			t.Fatalf("status %s: stale approval cancel misread as current: %+v", status, got)
		}
	}
}

func TestResolveCancellationLiveBooking(t *testing.T) {
	for _, status := range []model.BookingStatus{
		model.StatusDraft, model.StatusPendingApproval, model.StatusRecommended,
		model.StatusApproved, model.StatusPaymentPending,
		model.StatusPaymentConfirmed, model.StatusCompleted,
	} {
		b := newBooking(status)
		if got := ResolveCancellation(b); got.IsCancelled || got.Actor != "" {
			t.Fatalf("status %s: live booking resolved as cancelled: %+v", status, got)
		}
	}
}
