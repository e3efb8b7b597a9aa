package workflow

import (
	"testing"

	"github.com/hallbook/auditorium-booking/internal/model"
)

func TestProjectDisplayStatusCollapsesTerminalSuccess(t *testing.T) {
	confirmed := newBooking(model.StatusPaymentConfirmed)
	completed := newBooking(model.StatusCompleted)

	if got := ProjectDisplayStatus(confirmed); got != model.StatusPaymentConfirmed {
		t.Fatalf("payment_confirmed projected to %s", got)
	}
	if got := ProjectDisplayStatus(completed); got != model.StatusPaymentConfirmed {
		t.Fatalf("completed should present as payment_confirmed, got %s", got)
	}
}

func TestProjectDisplayStatusAgreesWithResolver(t *testing.T) {
	// Property: isCancelled ⇔ display status is cancelled, across raw
	// statuses crossed with every stage-record combination.
	statuses := []model.BookingStatus{
		model.StatusDraft, model.StatusPendingApproval, model.StatusRecommended,
		model.StatusApproved, model.StatusPaymentPending,
		model.StatusPaymentConfirmed, model.StatusCompleted, model.StatusCancelled,
	}
	stageStates := []model.StageStatus{model.StagePending, model.StageCompleted, model.StageCancelled}

	for _, status := range statuses {
		for _, rec := range stageStates {
			for _, app := range stageStates {
				b := newBooking(status)
				b.Recommendation.Status = rec
				b.Approval.Status = app
				cancelled := ResolveCancellation(b).IsCancelled
				display := ProjectDisplayStatus(b)
				if cancelled != (display == model.StatusCancelled) {
					t.Fatalf("status=%s rec=%s app=%s: isCancelled=%v but display=%s",
						status, rec, app, cancelled, display)
				}
			}
		}
	}
}

func TestProjectDisplayStatusPassesThroughLiveStates(t *testing.T) {
	for _, status := range []model.BookingStatus{
		model.StatusDraft, model.StatusPendingApproval, model.StatusRecommended,
		model.StatusApproved, model.StatusPaymentPending,
	} {
		b := newBooking(status)
		if got := ProjectDisplayStatus(b); got != status {
			t.Fatalf("live status %s projected to %s", status, got)
		}
	}
}

func TestStyleForCoversEveryDisplayStatus(t *testing.T) {
	for _, status := range []model.BookingStatus{
		model.StatusDraft, model.StatusPendingApproval, model.StatusRecommended,
		model.StatusApproved, model.StatusPaymentPending,
		model.StatusPaymentConfirmed, model.StatusCompleted, model.StatusCancelled,
	} {
		style := StyleFor(status)
		if style.Label == "" || style.Icon == "" || style.Color == "" {
			t.Fatalf("status %s has incomplete style: %+v", status, style)
		}
	}
	if StyleFor(model.StatusCompleted) != StyleFor(model.StatusPaymentConfirmed) {
		t.Fatalf("completed and payment_confirmed must share a badge")
	}
}
