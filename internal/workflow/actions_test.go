package workflow

import (
	"testing"
	"time"

	"github.com/hallbook/auditorium-booking/internal/model"
)

func TestAvailableActionsAdmin(t *testing.T) {
	cases := []struct {
		status  model.BookingStatus
		want    []Action
		notWant []Action
	}{
		{model.StatusDraft,
			[]Action{ActionView, ActionEdit, ActionCancel},
			[]Action{ActionPermanentDelete, ActionConfirmPayment, ActionGenerateShareLink}},
		{model.StatusPendingApproval,
			[]Action{ActionView, ActionEdit, ActionCancel, ActionGenerateShareLink},
			[]Action{ActionPermanentDelete, ActionRecommend}},
		{model.StatusRecommended,
			[]Action{ActionView, ActionCancel},
			[]Action{ActionEdit, ActionGenerateShareLink, ActionApprove}},
		{model.StatusPaymentPending,
			[]Action{ActionView, ActionCancel, ActionConfirmPayment},
			[]Action{ActionEdit}},
		{model.StatusPaymentConfirmed,
			[]Action{ActionView},
			[]Action{ActionCancel, ActionEdit, ActionConfirmPayment}},
		{model.StatusCancelled,
			[]Action{ActionView, ActionPermanentDelete},
			[]Action{ActionCancel, ActionEdit}},
	}
	for _, tc := range cases {
		b := newBooking(tc.status)
		got := AvailableActions(b, model.RoleAdmin, 1)
		for _, a := range tc.want {
			if !got[a] {
				t.Fatalf("status %s: admin should have %s, got %v", tc.status, a, ActionList(got))
			}
		}
		for _, a := range tc.notWant {
			if got[a] {
				t.Fatalf("status %s: admin should not have %s, got %v", tc.status, a, ActionList(got))
			}
		}
	}
}

func TestAvailableActionsOfficers(t *testing.T) {
	pending := newBooking(model.StatusPendingApproval)
	rec := AvailableActions(pending, model.RoleRecommendation, 9)
	if !rec[ActionRecommend] || !rec[ActionCancelRecommendation] {
		t.Fatalf("recommendation officer missing stage actions: %v", ActionList(rec))
	}
	if rec[ActionCancel] || rec[ActionEdit] || rec[ActionPermanentDelete] {
		t.Fatalf("recommendation officer must not get admin actions: %v", ActionList(rec))
	}

	recommended := newBooking(model.StatusRecommended)
	app := AvailableActions(recommended, model.RoleApproval, 11)
	if !app[ActionApprove] || !app[ActionCancelApproval] {
		t.Fatalf("approval officer missing stage actions: %v", ActionList(app))
	}
	// The recommendation officer delegates the approval stage via a
	// share link once the booking is recommended.
	recOnRecommended := AvailableActions(recommended, model.RoleRecommendation, 9)
	if !recOnRecommended[ActionGenerateShareLink] {
		t.Fatalf("recommendation officer should offer share link at recommended: %v", ActionList(recOnRecommended))
	}
	if recOnRecommended[ActionRecommend] {
		t.Fatalf("recommend must not be offered past pending_approval")
	}
}

func TestAvailableActionsAfterStageCancel(t *testing.T) {
	now := time.Now().UTC()
	b := newBooking(model.StatusPendingApproval)
	if err := CancelRecommendation(b, model.RoleRecommendation, 9, "Insufficient documentation provided", now); err != nil {
		t.Fatalf("cancel recommendation: %v", err)
	}

	rec := AvailableActions(b, model.RoleRecommendation, 9)
	if rec[ActionRecommend] || rec[ActionCancelRecommendation] {
		t.Fatalf("stage actions must vanish after a stage cancel: %v", ActionList(rec))
	}

	admin := AvailableActions(b, model.RoleAdmin, 1)
	if admin[ActionEdit] || admin[ActionCancel] {
		t.Fatalf("effectively cancelled booking must not be editable or cancellable: %v", ActionList(admin))
	}
	if !admin[ActionPermanentDelete] {
		t.Fatalf("admin should be able to permanently delete an effectively cancelled booking")
	}
}

func TestCreatorMayCancelOwnDraft(t *testing.T) {
	b := newBooking(model.StatusDraft) // CreatedBy 42
	got := AvailableActions(b, model.RoleRecommendation, 42)
	if !got[ActionCancel] {
		t.Fatalf("creator should be able to cancel their own draft: %v", ActionList(got))
	}
	other := AvailableActions(b, model.RoleRecommendation, 7)
	if other[ActionCancel] {
		t.Fatalf("non-creator officer must not cancel a draft: %v", ActionList(other))
	}
}

func TestActionListOrderStable(t *testing.T) {
	b := newBooking(model.StatusPendingApproval)
	got := ActionList(AvailableActions(b, model.RoleAdmin, 1))
	want := []Action{ActionView, ActionEdit, ActionCancel, ActionGenerateShareLink}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
