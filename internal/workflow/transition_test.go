package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hallbook/auditorium-booking/internal/model"
)

func newBooking(status model.BookingStatus) *model.Booking {
	return &model.Booking{
		ID:             1,
		Status:         status,
		Recommendation: model.StageRecord{Status: model.StagePending},
		Approval:       model.StageRecord{Status: model.StagePending},
		Amount:         decimal.RequireFromString("1500.00"),
		AuditoriumID:   7,
		StartsAt:       time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:         time.Date(2026, 10, 1, 17, 0, 0, 0, time.UTC),
		IsDraft:        status == model.StatusDraft,
		CreatedBy:      42,
	}
}

func TestFullWorkflowScenario(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	b := newBooking(model.StatusDraft)

	if err := Submit(b, model.RoleAdmin); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if b.Status != model.StatusPendingApproval || b.IsDraft {
		t.Fatalf("after submit: status=%s is_draft=%v", b.Status, b.IsDraft)
	}
	// Share links are offered to the admin only while the booking
	// awaits recommendation.
	if !AvailableActions(b, model.RoleAdmin, 42)[ActionGenerateShareLink] {
		t.Fatalf("expected generate_share_link during pending_approval")
	}

	if err := Recommend(b, model.RoleRecommendation, 9, now); err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if b.Status != model.StatusRecommended {
		t.Fatalf("after recommend: status=%s", b.Status)
	}
	if b.Recommendation.Status != model.StageCompleted || b.Recommendation.CompletedBy == nil || *b.Recommendation.CompletedBy != 9 {
		t.Fatalf("recommendation stage not completed: %+v", b.Recommendation)
	}
	if AvailableActions(b, model.RoleAdmin, 42)[ActionGenerateShareLink] {
		t.Fatalf("generate_share_link must disappear for admin after recommendation")
	}

	if err := Approve(b, model.RoleApproval, 11, now); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if b.Status != model.StatusApproved {
		t.Fatalf("after approve: status=%s", b.Status)
	}

	if err := RequestPayment(b, model.RoleAdmin); err != nil {
		t.Fatalf("request payment: %v", err)
	}
	if b.Status != model.StatusPaymentPending {
		t.Fatalf("after request payment: status=%s", b.Status)
	}

	pay := PaymentDetails{Method: "bank_transfer", TransactionDate: now}
	if err := ConfirmPayment(b, model.RoleAdmin, pay); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if b.Status != model.StatusPaymentConfirmed {
		t.Fatalf("after confirm payment: status=%s", b.Status)
	}
}

func TestForwardOnlyProgression(t *testing.T) {
	now := time.Now().UTC()
	b := newBooking(model.StatusDraft)
	prev, _ := Rank(b.Status)

	steps := []func() error{
		func() error { return Submit(b, model.RoleAdmin) },
		func() error { return Recommend(b, model.RoleRecommendation, 9, now) },
		func() error { return Approve(b, model.RoleApproval, 11, now) },
		func() error { return RequestPayment(b, model.RoleAdmin) },
		func() error {
			return ConfirmPayment(b, model.RoleAdmin, PaymentDetails{Method: "cash", TransactionDate: now})
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		rank, ok := Rank(b.Status)
		if !ok {
			t.Fatalf("step %d: status %s left the progression", i, b.Status)
		}
		if rank <= prev {
			t.Fatalf("step %d: rank went from %d to %d", i, prev, rank)
		}
		prev = rank
	}
}

func TestRecommendTwiceRejected(t *testing.T) {
	now := time.Now().UTC()
	b := newBooking(model.StatusPendingApproval)
	if err := Recommend(b, model.RoleRecommendation, 9, now); err != nil {
		t.Fatalf("first recommend: %v", err)
	}
	after := *b

	err := Recommend(b, model.RoleRecommendation, 9, now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second recommend: want ErrInvalidTransition, got %v", err)
	}
	if b.Status != after.Status || b.Recommendation != after.Recommendation {
		t.Fatalf("second recommend mutated state: %+v", b)
	}
	var rej *Rejection
	if !errors.As(err, &rej) || rej.State != model.StatusRecommended {
		t.Fatalf("rejection should carry actual state, got %+v", rej)
	}
}

func TestRoleEnforcement(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		name   string
		status model.BookingStatus
		run    func(b *model.Booking) error
	}{
		{"approve by recommendation role", model.StatusRecommended, func(b *model.Booking) error {
			return Approve(b, model.RoleRecommendation, 9, now)
		}},
		{"recommend by admin", model.StatusPendingApproval, func(b *model.Booking) error {
			return Recommend(b, model.RoleAdmin, 1, now)
		}},
		{"submit by approval role", model.StatusDraft, func(b *model.Booking) error {
			return Submit(b, model.RoleApproval)
		}},
		{"cancel by recommendation role", model.StatusApproved, func(b *model.Booking) error {
			return Cancel(b, model.RoleRecommendation, "a perfectly long reason", now)
		}},
	}
	for _, tc := range cases {
		b := newBooking(tc.status)
		if err := tc.run(b); !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s: want ErrForbidden, got %v", tc.name, err)
		}
		if b.Status != tc.status {
			t.Fatalf("%s: state mutated on forbidden call", tc.name)
		}
	}
}

func TestReasonLengthGuard(t *testing.T) {
	now := time.Now().UTC()
	short := "too short"                    // 9 chars
	padded := "   short   "                 // trims under the minimum
	for _, reason := range []string{short, padded, ""} {
		b := newBooking(model.StatusPendingApproval)
		err := CancelRecommendation(b, model.RoleRecommendation, 9, reason, now)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("reason %q: want ErrValidation, got %v", reason, err)
		}
		if b.Recommendation.Status != model.StagePending {
			t.Fatalf("reason %q: stage mutated on rejected cancel", reason)
		}
		var rej *Rejection
		if !errors.As(err, &rej) || rej.Field != "reason" {
			t.Fatalf("reason %q: rejection should name the field, got %+v", reason, rej)
		}
	}

	b := newBooking(model.StatusRecommended)
	if err := CancelApproval(b, model.RoleApproval, 9, "nope", now); !errors.Is(err, ErrValidation) {
		t.Fatalf("cancel approval short reason: got %v", err)
	}
	b = newBooking(model.StatusApproved)
	if err := Cancel(b, model.RoleAdmin, "nah", now); !errors.Is(err, ErrValidation) {
		t.Fatalf("admin cancel short reason: got %v", err)
	}
}

func TestStageLocalCancelKeepsTopLevelStatus(t *testing.T) {
	now := time.Now().UTC()

	b := newBooking(model.StatusPendingApproval)
	if err := CancelRecommendation(b, model.RoleRecommendation, 9, "Insufficient documentation provided", now); err != nil {
		t.Fatalf("cancel recommendation: %v", err)
	}
	if b.Status != model.StatusPendingApproval {
		t.Fatalf("top-level status changed: %s", b.Status)
	}
	if b.Recommendation.Status != model.StageCancelled {
		t.Fatalf("stage not cancelled: %+v", b.Recommendation)
	}
	if !ResolveCancellation(b).IsCancelled {
		t.Fatalf("resolver should see the stage cancel")
	}
	if ProjectDisplayStatus(b) != model.StatusCancelled {
		t.Fatalf("display status should be cancelled, got %s", ProjectDisplayStatus(b))
	}
	if AvailableActions(b, model.RoleRecommendation, 9)[ActionRecommend] {
		t.Fatalf("recommend must no longer be offered after a stage cancel")
	}
	// Forward progress is permanently blocked at the cancelled stage.
	if err := Recommend(b, model.RoleRecommendation, 9, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("recommend after stage cancel: want ErrInvalidTransition, got %v", err)
	}

	a := newBooking(model.StatusRecommended)
	if err := CancelApproval(a, model.RoleApproval, 11, "Schedule conflicts with maintenance", now); err != nil {
		t.Fatalf("cancel approval: %v", err)
	}
	if a.Status != model.StatusRecommended {
		t.Fatalf("top-level status changed: %s", a.Status)
	}
	if !ResolveCancellation(a).IsCancelled {
		t.Fatalf("resolver should see the approval stage cancel")
	}
}

func TestAdminCancelThenConfirmPaymentRejected(t *testing.T) {
	now := time.Now().UTC()
	b := newBooking(model.StatusPaymentPending)

	if err := Cancel(b, model.RoleAdmin, "Client withdrew request", now); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if b.Status != model.StatusCancelled {
		t.Fatalf("status after cancel: %s", b.Status)
	}
	if b.CancelledAt == nil || b.CancellationReason == nil || *b.CancellationReason != "Client withdrew request" {
		t.Fatalf("cancel metadata missing: %+v", b)
	}

	err := ConfirmPayment(b, model.RoleAdmin, PaymentDetails{Method: "bank_transfer", TransactionDate: now})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("confirm payment after cancel: want ErrInvalidTransition, got %v", err)
	}
}

func TestConfirmPaymentValidation(t *testing.T) {
	now := time.Now().UTC()

	b := newBooking(model.StatusPaymentPending)
	err := ConfirmPayment(b, model.RoleAdmin, PaymentDetails{TransactionDate: now})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("missing method: want ErrValidation, got %v", err)
	}
	var rej *Rejection
	if !errors.As(err, &rej) || rej.Field != "payment_method" {
		t.Fatalf("rejection should name payment_method, got %+v", rej)
	}

	err = ConfirmPayment(b, model.RoleAdmin, PaymentDetails{Method: "cash"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("missing date: want ErrValidation, got %v", err)
	}
	if b.Status != model.StatusPaymentPending {
		t.Fatalf("state mutated on rejected confirm")
	}
}

func TestCompleteRequiresPaidInvoice(t *testing.T) {
	b := newBooking(model.StatusPaymentConfirmed)

	if err := Complete(b, model.RoleAdmin, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("complete without invoice: got %v", err)
	}
	pending := &model.Invoice{BookingID: 1, Status: model.InvoicePending}
	if err := Complete(b, model.RoleAdmin, pending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("complete with pending invoice: got %v", err)
	}
	refunded := &model.Invoice{BookingID: 1, Status: model.InvoicePaid, Refund: &model.RefundDetails{}}
	if err := Complete(b, model.RoleAdmin, refunded); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("complete with open refund: got %v", err)
	}

	paid := &model.Invoice{BookingID: 1, Status: model.InvoicePaid}
	if err := Complete(b, model.RoleAdmin, paid); err != nil {
		t.Fatalf("complete with paid invoice: %v", err)
	}
	if b.Status != model.StatusCompleted {
		t.Fatalf("status after complete: %s", b.Status)
	}
}

func TestPermanentDeleteGuard(t *testing.T) {
	now := time.Now().UTC()

	live := newBooking(model.StatusApproved)
	if err := CheckPermanentDelete(live, model.RoleAdmin); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("delete of live booking: got %v", err)
	}

	cancelled := newBooking(model.StatusCancelled)
	if err := CheckPermanentDelete(cancelled, model.RoleAdmin); err != nil {
		t.Fatalf("delete of cancelled booking: %v", err)
	}
	if err := CheckPermanentDelete(cancelled, model.RoleRecommendation); !errors.Is(err, ErrForbidden) {
		t.Fatalf("delete by officer: got %v", err)
	}

	// Stage-local cancel also unlocks permanent delete.
	staged := newBooking(model.StatusPendingApproval)
	if err := CancelRecommendation(staged, model.RoleRecommendation, 9, "Venue unavailable that week", now); err != nil {
		t.Fatalf("cancel recommendation: %v", err)
	}
	if err := CheckPermanentDelete(staged, model.RoleAdmin); err != nil {
		t.Fatalf("delete of stage-cancelled booking: %v", err)
	}
}

func TestCanTransitionGraph(t *testing.T) {
	cases := []struct {
		from, to model.BookingStatus
		want     bool
	}{
		{model.StatusDraft, model.StatusPendingApproval, true},
		{model.StatusDraft, model.StatusCancelled, true},
		{model.StatusDraft, model.StatusRecommended, false},
		{model.StatusPaymentPending, model.StatusCancelled, true},
		{model.StatusPaymentConfirmed, model.StatusCancelled, false},
		{model.StatusPaymentConfirmed, model.StatusCompleted, true},
		{model.StatusCancelled, model.StatusDraft, false},
		{model.StatusCompleted, model.StatusDraft, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
