package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBookingStatusValid(t *testing.T) {
	valid := []BookingStatus{
		StatusDraft, StatusPendingApproval, StatusRecommended, StatusApproved,
		StatusPaymentPending, StatusPaymentConfirmed, StatusCompleted, StatusCancelled,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Fatalf("status %q should be valid", s)
		}
	}
	for _, s := range []BookingStatus{"", "DRAFT", "pending", "deleted"} {
		if s.Valid() {
			t.Fatalf("status %q should be invalid", s)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleRecommendation, RoleApproval} {
		if !r.Valid() {
			t.Fatalf("role %q should be valid", r)
		}
	}
	for _, r := range []Role{"", "admin", "OWNER", "CUSTOMER"} {
		if r.Valid() {
			t.Fatalf("role %q should be invalid", r)
		}
	}
}

func TestShareLinkExpectedStatus(t *testing.T) {
	rec := ShareLink{Stage: StageRecommendation}
	if got := rec.ExpectedStatus(); got != StatusPendingApproval {
		t.Fatalf("recommendation link expects %q, got %q", StatusPendingApproval, got)
	}
	app := ShareLink{Stage: StageApproval}
	if got := app.ExpectedStatus(); got != StatusRecommended {
		t.Fatalf("approval link expects %q, got %q", StatusRecommended, got)
	}
}

func TestInvoiceFinalAmount(t *testing.T) {
	inv := Invoice{
		Amount:            decimal.RequireFromString("1500.00"),
		TotalExtraCharges: decimal.RequireFromString("250.50"),
	}
	want := decimal.RequireFromString("1750.50")
	if got := inv.FinalAmount(); !got.Equal(want) {
		t.Fatalf("final amount = %s, want %s", got, want)
	}
}
