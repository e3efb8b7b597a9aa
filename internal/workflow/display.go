package workflow

import "github.com/hallbook/auditorium-booking/internal/model"

// ProjectDisplayStatus derives the single presentation-facing status
// for a booking.  All three cancellation causes collapse into one
// cancelled bucket, and the two terminal-success states collapse into
// payment_confirmed.  Every view and every aggregation must group on
// this projection rather than on the raw status – grouping on raw
// status alone misses stage-local-cancel bookings, which keep a
// non-cancelled top-level status.
func ProjectDisplayStatus(b *model.Booking) model.BookingStatus {
    if ResolveCancellation(b).IsCancelled {
        return model.StatusCancelled
    }
    if b.Status == model.StatusCompleted {
        return model.StatusPaymentConfirmed
    }
    return b.Status
}

// StatusStyle is the presentation metadata attached to a display
// status: the badge label, icon class and color token used uniformly
// by every client view.
type StatusStyle struct {
    Label string `json:"label"`
    Icon  string `json:"icon"`
    Color string `json:"color"`
}

var statusStyles = map[model.BookingStatus]StatusStyle{
    model.StatusDraft:            {Label: "Draft", Icon: "fa-file-pen", Color: "slate"},
    model.StatusPendingApproval:  {Label: "Pending Approval", Icon: "fa-hourglass-half", Color: "amber"},
    model.StatusRecommended:      {Label: "Recommended", Icon: "fa-thumbs-up", Color: "sky"},
    model.StatusApproved:         {Label: "Approved", Icon: "fa-circle-check", Color: "indigo"},
    model.StatusPaymentPending:   {Label: "Payment Pending", Icon: "fa-money-bill-wave", Color: "orange"},
    model.StatusPaymentConfirmed: {Label: "Completed", Icon: "fa-flag-checkered", Color: "green"},
    model.StatusCancelled:        {Label: "Cancelled", Icon: "fa-ban", Color: "red"},
}

// StyleFor returns the badge style for a display status.  Raw statuses
// that never appear as display values (completed) fall back to their
// projected bucket.
func StyleFor(s model.BookingStatus) StatusStyle {
    if s == model.StatusCompleted {
        s = model.StatusPaymentConfirmed
    }
    return statusStyles[s]
}
