package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hallbook/auditorium-booking/internal/model"
	"github.com/hallbook/auditorium-booking/internal/repository"
	"github.com/hallbook/auditorium-booking/internal/workflow"
)

// ReportHandler serves the dashboard aggregations.  Every count groups
// on the projected display status, never the raw one – the raw status
// would file stage-local-cancelled bookings under pending_approval or
// recommended and the cancelled bucket would undercount.
type ReportHandler struct {
	Bookings *repository.BookingRepo
	Invoices *repository.InvoiceRepo
}

func NewReportHandler(b *repository.BookingRepo, i *repository.InvoiceRepo) *ReportHandler {
	return &ReportHandler{Bookings: b, Invoices: i}
}

// statusBucket is one row of the status distribution.
type statusBucket struct {
	Status model.BookingStatus  `json:"status"`
	Style  workflow.StatusStyle `json:"style"`
	Count  int                  `json:"count"`
}

// displayOrder fixes the bucket order of every distribution response.
var displayOrder = []model.BookingStatus{
	model.StatusDraft, model.StatusPendingApproval, model.StatusRecommended,
	model.StatusApproved, model.StatusPaymentPending, model.StatusPaymentConfirmed,
	model.StatusCancelled,
}

// Dashboard returns the booking counts per display status plus revenue
// figures from paid invoices.
func (h *ReportHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	all, err := h.Bookings.List(ctx)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	counts := make(map[model.BookingStatus]int, len(displayOrder))
	for i := range all {
		counts[workflow.ProjectDisplayStatus(&all[i])]++
	}
	buckets := make([]statusBucket, 0, len(displayOrder))
	for _, s := range displayOrder {
		buckets = append(buckets, statusBucket{Status: s, Style: workflow.StyleFor(s), Count: counts[s]})
	}

	paidCount, paidTotal, err := h.Invoices.PaidTotals(ctx)
	if err != nil {
		return respondWorkflowErr(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_bookings": len(all),
		"distribution":   buckets,
		"revenue": echo.Map{
			"paid_invoices": paidCount,
			"total":         paidTotal,
		},
	})
}

// StatusDistribution returns only the per-status counts, for the badge
// strip above the booking list.
func (h *ReportHandler) StatusDistribution(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	all, err := h.Bookings.List(ctx)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	counts := make(map[model.BookingStatus]int, len(displayOrder))
	for i := range all {
		counts[workflow.ProjectDisplayStatus(&all[i])]++
	}
	buckets := make([]statusBucket, 0, len(displayOrder))
	for _, s := range displayOrder {
		buckets = append(buckets, statusBucket{Status: s, Style: workflow.StyleFor(s), Count: counts[s]})
	}
	return c.JSON(http.StatusOK, echo.Map{"distribution": buckets})
}
