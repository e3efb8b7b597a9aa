package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hallbook/auditorium-booking/internal/model"
	"github.com/hallbook/auditorium-booking/internal/repository"
	"github.com/hallbook/auditorium-booking/internal/workflow"
)

// ReviewHandler exposes the two review stages to their officer roles:
// recommend / cancel-recommendation for the recommendation officer and
// approve / cancel-approval for the approval officer.  All four go
// through the shared transition cycle, so a lost race against another
// reviewer surfaces as a 409 instead of a double decision.
type ReviewHandler struct {
	Bookings *repository.BookingRepo
}

func NewReviewHandler(b *repository.BookingRepo) *ReviewHandler {
	return &ReviewHandler{Bookings: b}
}

// Recommend completes the recommendation stage.
func (h *ReviewHandler) Recommend(c echo.Context) error {
	now := time.Now().UTC()
	return runTransition(c, h.Bookings, "recommend", func(b *model.Booking, role model.Role, uid uint64) error {
		return workflow.Recommend(b, role, uid, now)
	}, nil)
}

// CancelRecommendation records a stage-local cancel at the
// recommendation stage.  The top-level status stays pending_approval.
func (h *ReviewHandler) CancelRecommendation(c echo.Context) error {
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	now := time.Now().UTC()
	return runTransition(c, h.Bookings, "cancel_recommendation", func(b *model.Booking, role model.Role, uid uint64) error {
		return workflow.CancelRecommendation(b, role, uid, req.Reason, now)
	}, nil)
}

// Approve completes the approval stage.
func (h *ReviewHandler) Approve(c echo.Context) error {
	now := time.Now().UTC()
	return runTransition(c, h.Bookings, "approve", func(b *model.Booking, role model.Role, uid uint64) error {
		return workflow.Approve(b, role, uid, now)
	}, nil)
}

// CancelApproval records a stage-local cancel at the approval stage.
func (h *ReviewHandler) CancelApproval(c echo.Context) error {
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	now := time.Now().UTC()
	return runTransition(c, h.Bookings, "cancel_approval", func(b *model.Booking, role model.Role, uid uint64) error {
		return workflow.CancelApproval(b, role, uid, req.Reason, now)
	}, nil)
}
