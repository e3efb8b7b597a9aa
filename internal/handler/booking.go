package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hallbook/auditorium-booking/internal/config"
	"github.com/hallbook/auditorium-booking/internal/model"
	"github.com/hallbook/auditorium-booking/internal/repository"
	"github.com/hallbook/auditorium-booking/internal/workflow"
)

// BookingHandler implements the admin-facing booking lifecycle: create
// and edit drafts, submit into the approval pipeline, cancel, and
// permanently delete.  Workflow decisions are made by the workflow
// package; this layer only loads state, runs the engine and persists
// the outcome under the optimistic guard.
type BookingHandler struct {
	Cfg      config.Config
	Bookings *repository.BookingRepo
	Invoices *repository.InvoiceRepo
	Links    *repository.ShareLinkRepo
}

func NewBookingHandler(cfg config.Config, b *repository.BookingRepo, i *repository.InvoiceRepo, l *repository.ShareLinkRepo) *BookingHandler {
	return &BookingHandler{Cfg: cfg, Bookings: b, Invoices: i, Links: l}
}

type bookingReq struct {
	Amount               string `json:"amount"`
	AuditoriumID         uint64 `json:"auditorium_id"`
	StartsAt             string `json:"starts_at"` // RFC3339
	EndsAt               string `json:"ends_at"`   // RFC3339
	AttendingPeopleCount uint32 `json:"attending_people_count"`
	Purpose              string `json:"purpose"`
	ContactName          string `json:"contact_name"`
	ContactPhone         string `json:"contact_phone"`
	Organization         string `json:"organization"`
	Draft                *bool  `json:"draft"` // default true
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// applyTo validates the request payload and copies it onto a booking.
func (req *bookingReq) applyTo(b *model.Booking) *echo.Map {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || amount.IsNegative() {
		return &echo.Map{"error": "validation_failure", "detail": "amount must be a non-negative decimal"}
	}
	starts, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return &echo.Map{"error": "validation_failure", "detail": "starts_at must be RFC3339"}
	}
	ends, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return &echo.Map{"error": "validation_failure", "detail": "ends_at must be RFC3339"}
	}
	if !ends.After(starts) {
		return &echo.Map{"error": "validation_failure", "detail": "ends_at must be after starts_at"}
	}
	if req.AuditoriumID == 0 {
		return &echo.Map{"error": "validation_failure", "detail": "auditorium_id required"}
	}
	if req.AttendingPeopleCount == 0 {
		return &echo.Map{"error": "validation_failure", "detail": "attending_people_count required"}
	}
	if strings.TrimSpace(req.ContactName) == "" {
		return &echo.Map{"error": "validation_failure", "detail": "contact_name required"}
	}
	b.Amount = amount
	b.AuditoriumID = req.AuditoriumID
	b.StartsAt = starts.UTC()
	b.EndsAt = ends.UTC()
	b.AttendingPeopleCount = req.AttendingPeopleCount
	b.Purpose = strings.TrimSpace(req.Purpose)
	b.ContactName = strings.TrimSpace(req.ContactName)
	b.ContactPhone = strings.TrimSpace(req.ContactPhone)
	b.Organization = strings.TrimSpace(req.Organization)
	return nil
}

func bookingIDParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

// Create inserts a new booking, as a draft by default.  With
// draft=false the booking is submitted in the same request.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	b := &model.Booking{
		Status:         model.StatusDraft,
		IsDraft:        true,
		CreatedBy:      uid,
		Recommendation: model.StageRecord{Status: model.StagePending},
		Approval:       model.StageRecord{Status: model.StagePending},
	}
	if bad := req.applyTo(b); bad != nil {
		return c.JSON(http.StatusBadRequest, *bad)
	}
	if req.Draft != nil && !*req.Draft {
		if err := workflow.Submit(b, role); err != nil {
			return respondWorkflowErr(c, err)
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Bookings.Create(ctx, b); err != nil {
		return respondWorkflowErr(c, err)
	}
	if b.Status != model.StatusDraft {
		publishTransition("submit", b, role, uid, model.StatusDraft)
	}
	return c.JSON(http.StatusCreated, viewOf(b, role, uid))
}

// List returns all bookings, optionally filtered on the derived display
// status via ?status=.  Filtering happens after projection so a
// stage-local-cancelled booking shows up under cancelled and nowhere
// else.
func (h *BookingHandler) List(c echo.Context) error {
	uid, _ := getUserID(c)
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var filter model.BookingStatus
	if s := c.QueryParam("status"); s != "" {
		filter = model.BookingStatus(s)
		if !filter.Valid() || filter == model.StatusCompleted {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "unknown status filter"})
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	all, err := h.Bookings.List(ctx)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	out := make([]bookingView, 0, len(all))
	for i := range all {
		b := &all[i]
		if filter != "" && workflow.ProjectDisplayStatus(b) != filter {
			continue
		}
		out = append(out, viewOf(b, role, uid))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out, "count": len(out)})
}

// Get returns one booking with its derived view.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, _ := getUserID(c)
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "invalid booking id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(b, role, uid))
}

// Update edits the descriptive payload of a booking.  Editing is only
// eligible while the booking is a draft or pending approval and not
// effectively cancelled; the write itself is guarded on the status the
// eligibility check saw.
func (h *BookingHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "invalid booking id"})
	}

	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	if !workflow.AvailableActions(b, role, uid)[workflow.ActionEdit] {
		return respondWorkflowErr(c, &workflow.Rejection{
			Op: "edit", State: b.Status, Kind: workflow.ErrInvalidTransition,
			Msg: "booking is no longer editable",
		})
	}
	expected := b.Status
	if bad := req.applyTo(b); bad != nil {
		return c.JSON(http.StatusBadRequest, *bad)
	}
	if err := h.Bookings.UpdateDetails(ctx, b, expected); err != nil {
		return respondWorkflowErr(c, err)
	}
	b, err = h.Bookings.GetByID(ctx, id)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(b, role, uid))
}

// Submit moves a draft into pending_approval.
func (h *BookingHandler) Submit(c echo.Context) error {
	return h.transition(c, "submit", func(b *model.Booking, role model.Role, uid uint64) error {
		return workflow.Submit(b, role)
	}, nil)
}

// Cancel is the admin-level cancel.  Open invoices of the booking are
// cancelled in the same transaction and outstanding share links are
// removed.
func (h *BookingHandler) Cancel(c echo.Context) error {
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	now := time.Now().UTC()
	return h.transition(c, "cancel", func(b *model.Booking, role model.Role, uid uint64) error {
		return workflow.Cancel(b, role, req.Reason, now)
	}, h.cleanupOnCancel)
}

func (h *BookingHandler) cleanupOnCancel(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if err := h.Invoices.CancelByBookingTx(ctx, tx, b.ID); err != nil {
		return err
	}
	return h.Links.DeleteForBookingTx(ctx, tx, b.ID)
}

// PermanentDelete removes a booking record for good.  Only effectively
// cancelled bookings qualify; share links and invoice rows go with it.
func (h *BookingHandler) PermanentDelete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "invalid booking id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetByIDTx(ctx, tx, id)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	if err := workflow.CheckPermanentDelete(b, role); err != nil {
		return respondWorkflowErr(c, err)
	}
	if err := h.Links.DeleteForBookingTx(ctx, tx, b.ID); err != nil {
		return respondWorkflowErr(c, err)
	}
	if err := h.Bookings.DeleteTx(ctx, tx, b.ID); err != nil {
		return respondWorkflowErr(c, err)
	}
	if err := tx.Commit(); err != nil {
		return respondWorkflowErr(c, err)
	}
	committed = true
	publishTransition("permanent_delete", b, role, uid, b.Status)
	return c.NoContent(http.StatusNoContent)
}

func (h *BookingHandler) transition(
	c echo.Context,
	op string,
	apply func(b *model.Booking, role model.Role, uid uint64) error,
	cleanup func(ctx context.Context, tx *sql.Tx, b *model.Booking) error,
) error {
	return runTransition(c, h.Bookings, op, apply, cleanup)
}
