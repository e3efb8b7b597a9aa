// Package handler defines the HTTP handlers of the booking API.
package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hallbook/auditorium-booking/internal/model"
	"github.com/hallbook/auditorium-booking/internal/queue"
	"github.com/hallbook/auditorium-booking/internal/repository"
	queuepub "github.com/hallbook/auditorium-booking/internal/service"
	"github.com/hallbook/auditorium-booking/internal/workflow"
)

// getUserID extracts the user_id stored by JWTAuth and converts it to
// uint64.  JWT numeric claims arrive as float64 after JSON decoding.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the workflow role stored by JWTAuth.
func getRole(c echo.Context) (model.Role, error) {
	if s, ok := c.Get("role").(string); ok {
		r := model.Role(s)
		if r.Valid() {
			return r, nil
		}
	}
	return "", errors.New("invalid role in context")
}

// reqCtx returns a request-scoped context with the standard DB timeout.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// respondWorkflowErr maps the workflow error kinds onto HTTP responses.
// The mapping is fixed across every endpoint:
//
//	validation failure → 400, forbidden → 403, not found → 404,
//	invalid transition / conflict → 409, expired → 410.
//
// Anything else is an internal error.
func respondWorkflowErr(c echo.Context, err error) error {
	var rej *workflow.Rejection
	detail := err.Error()
	if errors.As(err, &rej) {
		detail = rej.Error()
	}
	switch {
	case errors.Is(err, workflow.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": detail})
	case errors.Is(err, workflow.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "detail": detail})
	case errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrInvoiceNotFound),
		errors.Is(err, repository.ErrShareLinkNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "detail": detail})
	case errors.Is(err, workflow.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "detail": detail})
	case errors.Is(err, workflow.ErrConflict), errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "detail": "state changed concurrently, reload and retry"})
	case errors.Is(err, workflow.ErrExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "expired", "detail": detail})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal"})
}

// bookingView is the booking representation every endpoint returns: the
// raw record plus the derived display status, badge style, cancellation
// verdict and the viewer's eligible actions.
type bookingView struct {
	Booking          *model.Booking        `json:"booking"`
	DisplayStatus    model.BookingStatus   `json:"display_status"`
	Style            workflow.StatusStyle  `json:"style"`
	Cancellation     workflow.Cancellation `json:"cancellation"`
	AvailableActions []workflow.Action     `json:"available_actions"`
}

func viewOf(b *model.Booking, viewer model.Role, viewerID uint64) bookingView {
	display := workflow.ProjectDisplayStatus(b)
	return bookingView{
		Booking:          b,
		DisplayStatus:    display,
		Style:            workflow.StyleFor(display),
		Cancellation:     workflow.ResolveCancellation(b),
		AvailableActions: workflow.ActionList(workflow.AvailableActions(b, viewer, viewerID)),
	}
}

// runTransition is the load / engine / guarded-save cycle every
// session-authenticated workflow operation goes through.  It loads the
// booking inside a transaction, snapshots the observed state, applies
// the engine function, saves under the optimistic guard, runs the
// optional cleanup in the same transaction and publishes the event only
// after commit.
func runTransition(
	c echo.Context,
	bookings *repository.BookingRepo,
	op string,
	apply func(b *model.Booking, role model.Role, uid uint64) error,
	cleanup func(ctx context.Context, tx *sql.Tx, b *model.Booking) error,
) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "invalid booking id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tx, err := bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := bookings.GetByIDTx(ctx, tx, id)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	expected := repository.Snapshot(b)
	from := b.Status
	if err := apply(b, role, uid); err != nil {
		return respondWorkflowErr(c, err)
	}
	if err := bookings.SaveWorkflowTx(ctx, tx, b, expected); err != nil {
		return respondWorkflowErr(c, err)
	}
	if cleanup != nil {
		if err := cleanup(ctx, tx, b); err != nil {
			return respondWorkflowErr(c, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return respondWorkflowErr(c, err)
	}
	committed = true
	publishTransition(op, b, role, uid, from)
	return c.JSON(http.StatusOK, viewOf(b, role, uid))
}

// publishTransition emits a workflow event after a committed transition.
// Delivery is best-effort: the broker being down never fails a request.
func publishTransition(op string, b *model.Booking, actor model.Role, actorID uint64, from model.BookingStatus) {
	ev := queue.BookingWorkflowEvent{
		Type:       op,
		BookingID:  b.ID,
		ActorRole:  actor,
		ActorID:    actorID,
		From:       from,
		To:         b.Status,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queuepub.PublishWorkflowEvent(ctx, ev)
	}()
}
