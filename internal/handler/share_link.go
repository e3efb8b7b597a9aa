package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hallbook/auditorium-booking/internal/config"
	"github.com/hallbook/auditorium-booking/internal/model"
	"github.com/hallbook/auditorium-booking/internal/repository"
	"github.com/hallbook/auditorium-booking/internal/workflow"
)

// ShareLinkHandler issues and resolves share links.  A link delegates
// exactly the next review action on one booking to whoever holds the
// token, without an account.  Resolution is where expiry and stage fit
// are enforced; issuing never blocks on either.
type ShareLinkHandler struct {
	Cfg      config.Config
	Bookings *repository.BookingRepo
	Links    *repository.ShareLinkRepo
}

func NewShareLinkHandler(cfg config.Config, b *repository.BookingRepo, l *repository.ShareLinkRepo) *ShareLinkHandler {
	return &ShareLinkHandler{Cfg: cfg, Bookings: b, Links: l}
}

// stageRole maps a link's stage to the role its actions run under.
func stageRole(stage model.Stage) model.Role {
	if stage == model.StageApproval {
		return model.RoleApproval
	}
	return model.RoleRecommendation
}

// Generate issues a share link for the next pending stage of a booking.
// Eligibility follows the action table: an admin may delegate the
// recommendation stage while the booking is pending approval, the
// recommendation officer may delegate the approval stage once the
// booking is recommended.
func (h *ShareLinkHandler) Generate(c echo.Context) error {
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

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	if !workflow.AvailableActions(b, role, uid)[workflow.ActionGenerateShareLink] {
		return respondWorkflowErr(c, &workflow.Rejection{
			Op: "generate_share_link", State: b.Status, Kind: workflow.ErrForbidden,
			Msg: "no delegable stage for this viewer",
		})
	}

	stage := model.StageRecommendation
	if b.Status == model.StatusRecommended {
		stage = model.StageApproval
	}
	link, err := h.Links.Issue(ctx, b.ID, stage, h.Cfg.ShareLinkTTL)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"share_link": link})
}

// resolve loads a link by token and enforces expiry and stage fit.  A
// token that was never issued is a 404; an issued token whose time has
// passed, or whose booking has moved on, is a 410.
func (h *ShareLinkHandler) resolve(c echo.Context) (*model.ShareLink, *model.Booking, error) {
	token := c.Param("token")
	if token == "" {
		return nil, nil, &workflow.Rejection{Op: "resolve_share_link", Kind: workflow.ErrNotFound}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	link, err := h.Links.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if time.Now().UTC().After(link.ExpiresAt) {
		return nil, nil, &workflow.Rejection{
			Op: "resolve_share_link", Kind: workflow.ErrExpired, Msg: "share link has expired"}
	}
	b, err := h.Bookings.GetByID(ctx, link.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if b.Status != link.ExpectedStatus() {
		return nil, nil, &workflow.Rejection{
			Op: "resolve_share_link", State: b.Status, Kind: workflow.ErrExpired,
			Msg: "booking has moved past the delegated stage"}
	}
	return link, b, nil
}

// Resolve returns the booking a valid link points at, viewed as the
// stage's role.  This is what the external reviewer's page renders.
func (h *ShareLinkHandler) Resolve(c echo.Context) error {
	link, b, err := h.resolve(c)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"stage":      link.Stage,
		"expires_at": link.ExpiresAt,
		"booking":    viewOf(b, stageRole(link.Stage), 0),
	})
}

// CompleteStage performs the link's delegated positive action:
// recommend for a recommendation link, approve for an approval link.
// The stage record carries no user id for share-link decisions.
func (h *ShareLinkHandler) CompleteStage(c echo.Context) error {
	return h.decide(c, "complete", func(b *model.Booking, role model.Role, now time.Time) error {
		if role == model.RoleApproval {
			return workflow.Approve(b, role, 0, now)
		}
		return workflow.Recommend(b, role, 0, now)
	})
}

// CancelStage performs the link's delegated stage-local cancel.
func (h *ShareLinkHandler) CancelStage(c echo.Context) error {
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return h.decide(c, "cancel", func(b *model.Booking, role model.Role, now time.Time) error {
		if role == model.RoleApproval {
			return workflow.CancelApproval(b, role, 0, req.Reason, now)
		}
		return workflow.CancelRecommendation(b, role, 0, req.Reason, now)
	})
}

// decide is the share-link variant of the transition cycle: resolve the
// token, re-load the booking inside a transaction, apply the engine
// under the stage's role and save with the optimistic guard.  The used
// link is deleted in the same transaction – a share link is single-use.
func (h *ShareLinkHandler) decide(c echo.Context, op string, apply func(b *model.Booking, role model.Role, now time.Time) error) error {
	link, _, err := h.resolve(c)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	role := stageRole(link.Stage)

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

	b, err := h.Bookings.GetByIDTx(ctx, tx, link.BookingID)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	// The booking may have moved between resolution and now; the guard
	// below catches concurrent movement, this catches anything earlier.
	if b.Status != link.ExpectedStatus() {
		return respondWorkflowErr(c, &workflow.Rejection{
			Op: op, State: b.Status, Kind: workflow.ErrExpired,
			Msg: "booking has moved past the delegated stage"})
	}
	expected := repository.Snapshot(b)
	from := b.Status
	if err := apply(b, role, time.Now().UTC()); err != nil {
		return respondWorkflowErr(c, err)
	}
	if err := h.Bookings.SaveWorkflowTx(ctx, tx, b, expected); err != nil {
		return respondWorkflowErr(c, err)
	}
	if err := h.Links.DeleteForBookingTx(ctx, tx, b.ID); err != nil {
		return respondWorkflowErr(c, err)
	}
	if err := tx.Commit(); err != nil {
		return respondWorkflowErr(c, err)
	}
	committed = true
	publishTransition(op+"_via_share_link", b, role, 0, from)
	return c.JSON(http.StatusOK, viewOf(b, role, 0))
}
