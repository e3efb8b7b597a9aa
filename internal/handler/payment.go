package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hallbook/auditorium-booking/internal/config"
	"github.com/hallbook/auditorium-booking/internal/model"
	"github.com/hallbook/auditorium-booking/internal/repository"
	"github.com/hallbook/auditorium-booking/internal/workflow"
)

// PaymentHandler owns the payment leg of the booking lifecycle and the
// invoice endpoints.  RequestPayment issues the invoice, ConfirmPayment
// flips both the booking and the invoice in one transaction, Complete
// closes the booking out once the invoice is settled.
type PaymentHandler struct {
	Cfg      config.Config
	Bookings *repository.BookingRepo
	Invoices *repository.InvoiceRepo
}

func NewPaymentHandler(cfg config.Config, b *repository.BookingRepo, i *repository.InvoiceRepo) *PaymentHandler {
	return &PaymentHandler{Cfg: cfg, Bookings: b, Invoices: i}
}

type confirmPaymentReq struct {
	Method          string `json:"payment_method"`
	TransactionDate string `json:"transaction_date"` // RFC3339
	Reference       string `json:"reference"`
}

type extraChargeReq struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type refundReq struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

type invoiceResp struct {
	Invoice      *model.Invoice      `json:"invoice"`
	FinalAmount  decimal.Decimal     `json:"final_amount"`
	ExtraCharges []model.ExtraCharge `json:"extra_charges"`
}

// RequestPayment moves an approved booking into payment_pending and
// issues its pending invoice over the booking amount, due after the
// configured number of days.
func (h *PaymentHandler) RequestPayment(c echo.Context) error {
	return runTransition(c, h.Bookings, "request_payment",
		func(b *model.Booking, role model.Role, uid uint64) error {
			return workflow.RequestPayment(b, role)
		},
		func(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
			due := time.Now().UTC().AddDate(0, 0, h.Cfg.InvoiceDueDays)
			inv := &model.Invoice{
				BookingID: b.ID,
				Status:    model.InvoicePending,
				Amount:    b.Amount,
				DueDate:   &due,
			}
			return h.Invoices.CreateTx(ctx, tx, inv)
		})
}

// ConfirmPayment records payment details, advances the booking to
// payment_confirmed and marks the invoice paid – all in one
// transaction, so the booking can never be confirmed against an unpaid
// invoice.
func (h *PaymentHandler) ConfirmPayment(c echo.Context) error {
	var req confirmPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	pay := workflow.PaymentDetails{
		Method:    strings.TrimSpace(req.Method),
		Reference: strings.TrimSpace(req.Reference),
	}
	if req.TransactionDate != "" {
		t, err := time.Parse(time.RFC3339, req.TransactionDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "transaction_date must be RFC3339"})
		}
		pay.TransactionDate = t.UTC()
	}
	return runTransition(c, h.Bookings, "confirm_payment",
		func(b *model.Booking, role model.Role, uid uint64) error {
			return workflow.ConfirmPayment(b, role, pay)
		},
		func(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
			inv, err := h.Invoices.GetByBookingIDTx(ctx, tx, b.ID)
			if err != nil {
				return err
			}
			return h.Invoices.MarkPaidTx(ctx, tx, inv.ID, pay.Method, pay.TransactionDate)
		})
}

// Complete closes out a confirmed booking after the event took place.
// Booking and invoice are read in the same transaction the guarded save
// runs in, so the invoice the engine judges is the one the write is
// based on.
func (h *PaymentHandler) Complete(c echo.Context) error {
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
	inv, err := h.Invoices.GetByBookingIDTx(ctx, tx, b.ID)
	if err != nil && err != repository.ErrInvoiceNotFound {
		return respondWorkflowErr(c, err)
	}
	expected := repository.Snapshot(b)
	from := b.Status
	if err := workflow.Complete(b, role, inv); err != nil {
		return respondWorkflowErr(c, err)
	}
	if err := h.Bookings.SaveWorkflowTx(ctx, tx, b, expected); err != nil {
		return respondWorkflowErr(c, err)
	}
	if err := tx.Commit(); err != nil {
		return respondWorkflowErr(c, err)
	}
	committed = true
	publishTransition("complete", b, role, uid, from)
	return c.JSON(http.StatusOK, viewOf(b, role, uid))
}

// GetInvoice returns a booking's invoice with its charge lines and the
// final amount owed.
func (h *PaymentHandler) GetInvoice(c echo.Context) error {
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "invalid booking id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := h.Invoices.GetByBookingID(ctx, id)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	charges, err := h.Invoices.ListExtraCharges(ctx, inv.ID)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	return c.JSON(http.StatusOK, invoiceResp{Invoice: inv, FinalAmount: inv.FinalAmount(), ExtraCharges: charges})
}

// AddExtraCharge appends a charge line to a still-payable invoice.
func (h *PaymentHandler) AddExtraCharge(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "invalid booking id"})
	}
	var req extraChargeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "amount must be a positive decimal"})
	}
	if strings.TrimSpace(req.Description) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "description required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := h.Invoices.GetByBookingID(ctx, id)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	charge := &model.ExtraCharge{
		InvoiceID:   inv.ID,
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
		AddedBy:     uid,
	}
	if err := h.Invoices.AddExtraCharge(ctx, charge); err != nil {
		return respondWorkflowErr(c, err)
	}
	return h.GetInvoice(c)
}

// Refund records a refund against a paid invoice.  The booking itself
// stays payment_confirmed; an invoice with an open refund merely blocks
// completion.
func (h *PaymentHandler) Refund(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "invalid booking id"})
	}
	var req refundReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "amount must be a positive decimal"})
	}
	if strings.TrimSpace(req.Reason) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "reason required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := h.Invoices.GetByBookingID(ctx, id)
	if err != nil {
		return respondWorkflowErr(c, err)
	}
	if amount.GreaterThan(inv.FinalAmount()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failure", "detail": "refund exceeds final amount"})
	}
	refund := model.RefundDetails{
		Amount:     amount,
		Reason:     strings.TrimSpace(req.Reason),
		RefundedBy: uid,
		RefundedAt: time.Now().UTC(),
	}
	if err := h.Invoices.Refund(ctx, inv.ID, refund); err != nil {
		return respondWorkflowErr(c, err)
	}
	return h.GetInvoice(c)
}
