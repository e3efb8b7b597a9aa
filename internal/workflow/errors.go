// Package workflow implements the booking approval state machine: the
// legal transitions and their guards, the cancellation resolver, the
// display status projector and the action eligibility rules.  Every
// function here is pure – it takes the booking and the acting role
// explicitly and touches no storage, clock (callers pass now) or
// session state – so all of it is unit-testable in isolation from any
// HTTP or persistence concern.
package workflow

import (
    "errors"
    "fmt"

    "github.com/hallbook/auditorium-booking/internal/model"
)

// Sentinel error kinds.  Handlers match these with errors.Is to pick a
// status code and message; the wrapping Rejection carries the detail
// (operation, current state, offending field) needed for a precise
// response.
var (
    // ErrInvalidTransition means the operation was attempted from a
    // state that does not permit it.  Never retried automatically.
    ErrInvalidTransition = errors.New("invalid transition")

    // ErrForbidden means the acting role lacks permission for the
    // operation regardless of booking state.
    ErrForbidden = errors.New("forbidden")

    // ErrValidation means a required input is missing or malformed,
    // e.g. a cancellation reason under the minimum length.
    ErrValidation = errors.New("validation failure")

    // ErrConflict means an optimistic state-guarded write lost a race:
    // the persisted state changed since the caller observed it.  The
    // caller should re-fetch and re-evaluate, not blindly retry.
    ErrConflict = errors.New("conflict")

    // ErrNotFound means a booking, invoice or share link id did not
    // resolve.
    ErrNotFound = errors.New("not found")

    // ErrExpired means a share link resolved but is past its expiry,
    // or the booking has moved away from the stage the link expects.
    ErrExpired = errors.New("expired")
)

// Rejection is the typed failure returned by every refused operation.
// It wraps one of the sentinel kinds above and records enough context
// for the caller to render an exact message.  State is the booking's
// actual current status at the time of refusal; Field is set only for
// validation failures.
type Rejection struct {
    Op    string              // operation that was refused, e.g. "recommend"
    State model.BookingStatus // actual current status
    Field string              // offending input field, if any
    Kind  error               // one of the sentinel kinds
    Msg   string              // human-readable detail
}

func (r *Rejection) Error() string {
    if r.Field != "" {
        return fmt.Sprintf("%s: %s: %s (field %s)", r.Op, r.Kind, r.Msg, r.Field)
    }
    if r.Msg != "" {
        return fmt.Sprintf("%s: %s: %s", r.Op, r.Kind, r.Msg)
    }
    return fmt.Sprintf("%s: %s (status %s)", r.Op, r.Kind, r.State)
}

// Unwrap exposes the sentinel kind so errors.Is works on rejections.
func (r *Rejection) Unwrap() error { return r.Kind }

func invalidTransition(op string, b *model.Booking) error {
    return &Rejection{Op: op, State: b.Status, Kind: ErrInvalidTransition}
}

func forbidden(op string, b *model.Booking, actor model.Role) error {
    return &Rejection{Op: op, State: b.Status, Kind: ErrForbidden,
        Msg: fmt.Sprintf("role %s may not %s", actor, op)}
}

func validation(op, field, msg string, b *model.Booking) error {
    return &Rejection{Op: op, State: b.Status, Field: field, Kind: ErrValidation, Msg: msg}
}
