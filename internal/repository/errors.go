// Package repository implements MySQL data access for bookings,
// invoices, share links, users and refresh tokens.  This file defines
// sentinel error values reused across repositories so higher layers
// can distinguish failure scenarios.  ErrConflict in particular is how
// an optimistic state-guarded write reports that it lost a race: the
// UPDATE matched zero rows because the persisted workflow state
// changed since the caller observed it.
package repository

import "errors"

// ErrBookingNotFound is returned when a booking id does not resolve.
var ErrBookingNotFound = errors.New("booking not found")

// ErrInvoiceNotFound is returned when no invoice exists for the given
// id or booking.
var ErrInvoiceNotFound = errors.New("invoice not found")

// ErrShareLinkNotFound is returned when a share-link token does not
// resolve to a stored link.
var ErrShareLinkNotFound = errors.New("share link not found")

// ErrConflict is returned when a conditional write matched no rows
// because the record's workflow state changed concurrently.  Handlers
// should translate this into an HTTP 409 response; callers must
// re-fetch and re-evaluate eligibility rather than retry blindly.
var ErrConflict = errors.New("conflict")

// ErrInvoiceExists is returned when a second invoice would be created
// for a booking that already has one.
var ErrInvoiceExists = errors.New("invoice already exists for booking")
