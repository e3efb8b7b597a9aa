// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/hallbook/auditorium-booking/internal/model"

// WorkflowQueueName is the durable queue every successful booking
// transition is published to.
const WorkflowQueueName = "booking.workflow"

// BookingWorkflowEvent is emitted on every successful workflow
// transition, including stage-local cancels.  It carries enough
// information for downstream consumers to log, notify, or feed
// analytics without querying the primary database.  From and To are
// equal for stage-local cancels, which leave the top-level status
// unchanged.
type BookingWorkflowEvent struct {
    Type       string              `json:"type"` // operation name, e.g. "recommend"
    BookingID  uint64              `json:"booking_id"`
    ActorRole  model.Role          `json:"actor_role"`
    ActorID    uint64              `json:"actor_id,omitempty"` // zero for share-link actions
    From       model.BookingStatus `json:"from"`
    To         model.BookingStatus `json:"to"`
    OccurredAt string              `json:"occurred_at"` // RFC3339 UTC
}
