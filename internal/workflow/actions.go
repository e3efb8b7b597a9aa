package workflow

import "github.com/hallbook/auditorium-booking/internal/model"

// Action names one of the operations a viewer may be offered on a
// booking.  The string values appear in API payloads.
type Action string

const (
    ActionView                 Action = "view"
    ActionEdit                 Action = "edit"
    ActionCancel               Action = "cancel"
    ActionPermanentDelete      Action = "permanent_delete"
    ActionConfirmPayment       Action = "confirm_payment"
    ActionRecommend            Action = "recommend"
    ActionApprove              Action = "approve"
    ActionCancelRecommendation Action = "cancel_recommendation"
    ActionCancelApproval       Action = "cancel_approval"
    ActionGenerateShareLink    Action = "generate_share_link"
)

// AvailableActions computes the set of actions the viewer may take on
// the booking.  This table is the single source of truth for action
// eligibility: every page calls it instead of re-deriving predicates.
// viewerID is the viewer's user id, used only for the creator rule on
// draft cancels.
func AvailableActions(b *model.Booking, viewer model.Role, viewerID uint64) map[Action]bool {
    cancelled := ResolveCancellation(b).IsCancelled
    actions := map[Action]bool{ActionView: true}

    switch viewer {
    case model.RoleAdmin:
        if !cancelled && (b.Status == model.StatusDraft || b.Status == model.StatusPendingApproval) {
            actions[ActionEdit] = true
        }
        // Cancel tracks the engine's precondition: legal until payment
        // is confirmed and while not already cancelled.
        if !cancelled {
            switch b.Status {
            case model.StatusCancelled, model.StatusPaymentConfirmed, model.StatusCompleted:
            default:
                actions[ActionCancel] = true
            }
        }
        if b.Status == model.StatusCancelled || cancelled {
            actions[ActionPermanentDelete] = true
        }
        if b.Status == model.StatusPaymentPending {
            actions[ActionConfirmPayment] = true
        }
        if b.Status == model.StatusPendingApproval {
            actions[ActionGenerateShareLink] = true
        }
    case model.RoleRecommendation:
        if b.Status == model.StatusPendingApproval && !cancelled {
            actions[ActionRecommend] = true
            actions[ActionCancelRecommendation] = true
        }
        if b.Status == model.StatusRecommended {
            actions[ActionGenerateShareLink] = true
        }
    case model.RoleApproval:
        if b.Status == model.StatusRecommended && !cancelled {
            actions[ActionApprove] = true
            actions[ActionCancelApproval] = true
        }
    }

    // A creator may always cancel their own draft, whatever their role.
    if viewerID != 0 && viewerID == b.CreatedBy && b.Status == model.StatusDraft {
        actions[ActionCancel] = true
    }

    return actions
}

// ActionList flattens an action set into a stable slice for JSON
// responses.
func ActionList(actions map[Action]bool) []Action {
    order := []Action{
        ActionView, ActionEdit, ActionCancel, ActionPermanentDelete,
        ActionConfirmPayment, ActionRecommend, ActionCancelRecommendation,
        ActionApprove, ActionCancelApproval, ActionGenerateShareLink,
    }
    out := make([]Action, 0, len(actions))
    for _, a := range order {
        if actions[a] {
            out = append(out, a)
        }
    }
    return out
}
