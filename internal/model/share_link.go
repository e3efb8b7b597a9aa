package model

import "time"

// ShareLink is a single-purpose token that delegates the next workflow
// action on a booking to an external reviewer without a standing
// session.  A link binds a booking to a stage and an expiry.  It is
// usable only while the booking still sits in the exact state the
// stage expects; once the booking moves on, the link is dead no matter
// what ExpiresAt says.  Expiry is evaluated lazily at resolve time –
// there is no background sweeper.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – booking the link acts on.
//  Stage     – which review stage the link delegates.
//  Token     – opaque random token handed to the reviewer.
//  ExpiresAt – expiry timestamp (UTC).
//  CreatedAt – creation timestamp.
type ShareLink struct {
    ID        uint64    `json:"id"`
    BookingID uint64    `json:"booking_id"`
    Stage     Stage     `json:"stage"`
    Token     string    `json:"token"`
    ExpiresAt time.Time `json:"expires_at"`
    CreatedAt time.Time `json:"created_at"`
}

// ExpectedStatus returns the booking status the link's stage requires
// at the moment of use: a recommendation link only works while the
// booking awaits recommendation, an approval link only while it awaits
// approval.
func (l *ShareLink) ExpectedStatus() BookingStatus {
    if l.Stage == StageApproval {
        return StatusRecommended
    }
    return StatusPendingApproval
}
