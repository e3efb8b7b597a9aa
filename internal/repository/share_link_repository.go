package repository

import (
    "context"
    "crypto/rand"
    "database/sql"
    "encoding/hex"
    "time"

    "github.com/hallbook/auditorium-booking/internal/model"
)

// ShareLinkRepo provides data access to the share_links table.  Links
// are issued with a random token and an expiry; nothing sweeps them in
// the background.  Expiry and stage-fit are both evaluated lazily at
// resolve time by the handler, so a stale row is harmless.
type ShareLinkRepo struct {
    db *sql.DB
}

// NewShareLinkRepo returns a new ShareLinkRepo bound to the provided
// database.
func NewShareLinkRepo(db *sql.DB) *ShareLinkRepo { return &ShareLinkRepo{db: db} }

// randomToken generates a hex string from n cryptographically secure
// random bytes.  For a 64 character token, specify 32 bytes.
func randomToken(n int) (string, error) {
    b := make([]byte, n)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}

// Issue creates a share link for a booking and stage with the given
// time-to-live and returns the stored link including its token.
func (r *ShareLinkRepo) Issue(ctx context.Context, bookingID uint64, stage model.Stage, ttl time.Duration) (*model.ShareLink, error) {
    token, err := randomToken(32)
    if err != nil {
        return nil, err
    }
    expiresAt := time.Now().UTC().Add(ttl)
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO share_links (booking_id, stage, token, expires_at) VALUES (?, ?, ?, ?)`,
        bookingID, stage, token, expiresAt.Format("2006-01-02 15:04:05"))
    if err != nil {
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    return &model.ShareLink{
        ID:        uint64(id),
        BookingID: bookingID,
        Stage:     stage,
        Token:     token,
        ExpiresAt: expiresAt,
        CreatedAt: time.Now().UTC(),
    }, nil
}

// GetByToken returns the link stored under the given token, expired or
// not – the caller decides what expiry means (ErrShareLinkNotFound is
// only for tokens that were never issued).
func (r *ShareLinkRepo) GetByToken(ctx context.Context, token string) (*model.ShareLink, error) {
    var l model.ShareLink
    err := r.db.QueryRowContext(ctx,
        `SELECT id, booking_id, stage, token, expires_at, created_at FROM share_links WHERE token = ? LIMIT 1`,
        token).Scan(&l.ID, &l.BookingID, &l.Stage, &l.Token, &l.ExpiresAt, &l.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrShareLinkNotFound
    }
    if err != nil {
        return nil, err
    }
    l.ExpiresAt = l.ExpiresAt.UTC()
    return &l, nil
}

// DeleteForBookingTx removes all links issued for a booking.  Called
// when a booking is permanently deleted and, opportunistically, when a
// booking transitions away from a link's stage.
func (r *ShareLinkRepo) DeleteForBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM share_links WHERE booking_id = ?`, bookingID)
    return err
}

// PurgeExpired deletes links whose expiry has passed and returns how
// many were removed.  Purely housekeeping – resolution never relies on
// it.
func (r *ShareLinkRepo) PurgeExpired(ctx context.Context) (int64, error) {
    res, err := r.db.ExecContext(ctx, `DELETE FROM share_links WHERE expires_at <= UTC_TIMESTAMP()`)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}
