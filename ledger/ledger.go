// Package ledger owns the per-user credit balance that meters the album lookup command.
// It is pure accounting logic over a small Store abstraction: no chat or network
// dependency. The caller (chat command dispatch) mediates between ledger and pipeline.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Role-derived monthly credit maximums. Premium dominates Lite.
const (
	PremiumCredits = 100
	LiteCredits    = 30
)

var (
	// ErrNoEntitlement means the user holds neither tier role; the command is not
	// available to them at all. No store access happens on this path.
	ErrNoEntitlement = errors.New("no entitled role")
	// ErrExhausted means the balance for the current period is used up.
	ErrExhausted = errors.New("credits exhausted")
	// ErrStoreUnavailable wraps infrastructure faults from the record store. The
	// caller must treat it as deny-without-charge: no refund is owed.
	ErrStoreUnavailable = errors.New("credit store unavailable")
)

// Account is one user's persisted balance record.
type Account struct {
	ID             string
	Credits        int
	LastResetMonth int // calendar month (1-12) of the last reset to the role maximum
}

// Store is the record-store contract the ledger runs on. Debit and Credit must be
// atomic per record (guarded SQL update or equivalent), not read-then-write at this
// layer, so concurrent charges for the same user cannot lose updates.
type Store interface {
	// Get returns (nil, nil) when the account does not exist.
	Get(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a Account) error
	// Reset assigns a fresh balance and reset month, discarding the prior balance.
	Reset(ctx context.Context, id string, credits, month int) error
	// Debit atomically decrements by 1 iff credits > 0, returning the post-debit
	// balance. ok=false means the guard failed (balance already zero).
	Debit(ctx context.Context, id string) (remaining int, ok bool, err error)
	// Credit atomically increments by 1. Missing record reports found=false.
	Credit(ctx context.Context, id string) (found bool, err error)
}

// Ledger applies the role-quota and monthly-rollover rules on top of a Store.
// Now is swappable for tests exercising period rollover.
type Ledger struct {
	store Store
	Now   func() time.Time
}

func New(store Store) *Ledger {
	return &Ledger{store: store, Now: time.Now}
}

// ResolveMax maps a role set to its monthly credit maximum. Pure and total:
// Premium -> 100, else Lite -> 30, else 0.
func ResolveMax(roles []string) int {
	lite := false
	for _, r := range roles {
		switch r {
		case "Premium":
			return PremiumCredits
		case "Lite":
			lite = true
		}
	}
	if lite {
		return LiteCredits
	}
	return 0
}

// Charge debits one credit for userID and returns the post-charge balance.
// Rules, in order:
//  1. No entitled role: ErrNoEntitlement, no store access.
//  2. Unseen user: record created lazily, seeded to the role maximum for the
//     current month.
//  3. Stored reset month differs from the current month: balance is reset to the
//     role maximum first (monthly top-up; leftover credits are discarded, not
//     carried over).
//  4. Positive balance: atomic decrement of exactly 1.
//  5. Otherwise ErrExhausted, no mutation.
//
// Note the rollover compares month-of-year only, matching the stored record shape:
// a charge in December and another the following December land in the same period.
func (l *Ledger) Charge(ctx context.Context, userID string, roles []string) (int, error) {
	max := ResolveMax(roles)
	if max == 0 {
		return 0, ErrNoEntitlement
	}
	month := int(l.Now().Month())

	acct, err := l.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if acct == nil {
		acct = &Account{ID: userID, Credits: max, LastResetMonth: month}
		if err := l.store.Create(ctx, *acct); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	} else if acct.LastResetMonth != month {
		if err := l.store.Reset(ctx, userID, max, month); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		acct.Credits = max
		acct.LastResetMonth = month
	}

	if acct.Credits <= 0 {
		return 0, ErrExhausted
	}
	remaining, ok, err := l.store.Debit(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !ok {
		// Raced with a concurrent charge that took the last credit.
		return 0, ErrExhausted
	}
	return remaining, nil
}

// Refund adds one credit back. Invoked by the caller exactly once per failed run
// that had successfully charged; calling it twice over-refunds, so that guarantee
// lives with the caller. A missing record is a programmer-error path: logged,
// ignored.
func (l *Ledger) Refund(ctx context.Context, userID string) {
	found, err := l.store.Credit(ctx, userID)
	if err != nil {
		slog.Error("refund failed", slog.String("user", userID), slog.Any("err", err), slog.String("component", "ledger"))
		return
	}
	if !found {
		slog.Warn("refund for unknown account ignored", slog.String("user", userID), slog.String("component", "ledger"))
	}
}

// Balance reports the user's current balance without charging, applying the same
// lazy rollover view a charge would (the stored row is not mutated). Backs the
// !credits command.
func (l *Ledger) Balance(ctx context.Context, userID string, roles []string) (int, error) {
	max := ResolveMax(roles)
	if max == 0 {
		return 0, ErrNoEntitlement
	}
	acct, err := l.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if acct == nil || acct.LastResetMonth != int(l.Now().Month()) {
		return max, nil
	}
	return acct.Credits, nil
}
