package ledger_test

import (
	"context"
	"testing"

	"github.com/onnwee/prodscout/ledger"
	"github.com/onnwee/prodscout/testutil"
)

func TestPGStoreDebitGuard(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := ledger.NewPGStore(database)
	ctx := context.Background()

	if _, err := database.ExecContext(ctx, `DELETE FROM accounts WHERE id='pgtest'`); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if err := store.Create(ctx, ledger.Account{ID: "pgtest", Credits: 1, LastResetMonth: 5}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	remaining, ok, err := store.Debit(ctx, "pgtest")
	if err != nil || !ok {
		t.Fatalf("first Debit: remaining=%d ok=%v err=%v", remaining, ok, err)
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}

	// Guard must refuse once the balance is zero.
	if _, ok, err := store.Debit(ctx, "pgtest"); err != nil || ok {
		t.Errorf("second Debit: ok=%v err=%v, want guard refusal", ok, err)
	}

	found, err := store.Credit(ctx, "pgtest")
	if err != nil || !found {
		t.Fatalf("Credit: found=%v err=%v", found, err)
	}
	acct, err := store.Get(ctx, "pgtest")
	if err != nil || acct == nil {
		t.Fatalf("Get: acct=%v err=%v", acct, err)
	}
	if acct.Credits != 1 {
		t.Errorf("credits after refund = %d, want 1", acct.Credits)
	}
}

func TestPGStoreCreditUnknownRow(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := ledger.NewPGStore(database)

	found, err := store.Credit(context.Background(), "never-created")
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if found {
		t.Error("Credit reported found for a missing row")
	}
}
