package transaction

import (
	"context"
	"testing"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
)

func TestNew_Defaults(t *testing.T) {
	productID := id.New()
	trx := New(productID, TypeIn, 10, "", "user-1")

	if trx.Status != StatusPending {
		t.Errorf("expected pending status, got %s", trx.Status)
	}
	if trx.Reason != ReasonOther {
		t.Errorf("expected reason %q for empty input, got %q", ReasonOther, trx.Reason)
	}
	if trx.ProductID != productID {
		t.Error("product id not carried")
	}
	if trx.CreatedBy != "user-1" {
		t.Errorf("expected created_by user-1, got %q", trx.CreatedBy)
	}
	if trx.PreviousQuantity != nil || trx.NewQuantity != nil {
		t.Error("snapshot must be unset on a pending transaction")
	}
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		trx     *Transaction
		wantErr bool
	}{
		{"valid in", New(id.New(), TypeIn, 5, ReasonRestock, "u"), false},
		{"valid out", New(id.New(), TypeOut, 1, ReasonOrder, "u"), false},
		{"negative adjustment", New(id.New(), TypeAdjustment, -3, ReasonAdjustment, "u"), false},
		{"free text reason", New(id.New(), TypeIn, 5, "supplier overshipped", "u"), false},
		{"missing product", New(id.Nil(), TypeIn, 5, "", "u"), true},
		{"unknown type", New(id.New(), Type("transfer"), 5, "", "u"), true},
		{"zero quantity in", New(id.New(), TypeIn, 0, "", "u"), true},
		{"negative quantity out", New(id.New(), TypeOut, -2, "", "u"), true},
		{"zero adjustment", New(id.New(), TypeAdjustment, 0, "", "u"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trx.Validate(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignedDelta(t *testing.T) {
	if got := New(id.New(), TypeIn, 4, "", "u").SignedDelta(); got != 4 {
		t.Errorf("in: expected +4, got %d", got)
	}
	if got := New(id.New(), TypeOut, 4, "", "u").SignedDelta(); got != -4 {
		t.Errorf("out: expected -4, got %d", got)
	}
	if got := New(id.New(), TypeAdjustment, -9, "", "u").SignedDelta(); got != -9 {
		t.Errorf("adjustment: expected -9, got %d", got)
	}
}

func TestApprove(t *testing.T) {
	trx := New(id.New(), TypeIn, 5, ReasonRestock, "u")

	if err := trx.Approve("reviewer-1", 10, 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trx.Status != StatusApproved {
		t.Errorf("expected approved, got %s", trx.Status)
	}
	if trx.PreviousQuantity == nil || *trx.PreviousQuantity != 10 {
		t.Errorf("expected previous snapshot 10, got %v", trx.PreviousQuantity)
	}
	if trx.NewQuantity == nil || *trx.NewQuantity != 15 {
		t.Errorf("expected new snapshot 15, got %v", trx.NewQuantity)
	}
	if trx.ReviewedBy == nil || *trx.ReviewedBy != "reviewer-1" {
		t.Error("reviewer not recorded")
	}
	if trx.ReviewedAt == nil {
		t.Error("review time not recorded")
	}
}

func TestApprove_AlreadyDecided(t *testing.T) {
	trx := New(id.New(), TypeIn, 5, "", "u")
	if err := trx.Approve("r1", 0, 5); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}

	err := trx.Approve("r2", 5, 10)
	if !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition, got %v", err)
	}
	// First decision must stand
	if *trx.ReviewedBy != "r1" {
		t.Errorf("expected reviewer r1, got %s", *trx.ReviewedBy)
	}
	if *trx.NewQuantity != 5 {
		t.Errorf("expected snapshot from first decision, got %d", *trx.NewQuantity)
	}
}

func TestReject(t *testing.T) {
	trx := New(id.New(), TypeOut, 3, "", "u")

	if err := trx.Reject("reviewer-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trx.Status != StatusRejected {
		t.Errorf("expected rejected, got %s", trx.Status)
	}
	if trx.PreviousQuantity != nil || trx.NewQuantity != nil {
		t.Error("rejected transaction must carry no snapshot")
	}
}

func TestReject_AlreadyDecided(t *testing.T) {
	trx := New(id.New(), TypeOut, 3, "", "u")
	if err := trx.Reject("r1"); err != nil {
		t.Fatalf("first reject failed: %v", err)
	}

	if err := trx.Approve("r2", 0, 0); !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition, got %v", err)
	}
	if err := trx.Reject("r2"); !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition, got %v", err)
	}
}
