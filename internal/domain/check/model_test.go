package check

import (
	"context"
	"testing"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
)

func newTestCheck(systemQuantities ...int64) *Check {
	c := New("", "user-1")
	for _, q := range systemQuantities {
		c.Items = append(c.Items, Item{
			ID:             id.New(),
			CheckID:        c.ID,
			ProductID:      id.New(),
			SystemQuantity: q,
			Status:         ItemStatusPending,
		})
	}
	return c
}

func TestValidate_RequiresItems(t *testing.T) {
	c := New("", "u")
	if err := c.Validate(context.Background()); err == nil {
		t.Fatal("expected validation error for empty check")
	}

	c = newTestCheck(5)
	if err := c.Validate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLifecycle(t *testing.T) {
	c := newTestCheck(5)

	if c.Status != StatusPending {
		t.Fatalf("expected pending, got %s", c.Status)
	}

	if err := c.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if c.Status != StatusInProgress || c.StartDate == nil {
		t.Error("start did not set state and start date")
	}

	// Starting twice is refused
	if err := c.Start(); !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition, got %v", err)
	}

	if err := c.Complete(); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if c.Status != StatusCompleted || c.EndDate == nil {
		t.Error("complete did not set state and end date")
	}

	// Terminal: no further transitions
	if err := c.Start(); !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition, got %v", err)
	}
	if err := c.Cancel(); !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition, got %v", err)
	}
}

func TestComplete_RequiresInProgress(t *testing.T) {
	c := newTestCheck(5)
	if err := c.Complete(); !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition from pending, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	c := newTestCheck(5)
	if err := c.Cancel(); err != nil {
		t.Fatalf("cancel from pending failed: %v", err)
	}
	if c.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", c.Status)
	}

	c = newTestCheck(5)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	if err := c.Cancel(); err != nil {
		t.Fatalf("cancel from in_progress failed: %v", err)
	}

	c = newTestCheck(5)
	_ = c.Start()
	_ = c.Complete()
	if err := c.Cancel(); !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition from completed, got %v", err)
	}
}

func TestRecordCount(t *testing.T) {
	c := newTestCheck(10)
	itemID := c.Items[0].ID

	// Counting before start is refused
	if _, err := c.RecordCount(itemID, 8, ""); !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition, got %v", err)
	}

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	item, err := c.RecordCount(itemID, 8, "two missing")
	if err != nil {
		t.Fatalf("record count failed: %v", err)
	}
	if item.Status != ItemStatusChecked {
		t.Errorf("expected checked, got %s", item.Status)
	}
	if *item.ActualQuantity != 8 {
		t.Errorf("expected actual 8, got %d", *item.ActualQuantity)
	}
	if *item.Difference != -2 {
		t.Errorf("expected difference -2, got %d", *item.Difference)
	}
	if item.Notes != "two missing" {
		t.Errorf("expected notes carried, got %q", item.Notes)
	}

	// Recounting overwrites
	item, err = c.RecordCount(itemID, 12, "")
	if err != nil {
		t.Fatalf("recount failed: %v", err)
	}
	if *item.ActualQuantity != 12 || *item.Difference != 2 {
		t.Errorf("expected recount 12 diff 2, got %d diff %d", *item.ActualQuantity, *item.Difference)
	}
	if item.Notes != "two missing" {
		t.Error("recount without notes must keep the previous notes")
	}

	if c.CheckedCount() != 1 {
		t.Errorf("expected 1 checked item, got %d", c.CheckedCount())
	}
}

func TestRecordCount_Errors(t *testing.T) {
	c := newTestCheck(10)
	_ = c.Start()

	if _, err := c.RecordCount(c.Items[0].ID, -1, ""); err == nil {
		t.Error("expected validation error for negative count")
	}

	if _, err := c.RecordCount(id.New(), 5, ""); !apperror.IsNotFound(err) {
		t.Errorf("expected not found for unknown item, got %v", err)
	}

	// Adjusted items are immutable
	c.Items[0].markAdjusted(id.New())
	if _, err := c.RecordCount(c.Items[0].ID, 5, ""); !apperror.IsInvalidStateTransition(err) {
		t.Errorf("expected invalid state transition for adjusted item, got %v", err)
	}
}

func TestNeedsAdjustment(t *testing.T) {
	c := newTestCheck(10, 10, 10)
	_ = c.Start()

	if _, err := c.RecordCount(c.Items[0].ID, 7, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := c.RecordCount(c.Items[1].ID, 10, ""); err != nil {
		t.Fatal(err)
	}
	// Items[2] stays uncounted

	if !c.Items[0].NeedsAdjustment() {
		t.Error("counted item with difference must need adjustment")
	}
	if c.Items[1].NeedsAdjustment() {
		t.Error("counted item with zero difference must not need adjustment")
	}
	if c.Items[2].NeedsAdjustment() {
		t.Error("uncounted item must not need adjustment")
	}

	c.Items[0].markAdjusted(id.New())
	if c.Items[0].NeedsAdjustment() {
		t.Error("adjusted item must not need adjustment again")
	}
}

func TestComplete_PermissiveWithUncountedItems(t *testing.T) {
	c := newTestCheck(10, 20)
	_ = c.Start()
	if _, err := c.RecordCount(c.Items[0].ID, 10, ""); err != nil {
		t.Fatal(err)
	}

	if err := c.Complete(); err != nil {
		t.Fatalf("complete with uncounted items failed: %v", err)
	}
	if c.Items[1].Status != ItemStatusPending {
		t.Errorf("uncounted item must stay pending, got %s", c.Items[1].Status)
	}
}
