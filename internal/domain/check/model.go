// Package check provides inventory check documents: reconciliation
// sessions comparing system-recorded stock against physical counts.
package check

import (
	"context"
	"time"

	"partstock/internal/core/apperror"
	"partstock/internal/core/entity"
	"partstock/internal/core/id"
)

// Status represents the lifecycle state of an inventory check.
type Status string

const (
	// StatusPending means the check is created with snapshots but counting
	// has not started
	StatusPending Status = "pending"
	// StatusInProgress means staff are recording physical counts
	StatusInProgress Status = "in_progress"
	// StatusCompleted means counting is finished; adjustments may be applied
	StatusCompleted Status = "completed"
	// StatusCancelled is terminal with no ledger effect
	StatusCancelled Status = "cancelled"
)

// ItemStatus represents the state of a single check item.
type ItemStatus string

const (
	// ItemStatusPending means no physical count has been recorded
	ItemStatusPending ItemStatus = "pending"
	// ItemStatusChecked means a count was recorded and the difference computed
	ItemStatusChecked ItemStatus = "checked"
	// ItemStatusAdjusted means the difference was posted to the ledger
	ItemStatusAdjusted ItemStatus = "adjusted"
)

// Item is one product's row within an inventory check.
// SystemQuantity is frozen at check creation; it does not follow
// subsequent ledger mutations.
type Item struct {
	// ID is the item primary key
	ID id.ID `db:"id" json:"id"`

	// CheckID references the owning check
	CheckID id.ID `db:"check_id" json:"checkId"`

	// ProductID references the counted product
	ProductID id.ID `db:"product_id" json:"productId"`

	// SystemQuantity is the ledger quantity snapshotted at check creation
	SystemQuantity int64 `db:"system_quantity" json:"systemQuantity"`

	// ActualQuantity is the physically counted quantity (nil until counted)
	ActualQuantity *int64 `db:"actual_quantity" json:"actualQuantity,omitempty"`

	// Difference is ActualQuantity - SystemQuantity (nil until counted)
	Difference *int64 `db:"difference" json:"difference,omitempty"`

	// Status is the item state
	Status ItemStatus `db:"status" json:"status"`

	// Notes is an optional comment recorded with the count
	Notes string `db:"notes" json:"notes,omitempty"`

	// AdjustmentID references the posted adjustment transaction, if any
	AdjustmentID *id.ID `db:"adjustment_id" json:"adjustmentId,omitempty"`
}

// recordCount stores a physical count and derives the difference.
// Recounting overwrites the previous count; an adjusted item is immutable.
func (i *Item) recordCount(actualQuantity int64, notes string) error {
	if i.Status == ItemStatusAdjusted {
		return apperror.NewInvalidStateTransition("check_item", string(i.Status), string(ItemStatusChecked)).
			WithDetail("item_id", i.ID.String())
	}

	difference := actualQuantity - i.SystemQuantity
	i.ActualQuantity = &actualQuantity
	i.Difference = &difference
	i.Status = ItemStatusChecked
	if notes != "" {
		i.Notes = notes
	}
	return nil
}

// markAdjusted links the item to its posted adjustment transaction.
func (i *Item) markAdjusted(transactionID id.ID) {
	i.Status = ItemStatusAdjusted
	i.AdjustmentID = &transactionID
}

// NeedsAdjustment reports whether applying this check should post a
// ledger adjustment for the item: counted, with a non-zero difference.
func (i *Item) NeedsAdjustment() bool {
	return i.Status == ItemStatusChecked && i.Difference != nil && *i.Difference != 0
}

// Check is an inventory reconciliation session over a product set.
// It exclusively owns its items.
type Check struct {
	entity.Document

	// Status is the lifecycle state
	Status Status `db:"status" json:"status"`

	// StartDate is set when counting starts
	StartDate *time.Time `db:"start_date" json:"startDate,omitempty"`

	// EndDate is set when the check completes
	EndDate *time.Time `db:"end_date" json:"endDate,omitempty"`

	// Items are the per-product rows (loaded with the check)
	Items []Item `db:"-" json:"items"`
}

// New creates a pending check without items; items are attached by the
// service after snapshotting product quantities.
func New(notes, createdBy string) *Check {
	c := &Check{
		Document: entity.NewDocument(createdBy),
		Status:   StatusPending,
	}
	c.Notes = notes
	return c
}

// Validate implements entity.Validatable.
func (c *Check) Validate(ctx context.Context) error {
	if len(c.Items) == 0 {
		return apperror.NewValidation("check must contain at least one item")
	}
	return nil
}

// Start transitions pending -> in_progress.
func (c *Check) Start() error {
	if c.Status != StatusPending {
		return c.transitionError(StatusInProgress)
	}
	now := time.Now().UTC()
	c.Status = StatusInProgress
	c.StartDate = &now
	return nil
}

// Complete transitions in_progress -> completed. Uncounted items are
// allowed; they stay pending permanently.
func (c *Check) Complete() error {
	if c.Status != StatusInProgress {
		return c.transitionError(StatusCompleted)
	}
	now := time.Now().UTC()
	c.Status = StatusCompleted
	c.EndDate = &now
	return nil
}

// Cancel transitions pending or in_progress -> cancelled. Terminal, no
// ledger effect.
func (c *Check) Cancel() error {
	if c.Status != StatusPending && c.Status != StatusInProgress {
		return c.transitionError(StatusCancelled)
	}
	c.Status = StatusCancelled
	return nil
}

// RecordCount stores a physical count for one of the check's items.
// Counting is allowed only while the check is in progress.
func (c *Check) RecordCount(itemID id.ID, actualQuantity int64, notes string) (*Item, error) {
	if c.Status != StatusInProgress {
		return nil, c.transitionError(StatusInProgress).
			WithDetail("reason", "counts can be recorded only while the check is in progress")
	}

	if actualQuantity < 0 {
		return nil, apperror.NewValidation("actual quantity must not be negative").
			WithDetail("field", "actualQuantity")
	}

	item := c.findItem(itemID)
	if item == nil {
		return nil, apperror.NewNotFound("check item", itemID)
	}

	if err := item.recordCount(actualQuantity, notes); err != nil {
		return nil, err
	}
	return item, nil
}

// CheckedCount returns how many items have a recorded count (checked or
// adjusted).
func (c *Check) CheckedCount() int {
	n := 0
	for i := range c.Items {
		if c.Items[i].Status != ItemStatusPending {
			n++
		}
	}
	return n
}

func (c *Check) findItem(itemID id.ID) *Item {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Check) transitionError(requested Status) *apperror.AppError {
	return apperror.NewInvalidStateTransition("check", string(c.Status), string(requested)).
		WithDetail("check_id", c.ID.String())
}
