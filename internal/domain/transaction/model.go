// Package transaction provides inventory movement documents and their
// approval workflow.
package transaction

import (
	"context"
	"time"

	"partstock/internal/core/apperror"
	"partstock/internal/core/entity"
	"partstock/internal/core/id"
)

// Type classifies the direction of a stock movement.
type Type string

const (
	// TypeIn is an inbound movement (restock, customer return)
	TypeIn Type = "in"
	// TypeOut is an outbound movement (sale, write-off)
	TypeOut Type = "out"
	// TypeAdjustment is a signed correction (stock check, damage found)
	TypeAdjustment Type = "adjustment"
)

// IsValid returns true if the type is one of the recognized movement types.
func (t Type) IsValid() bool {
	switch t {
	case TypeIn, TypeOut, TypeAdjustment:
		return true
	}
	return false
}

// Status represents the approval state of a transaction.
type Status string

const (
	// StatusPending is the initial state; the ledger has not been touched
	StatusPending Status = "pending"
	// StatusApproved is terminal; the ledger mutation has been applied
	StatusApproved Status = "approved"
	// StatusRejected is terminal; the ledger was never touched
	StatusRejected Status = "rejected"
)

// Recognized movement reasons. Unrecognized values are accepted as free
// text; these constants exist for the common cases.
const (
	ReasonRestock    = "restock"
	ReasonPurchase   = "purchase"
	ReasonReturn     = "return"
	ReasonDamage     = "damage"
	ReasonOrder      = "order"
	ReasonAdjustment = "adjustment"
	ReasonOther      = "other"
)

// Transaction is a discrete, approvable stock movement request.
// Creation only records intent; the ledger is mutated exactly once, at
// approval time, and the before/after quantities are snapshotted then.
type Transaction struct {
	entity.Document

	// ProductID references the product being moved (weak reference)
	ProductID id.ID `db:"product_id" json:"productId"`

	// Type is the movement direction
	Type Type `db:"type" json:"type"`

	// Quantity is the movement magnitude. Positive for in/out (the sign
	// is implied by Type); for adjustments it carries the signed delta.
	Quantity int64 `db:"quantity" json:"quantity"`

	// Reason explains the movement (restock, damage, ...); free text allowed
	Reason string `db:"reason" json:"reason"`

	// Reference is an optional external document id (order number, check number)
	Reference string `db:"reference" json:"reference,omitempty"`

	// Status is the approval state
	Status Status `db:"status" json:"status"`

	// PreviousQuantity and NewQuantity are snapshots captured at the
	// moment the transaction is applied to the ledger. Unset while pending
	// or rejected.
	PreviousQuantity *int64 `db:"previous_quantity" json:"previousQuantity,omitempty"`
	NewQuantity      *int64 `db:"new_quantity" json:"newQuantity,omitempty"`

	// ReviewedBy and ReviewedAt record the approve/reject decision
	ReviewedBy *string    `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`
}

// New creates a pending transaction for a product.
func New(productID id.ID, movementType Type, quantity int64, reason, createdBy string) *Transaction {
	if reason == "" {
		reason = ReasonOther
	}
	return &Transaction{
		Document:  entity.NewDocument(createdBy),
		ProductID: productID,
		Type:      movementType,
		Quantity:  quantity,
		Reason:    reason,
		Status:    StatusPending,
	}
}

// Validate implements entity.Validatable.
func (t *Transaction) Validate(ctx context.Context) error {
	if id.IsNil(t.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}

	if !t.Type.IsValid() {
		return apperror.NewValidation("unknown transaction type").
			WithDetail("field", "type").
			WithDetail("value", string(t.Type))
	}

	switch t.Type {
	case TypeAdjustment:
		if t.Quantity == 0 {
			return apperror.NewValidation("adjustment quantity must not be zero").
				WithDetail("field", "quantity")
		}
	default:
		if t.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantity")
		}
	}

	return nil
}

// SignedDelta returns the delta this transaction applies to the ledger:
// +quantity for in, -quantity for out, the carried sign for adjustments.
func (t *Transaction) SignedDelta() int64 {
	switch t.Type {
	case TypeOut:
		return -t.Quantity
	default:
		return t.Quantity
	}
}

// Approve transitions the transaction to approved, recording the ledger
// snapshot and the reviewer. Allowed only from pending.
func (t *Transaction) Approve(reviewerID string, previousQuantity, newQuantity int64) error {
	if t.Status != StatusPending {
		return apperror.NewInvalidStateTransition("transaction", string(t.Status), string(StatusApproved)).
			WithDetail("transaction_id", t.ID.String())
	}

	now := time.Now().UTC()
	t.Status = StatusApproved
	t.PreviousQuantity = &previousQuantity
	t.NewQuantity = &newQuantity
	t.ReviewedBy = &reviewerID
	t.ReviewedAt = &now
	t.UpdatedBy = reviewerID
	return nil
}

// Reject transitions the transaction to rejected. Allowed only from
// pending; the ledger is never touched.
func (t *Transaction) Reject(reviewerID string) error {
	if t.Status != StatusPending {
		return apperror.NewInvalidStateTransition("transaction", string(t.Status), string(StatusRejected)).
			WithDetail("transaction_id", t.ID.String())
	}

	now := time.Now().UTC()
	t.Status = StatusRejected
	t.ReviewedBy = &reviewerID
	t.ReviewedAt = &now
	t.UpdatedBy = reviewerID
	return nil
}
