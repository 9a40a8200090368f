package dto

import (
	"time"

	"partstock/internal/domain/transaction"
)

// CreateTransactionRequest for recording a new movement.
type CreateTransactionRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=in out adjustment"`
	Quantity  int64  `json:"quantity" binding:"required"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// UpdateTransactionStatusRequest decides a pending transaction.
type UpdateTransactionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

// TransactionResponse contains transaction fields.
type TransactionResponse struct {
	ID               string     `json:"id"`
	Number           string     `json:"number"`
	ProductID        string     `json:"productId"`
	Type             string     `json:"type"`
	Quantity         int64      `json:"quantity"`
	Reason           string     `json:"reason"`
	Reference        string     `json:"reference,omitempty"`
	Status           string     `json:"status"`
	PreviousQuantity *int64     `json:"previousQuantity,omitempty"`
	NewQuantity      *int64     `json:"newQuantity,omitempty"`
	ReviewedBy       *string    `json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Version          int        `json:"version"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	CreatedBy        string     `json:"createdBy,omitempty"`
}

// FromTransaction creates TransactionResponse from a transaction.
func FromTransaction(t *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               t.ID.String(),
		Number:           t.Number,
		ProductID:        t.ProductID.String(),
		Type:             string(t.Type),
		Quantity:         t.Quantity,
		Reason:           t.Reason,
		Reference:        t.Reference,
		Status:           string(t.Status),
		PreviousQuantity: t.PreviousQuantity,
		NewQuantity:      t.NewQuantity,
		ReviewedBy:       t.ReviewedBy,
		ReviewedAt:       t.ReviewedAt,
		Notes:            t.Notes,
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		CreatedBy:        t.CreatedBy,
	}
}

// FromTransactions maps a transaction slice to responses.
func FromTransactions(items []*transaction.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, FromTransaction(t))
	}
	return out
}
