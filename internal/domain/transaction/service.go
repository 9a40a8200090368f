package transaction

import (
	"context"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
	"partstock/internal/core/tx"
	"partstock/internal/domain"
	"partstock/internal/domain/catalogs/product"
	"partstock/internal/domain/ledger"
	"partstock/pkg/logger"
)

// numberCode is the numerator sequence for transaction documents (TRX-2025-00001).
const numberCode = "TRX"

// Numerator issues sequential document numbers.
type Numerator interface {
	Next(ctx context.Context, code string) (string, error)
}

// Service implements transaction processing: recording pending movements
// and deciding them. A decision is the only path that mutates the stock
// ledger.
type Service struct {
	repo      Repository
	products  product.Repository
	ledger    *ledger.Service
	txManager tx.Manager
	numbers   Numerator
}

// NewService creates a transaction service.
func NewService(
	repo Repository,
	products product.Repository,
	ledgerSvc *ledger.Service,
	txManager tx.Manager,
	numbers Numerator,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		ledger:    ledgerSvc,
		txManager: txManager,
		numbers:   numbers,
	}
}

// CreateInput carries the fields for a new movement request.
type CreateInput struct {
	ProductID id.ID
	Type      Type
	Quantity  int64
	Reason    string
	Reference string
	Notes     string
	CreatedBy string
}

// Create records a pending movement. Stock is not checked and the ledger
// is not touched; an out movement larger than the current stock is
// accepted here and refused at approval time.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Transaction, error) {
	t := New(in.ProductID, in.Type, in.Quantity, in.Reason, in.CreatedBy)
	t.Reference = in.Reference
	t.Notes = in.Notes

	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetByID(ctx, t.ProductID); err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx, numberCode)
		if err != nil {
			return err
		}
		t.Number = number

		return s.repo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transaction created",
		"transaction_id", t.ID,
		"number", t.Number,
		"product_id", t.ProductID,
		"type", t.Type,
		"quantity", t.Quantity,
	)
	return t, nil
}

// GetByID loads a transaction.
func (s *Service) GetByID(ctx context.Context, transactionID id.ID) (*Transaction, error) {
	return s.repo.GetByID(ctx, transactionID)
}

// List returns transactions matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transaction], error) {
	return s.repo.List(ctx, filter)
}

// Approve applies a pending transaction to the stock ledger and marks it
// approved. The ledger mutation, the before/after snapshot and the status
// change commit atomically; an insufficient stock failure leaves the
// transaction pending and the ledger untouched.
func (s *Service) Approve(ctx context.Context, transactionID id.ID, reviewerID string) (*Transaction, error) {
	var t *Transaction

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}

		if t.Status != StatusPending {
			return apperror.NewInvalidStateTransition("transaction", string(t.Status), string(StatusApproved)).
				WithDetail("transaction_id", t.ID.String())
		}

		applied, err := s.ledger.ApplyDelta(ctx, t.ProductID, t.SignedDelta())
		if err != nil {
			return err
		}

		if err := t.Approve(reviewerID, applied.PreviousQuantity, applied.NewQuantity); err != nil {
			return err
		}
		t.Touch()

		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transaction approved",
		"transaction_id", t.ID,
		"number", t.Number,
		"reviewed_by", reviewerID,
		"previous_quantity", *t.PreviousQuantity,
		"new_quantity", *t.NewQuantity,
	)
	return t, nil
}

// Reject marks a pending transaction rejected. The ledger is not touched.
func (s *Service) Reject(ctx context.Context, transactionID id.ID, reviewerID string) (*Transaction, error) {
	var t *Transaction

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}

		if err := t.Reject(reviewerID); err != nil {
			return err
		}
		t.Touch()

		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transaction rejected",
		"transaction_id", t.ID,
		"number", t.Number,
		"reviewed_by", reviewerID,
	)
	return t, nil
}

// AdjustmentInput carries the fields for an immediately applied
// adjustment, typically generated from an inventory check.
type AdjustmentInput struct {
	ProductID id.ID
	Delta     int64
	Reason    string
	Reference string
	Notes     string
	ActorID   string
}

// PostAdjustment creates an adjustment transaction and applies it to the
// ledger in one step, bypassing the approval queue. The resulting
// transaction is approved with the actor recorded as reviewer. Runs in
// the ambient transaction when one is active.
func (s *Service) PostAdjustment(ctx context.Context, in AdjustmentInput) (*Transaction, error) {
	t := New(in.ProductID, TypeAdjustment, in.Delta, in.Reason, in.ActorID)
	t.Reference = in.Reference
	t.Notes = in.Notes

	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numbers.Next(ctx, numberCode)
		if err != nil {
			return err
		}
		t.Number = number

		applied, err := s.ledger.ApplyDelta(ctx, t.ProductID, t.SignedDelta())
		if err != nil {
			return err
		}

		if err := t.Approve(in.ActorID, applied.PreviousQuantity, applied.NewQuantity); err != nil {
			return err
		}

		return s.repo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "adjustment posted",
		"transaction_id", t.ID,
		"number", t.Number,
		"product_id", t.ProductID,
		"delta", in.Delta,
		"reference", in.Reference,
	)
	return t, nil
}
