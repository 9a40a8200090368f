package check

import (
	"context"

	"github.com/shopspring/decimal"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
	"partstock/internal/core/tx"
	"partstock/internal/domain"
	"partstock/internal/domain/catalogs/product"
	"partstock/internal/domain/transaction"
	"partstock/pkg/logger"
)

// numberCode is the numerator sequence for check documents (CHK-2025-00001).
const numberCode = "CHK"

// Numerator issues sequential document numbers.
type Numerator interface {
	Next(ctx context.Context, code string) (string, error)
}

// AdjustmentPoster posts auto-approved adjustment transactions.
// Implemented by the transaction service.
type AdjustmentPoster interface {
	PostAdjustment(ctx context.Context, in transaction.AdjustmentInput) (*transaction.Transaction, error)
}

// Service orchestrates inventory checks: creating snapshot sessions,
// driving their lifecycle, recording counts and converting differences
// into ledger adjustments.
type Service struct {
	repo        Repository
	products    product.Repository
	adjustments AdjustmentPoster
	txManager   tx.Manager
	numbers     Numerator
}

// NewService creates a check service.
func NewService(
	repo Repository,
	products product.Repository,
	adjustments AdjustmentPoster,
	txManager tx.Manager,
	numbers Numerator,
) *Service {
	return &Service{
		repo:        repo,
		products:    products,
		adjustments: adjustments,
		txManager:   txManager,
		numbers:     numbers,
	}
}

// CreateInput carries the fields for a new check session.
type CreateInput struct {
	// ProductIDs selects the products to count. Empty means all active
	// products at creation time.
	ProductIDs []id.ID

	Notes     string
	CreatedBy string
}

// Create opens a pending check, snapshotting the current quantity of
// every selected product. The snapshot and the check commit atomically,
// so all items reflect the same instant.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Check, error) {
	c := New(in.Notes, in.CreatedBy)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		selected, err := s.selectProducts(ctx, in.ProductIDs)
		if err != nil {
			return err
		}

		for _, p := range selected {
			c.Items = append(c.Items, Item{
				ID:             id.New(),
				CheckID:        c.ID,
				ProductID:      p.ID,
				SystemQuantity: p.Quantity,
				Status:         ItemStatusPending,
			})
		}

		if err := c.Validate(ctx); err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx, numberCode)
		if err != nil {
			return err
		}
		c.Number = number

		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "check created",
		"check_id", c.ID,
		"number", c.Number,
		"items", len(c.Items),
	)
	return c, nil
}

func (s *Service) selectProducts(ctx context.Context, productIDs []id.ID) ([]*product.Product, error) {
	if len(productIDs) == 0 {
		return s.products.ListActive(ctx)
	}

	seen := make(map[id.ID]struct{}, len(productIDs))
	selected := make([]*product.Product, 0, len(productIDs))
	for _, productID := range productIDs {
		if _, ok := seen[productID]; ok {
			continue
		}
		seen[productID] = struct{}{}

		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// GetByID loads a check with its items.
func (s *Service) GetByID(ctx context.Context, checkID id.ID) (*Check, error) {
	return s.repo.GetByID(ctx, checkID)
}

// List returns check headers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Check], error) {
	return s.repo.List(ctx, filter)
}

// Start begins counting on a pending check.
func (s *Service) Start(ctx context.Context, checkID id.ID, actorID string) (*Check, error) {
	return s.transition(ctx, checkID, actorID, (*Check).Start, "check started")
}

// Complete finishes counting. Items never counted stay pending; the check
// can still be applied for the counted ones.
func (s *Service) Complete(ctx context.Context, checkID id.ID, actorID string) (*Check, error) {
	return s.transition(ctx, checkID, actorID, (*Check).Complete, "check completed")
}

// Cancel aborts a pending or in-progress check without ledger effect.
func (s *Service) Cancel(ctx context.Context, checkID id.ID, actorID string) (*Check, error) {
	return s.transition(ctx, checkID, actorID, (*Check).Cancel, "check cancelled")
}

func (s *Service) transition(
	ctx context.Context,
	checkID id.ID,
	actorID string,
	apply func(*Check) error,
	message string,
) (*Check, error) {
	var c *Check

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetForUpdate(ctx, checkID)
		if err != nil {
			return err
		}

		if err := apply(c); err != nil {
			return err
		}
		c.UpdatedBy = actorID
		c.Touch()

		return s.repo.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, message, "check_id", c.ID, "number", c.Number, "status", c.Status)
	return c, nil
}

// RecordCount stores a physical count for one item of an in-progress
// check. Resubmitting a count for the same item overwrites the previous
// one while the check is still in progress.
func (s *Service) RecordCount(ctx context.Context, checkID, itemID id.ID, actualQuantity int64, notes string) (*Item, error) {
	var item *Item

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, checkID)
		if err != nil {
			return err
		}

		item, err = c.RecordCount(itemID, actualQuantity, notes)
		if err != nil {
			return err
		}

		return s.repo.UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "count recorded",
		"check_id", checkID,
		"item_id", item.ID,
		"product_id", item.ProductID,
		"actual_quantity", actualQuantity,
		"difference", *item.Difference,
	)
	return item, nil
}

// ItemFailure describes one item whose adjustment could not be posted.
type ItemFailure struct {
	ItemID    id.ID  `json:"itemId"`
	ProductID id.ID  `json:"productId"`
	Error     string `json:"error"`
}

// ApplyResult summarizes one ApplyAdjustments invocation.
// ValueDelta prices the applied differences at the current sale price,
// the net stock-value correction of this run.
type ApplyResult struct {
	Check      *Check          `json:"check"`
	Applied    int             `json:"applied"`
	Skipped    int             `json:"skipped"`
	ValueDelta decimal.Decimal `json:"valueDelta"`
	Failures   []ItemFailure   `json:"failures,omitempty"`
}

// ApplyAdjustments posts one auto-approved adjustment transaction for
// every counted item with a non-zero difference and marks it adjusted.
// Each item commits in its own transaction: a failure on one item is
// reported and does not block the rest. Re-invoking on the same check is
// safe; items already adjusted are skipped.
func (s *Service) ApplyAdjustments(ctx context.Context, checkID id.ID, actorID string) (*ApplyResult, error) {
	c, err := s.repo.GetByID(ctx, checkID)
	if err != nil {
		return nil, err
	}

	if c.Status != StatusCompleted {
		return nil, apperror.NewInvalidStateTransition("check", string(c.Status), "apply_adjustments").
			WithDetail("check_id", c.ID.String())
	}

	result := &ApplyResult{Check: c}
	for i := range c.Items {
		item := &c.Items[i]
		if !item.NeedsAdjustment() {
			result.Skipped++
			continue
		}

		applied, err := s.applyItem(ctx, c, item, actorID)
		if err != nil {
			logger.Warn(ctx, "adjustment failed",
				"check_id", c.ID,
				"item_id", item.ID,
				"product_id", item.ProductID,
				"error", err,
			)
			result.Failures = append(result.Failures, ItemFailure{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Error:     err.Error(),
			})
			continue
		}

		if applied {
			result.Applied++
			if p, perr := s.products.GetByID(ctx, item.ProductID); perr == nil {
				result.ValueDelta = result.ValueDelta.Add(
					p.Price.Mul(decimal.NewFromInt(*item.Difference)))
			} else {
				// Valuation is informational; the adjustment itself
				// already committed, so the delta stays unpriced.
				logger.Warn(ctx, "adjustment value not priced",
					"check_id", c.ID,
					"item_id", item.ID,
					"product_id", item.ProductID,
					"error", perr,
				)
			}
		} else {
			result.Skipped++
		}
	}

	logger.Info(ctx, "adjustments applied",
		"check_id", c.ID,
		"number", c.Number,
		"applied", result.Applied,
		"skipped", result.Skipped,
		"failed", len(result.Failures),
		"value_delta", result.ValueDelta,
	)
	return result, nil
}

// applyItem posts the adjustment for one item in its own transaction.
// The item row is re-read under lock so a concurrent apply cannot post
// the same adjustment twice.
func (s *Service) applyItem(ctx context.Context, c *Check, item *Item, actorID string) (bool, error) {
	applied := false

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.repo.GetItemForUpdate(ctx, item.ID)
		if err != nil {
			return err
		}
		if !locked.NeedsAdjustment() {
			*item = *locked
			return nil
		}

		t, err := s.adjustments.PostAdjustment(ctx, transaction.AdjustmentInput{
			ProductID: locked.ProductID,
			Delta:     *locked.Difference,
			Reason:    transaction.ReasonAdjustment,
			Reference: c.Number,
			ActorID:   actorID,
		})
		if err != nil {
			return err
		}

		locked.markAdjusted(t.ID)
		if err := s.repo.UpdateItem(ctx, locked); err != nil {
			return err
		}

		*item = *locked
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
