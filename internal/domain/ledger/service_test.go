package ledger

import (
	"context"
	"testing"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
)

type fakeRepo struct {
	quantities map[id.ID]int64
	setCalls   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{quantities: make(map[id.ID]int64)}
}

func (r *fakeRepo) GetQuantityForUpdate(ctx context.Context, productID id.ID) (int64, error) {
	q, ok := r.quantities[productID]
	if !ok {
		return 0, apperror.NewNotFound("product", productID.String())
	}
	return q, nil
}

func (r *fakeRepo) SetQuantity(ctx context.Context, productID id.ID, quantity int64) error {
	r.setCalls++
	r.quantities[productID] = quantity
	return nil
}

func TestApplyDelta_Increase(t *testing.T) {
	repo := newFakeRepo()
	productID := id.New()
	repo.quantities[productID] = 10

	svc := NewService(repo)

	app, err := svc.ApplyDelta(context.Background(), productID, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.PreviousQuantity != 10 {
		t.Errorf("expected previous 10, got %d", app.PreviousQuantity)
	}
	if app.NewQuantity != 15 {
		t.Errorf("expected new 15, got %d", app.NewQuantity)
	}
	if repo.quantities[productID] != 15 {
		t.Errorf("expected stored quantity 15, got %d", repo.quantities[productID])
	}
}

func TestApplyDelta_DecreaseToZero(t *testing.T) {
	repo := newFakeRepo()
	productID := id.New()
	repo.quantities[productID] = 7

	svc := NewService(repo)

	app, err := svc.ApplyDelta(context.Background(), productID, -7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.NewQuantity != 0 {
		t.Errorf("expected new 0, got %d", app.NewQuantity)
	}
}

func TestApplyDelta_InsufficientStock(t *testing.T) {
	repo := newFakeRepo()
	productID := id.New()
	repo.quantities[productID] = 3

	svc := NewService(repo)

	_, err := svc.ApplyDelta(context.Background(), productID, -4)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	appErr, _ := apperror.AsAppError(err)
	if appErr.Details["requested"] != int64(4) {
		t.Errorf("expected requested 4, got %v", appErr.Details["requested"])
	}
	if appErr.Details["available"] != int64(3) {
		t.Errorf("expected available 3, got %v", appErr.Details["available"])
	}

	// Refused apply must not write
	if repo.setCalls != 0 {
		t.Errorf("expected no writes, got %d", repo.setCalls)
	}
	if repo.quantities[productID] != 3 {
		t.Errorf("expected quantity unchanged at 3, got %d", repo.quantities[productID])
	}
}

func TestApplyDelta_ZeroDelta(t *testing.T) {
	repo := newFakeRepo()
	productID := id.New()
	repo.quantities[productID] = 5

	svc := NewService(repo)

	app, err := svc.ApplyDelta(context.Background(), productID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.PreviousQuantity != 5 || app.NewQuantity != 5 {
		t.Errorf("expected 5 -> 5, got %d -> %d", app.PreviousQuantity, app.NewQuantity)
	}
}

func TestApplyDelta_UnknownProduct(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.ApplyDelta(context.Background(), id.New(), 1)
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
