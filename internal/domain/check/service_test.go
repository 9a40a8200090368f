package check

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
	"partstock/internal/domain"
	"partstock/internal/domain/catalogs/product"
	"partstock/internal/domain/transaction"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeNumerator struct {
	counter int
}

func (n *fakeNumerator) Next(ctx context.Context, code string) (string, error) {
	n.counter++
	return fmt.Sprintf("%s-2026-%05d", code, n.counter), nil
}

type fakeProductRepo struct {
	products   map[id.ID]*product.Product
	order      []id.ID
	getByIDErr error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[id.ID]*product.Product)}
}

func (r *fakeProductRepo) add(quantity int64) id.ID {
	p := product.NewProduct(fmt.Sprintf("SKU-%04d", len(r.products)+1), "test part")
	p.Quantity = quantity
	r.products[p.ID] = p
	r.order = append(r.order, p.ID)
	return p.ID
}

func (r *fakeProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	if r.getByIDErr != nil {
		return nil, r.getByIDErr
	}
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

func (r *fakeProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (r *fakeProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	_, err := r.GetBySKU(ctx, sku)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	items, _ := r.ListActive(ctx)
	return domain.ListResult[*product.Product]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *fakeProductRepo) ListActive(ctx context.Context) ([]*product.Product, error) {
	var items []*product.Product
	for _, productID := range r.order {
		if p := r.products[productID]; p.IsActive {
			items = append(items, p)
		}
	}
	return items, nil
}

type fakeCheckRepo struct {
	checks map[id.ID]*Check
}

func newFakeCheckRepo() *fakeCheckRepo {
	return &fakeCheckRepo{checks: make(map[id.ID]*Check)}
}

func cloneCheck(c *Check) *Check {
	copied := *c
	copied.Items = append([]Item(nil), c.Items...)
	return &copied
}

func (r *fakeCheckRepo) Create(ctx context.Context, c *Check) error {
	r.checks[c.ID] = cloneCheck(c)
	return nil
}

func (r *fakeCheckRepo) GetByID(ctx context.Context, checkID id.ID) (*Check, error) {
	c, ok := r.checks[checkID]
	if !ok {
		return nil, apperror.NewNotFound("check", checkID.String())
	}
	return cloneCheck(c), nil
}

func (r *fakeCheckRepo) GetForUpdate(ctx context.Context, checkID id.ID) (*Check, error) {
	return r.GetByID(ctx, checkID)
}

func (r *fakeCheckRepo) Update(ctx context.Context, c *Check) error {
	stored, ok := r.checks[c.ID]
	if !ok {
		return apperror.NewNotFound("check", c.ID.String())
	}
	copied := *c
	copied.Items = stored.Items
	r.checks[c.ID] = &copied
	return nil
}

func (r *fakeCheckRepo) GetItemForUpdate(ctx context.Context, itemID id.ID) (*Item, error) {
	for _, c := range r.checks {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				copied := c.Items[i]
				return &copied, nil
			}
		}
	}
	return nil, apperror.NewNotFound("check item", itemID.String())
}

func (r *fakeCheckRepo) UpdateItem(ctx context.Context, item *Item) error {
	for _, c := range r.checks {
		for i := range c.Items {
			if c.Items[i].ID == item.ID {
				c.Items[i] = *item
				return nil
			}
		}
	}
	return apperror.NewNotFound("check item", item.ID.String())
}

func (r *fakeCheckRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Check], error) {
	var items []*Check
	for _, c := range r.checks {
		items = append(items, cloneCheck(c))
	}
	return domain.ListResult[*Check]{Items: items, TotalCount: int64(len(items))}, nil
}

// fakePoster applies adjustments directly to the product fake, standing in
// for the transaction service.
type fakePoster struct {
	products *fakeProductRepo
	fail     map[id.ID]error
	calls    []transaction.AdjustmentInput
}

func newFakePoster(products *fakeProductRepo) *fakePoster {
	return &fakePoster{products: products, fail: make(map[id.ID]error)}
}

func (p *fakePoster) PostAdjustment(ctx context.Context, in transaction.AdjustmentInput) (*transaction.Transaction, error) {
	if err, ok := p.fail[in.ProductID]; ok {
		return nil, err
	}

	prod, ok := p.products.products[in.ProductID]
	if !ok {
		return nil, apperror.NewNotFound("product", in.ProductID.String())
	}
	if prod.Quantity+in.Delta < 0 {
		return nil, apperror.NewInsufficientStock(in.ProductID.String(), -in.Delta, prod.Quantity)
	}

	previous := prod.Quantity
	prod.Quantity += in.Delta
	p.calls = append(p.calls, in)

	t := transaction.New(in.ProductID, transaction.TypeAdjustment, in.Delta, in.Reason, in.ActorID)
	t.Reference = in.Reference
	if err := t.Approve(in.ActorID, previous, prod.Quantity); err != nil {
		return nil, err
	}
	return t, nil
}

type testEnv struct {
	products *fakeProductRepo
	repo     *fakeCheckRepo
	poster   *fakePoster
	svc      *Service
}

func newTestEnv() *testEnv {
	products := newFakeProductRepo()
	repo := newFakeCheckRepo()
	poster := newFakePoster(products)
	return &testEnv{
		products: products,
		repo:     repo,
		poster:   poster,
		svc:      NewService(repo, products, poster, fakeTxManager{}, &fakeNumerator{}),
	}
}

func TestServiceCreate_SnapshotsSelectedProducts(t *testing.T) {
	env := newTestEnv()
	p1 := env.products.add(10)
	p2 := env.products.add(20)
	env.products.add(30) // not selected

	ctx := context.Background()
	c, err := env.svc.Create(ctx, CreateInput{
		ProductIDs: []id.ID{p1, p2, p1}, // duplicate collapses
		CreatedBy:  "user-1",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if c.Status != StatusPending {
		t.Errorf("expected pending, got %s", c.Status)
	}
	if c.Number == "" {
		t.Error("expected document number")
	}
	if len(c.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(c.Items))
	}
	if c.Items[0].SystemQuantity != 10 || c.Items[1].SystemQuantity != 20 {
		t.Error("system quantities not snapshotted from products")
	}

	// Snapshot is frozen: later stock changes do not leak in
	env.products.products[p1].Quantity = 99
	stored, err := env.svc.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Items[0].SystemQuantity != 10 {
		t.Errorf("snapshot must not follow stock, got %d", stored.Items[0].SystemQuantity)
	}
}

func TestServiceCreate_AllActiveProducts(t *testing.T) {
	env := newTestEnv()
	env.products.add(1)
	env.products.add(2)
	inactive := env.products.add(3)
	env.products.products[inactive].IsActive = false

	c, err := env.svc.Create(context.Background(), CreateInput{CreatedBy: "user-1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(c.Items) != 2 {
		t.Errorf("expected items for 2 active products, got %d", len(c.Items))
	}
}

func TestServiceCreate_Errors(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Create(context.Background(), CreateInput{
		ProductIDs: []id.ID{id.New()},
		CreatedBy:  "user-1",
	})
	if !apperror.IsNotFound(err) {
		t.Errorf("expected not found for unknown product, got %v", err)
	}

	// No active products means an empty check, which is invalid
	_, err = env.svc.Create(context.Background(), CreateInput{CreatedBy: "user-1"})
	if err == nil {
		t.Error("expected validation error for empty check")
	}
}

func TestServiceRecordCount_Persists(t *testing.T) {
	env := newTestEnv()
	env.products.add(10)

	ctx := context.Background()
	c, err := env.svc.Create(ctx, CreateInput{CreatedBy: "u"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Start(ctx, c.ID, "u"); err != nil {
		t.Fatal(err)
	}

	item, err := env.svc.RecordCount(ctx, c.ID, c.Items[0].ID, 8, "shelf recount")
	if err != nil {
		t.Fatalf("record count failed: %v", err)
	}
	if *item.Difference != -2 {
		t.Errorf("expected difference -2, got %d", *item.Difference)
	}

	stored, _ := env.svc.GetByID(ctx, c.ID)
	if stored.Items[0].Status != ItemStatusChecked {
		t.Error("count not persisted")
	}
	if stored.CheckedCount() != 1 {
		t.Errorf("expected 1 checked, got %d", stored.CheckedCount())
	}
}

func TestApplyAdjustments_FullFlow(t *testing.T) {
	env := newTestEnv()
	short := env.products.add(10) // will count 7
	exact := env.products.add(20) // will count 20
	env.products.add(30)          // never counted
	env.products.products[short].Price = decimal.RequireFromString("25.50")

	ctx := context.Background()
	c, err := env.svc.Create(ctx, CreateInput{CreatedBy: "user-1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Start(ctx, c.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.RecordCount(ctx, c.ID, c.Items[0].ID, 7, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.RecordCount(ctx, c.ID, c.Items[1].ID, 20, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Complete(ctx, c.ID, "user-1"); err != nil {
		t.Fatal(err)
	}

	result, err := env.svc.ApplyAdjustments(ctx, c.ID, "user-1")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Applied != 1 {
		t.Errorf("expected 1 applied, got %d", result.Applied)
	}
	if result.Skipped != 2 {
		t.Errorf("expected 2 skipped (zero difference and uncounted), got %d", result.Skipped)
	}
	if len(result.Failures) != 0 {
		t.Errorf("expected no failures, got %v", result.Failures)
	}
	if want := decimal.RequireFromString("-76.50"); !result.ValueDelta.Equal(want) {
		t.Errorf("expected value delta %s, got %s", want, result.ValueDelta)
	}

	if env.products.products[short].Quantity != 7 {
		t.Errorf("expected stock corrected to 7, got %d", env.products.products[short].Quantity)
	}
	if env.products.products[exact].Quantity != 20 {
		t.Errorf("expected stock untouched at 20, got %d", env.products.products[exact].Quantity)
	}

	if len(env.poster.calls) != 1 {
		t.Fatalf("expected 1 adjustment posted, got %d", len(env.poster.calls))
	}
	call := env.poster.calls[0]
	if call.Delta != -3 {
		t.Errorf("expected delta -3, got %d", call.Delta)
	}
	if call.Reference != c.Number {
		t.Errorf("expected reference %q, got %q", c.Number, call.Reference)
	}
	if call.Reason != transaction.ReasonAdjustment {
		t.Errorf("expected adjustment reason, got %q", call.Reason)
	}

	stored, _ := env.svc.GetByID(ctx, c.ID)
	if stored.Items[0].Status != ItemStatusAdjusted {
		t.Errorf("expected item adjusted, got %s", stored.Items[0].Status)
	}
	if stored.Items[0].AdjustmentID == nil {
		t.Error("expected adjustment transaction link")
	}
}

func TestApplyAdjustments_Idempotent(t *testing.T) {
	env := newTestEnv()
	productID := env.products.add(10)

	ctx := context.Background()
	c, _ := env.svc.Create(ctx, CreateInput{CreatedBy: "u"})
	_, _ = env.svc.Start(ctx, c.ID, "u")
	if _, err := env.svc.RecordCount(ctx, c.ID, c.Items[0].ID, 4, ""); err != nil {
		t.Fatal(err)
	}
	_, _ = env.svc.Complete(ctx, c.ID, "u")

	first, err := env.svc.ApplyAdjustments(ctx, c.ID, "u")
	if err != nil {
		t.Fatal(err)
	}
	if first.Applied != 1 {
		t.Fatalf("expected 1 applied, got %d", first.Applied)
	}

	second, err := env.svc.ApplyAdjustments(ctx, c.ID, "u")
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if second.Applied != 0 {
		t.Errorf("expected nothing applied on re-invocation, got %d", second.Applied)
	}
	if second.Skipped != 1 {
		t.Errorf("expected adjusted item skipped, got %d", second.Skipped)
	}

	if len(env.poster.calls) != 1 {
		t.Errorf("expected single posted adjustment, got %d", len(env.poster.calls))
	}
	if env.products.products[productID].Quantity != 4 {
		t.Errorf("expected stock 4 after single apply, got %d", env.products.products[productID].Quantity)
	}
}

func TestApplyAdjustments_RequiresCompleted(t *testing.T) {
	env := newTestEnv()
	env.products.add(10)

	ctx := context.Background()
	c, _ := env.svc.Create(ctx, CreateInput{CreatedBy: "u"})

	if _, err := env.svc.ApplyAdjustments(ctx, c.ID, "u"); !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition from pending, got %v", err)
	}

	_, _ = env.svc.Start(ctx, c.ID, "u")
	if _, err := env.svc.ApplyAdjustments(ctx, c.ID, "u"); !apperror.IsInvalidStateTransition(err) {
		t.Fatalf("expected invalid state transition from in_progress, got %v", err)
	}
}

func TestApplyAdjustments_PartialFailure(t *testing.T) {
	env := newTestEnv()
	good := env.products.add(10)
	bad := env.products.add(10)

	ctx := context.Background()
	c, _ := env.svc.Create(ctx, CreateInput{CreatedBy: "u"})
	_, _ = env.svc.Start(ctx, c.ID, "u")
	if _, err := env.svc.RecordCount(ctx, c.ID, c.Items[0].ID, 6, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.RecordCount(ctx, c.ID, c.Items[1].ID, 3, ""); err != nil {
		t.Fatal(err)
	}
	_, _ = env.svc.Complete(ctx, c.ID, "u")

	env.poster.fail[bad] = apperror.NewInternal(fmt.Errorf("connection reset"))

	result, err := env.svc.ApplyAdjustments(ctx, c.ID, "u")
	if err != nil {
		t.Fatalf("apply must not fail as a whole: %v", err)
	}
	if result.Applied != 1 {
		t.Errorf("expected the healthy item applied, got %d", result.Applied)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(result.Failures))
	}
	if result.Failures[0].ProductID != bad {
		t.Error("failure reported for the wrong product")
	}

	if env.products.products[good].Quantity != 6 {
		t.Errorf("expected healthy product corrected to 6, got %d", env.products.products[good].Quantity)
	}
	if env.products.products[bad].Quantity != 10 {
		t.Errorf("expected failed product untouched at 10, got %d", env.products.products[bad].Quantity)
	}

	// The failed item stays checked and a later run picks it up
	delete(env.poster.fail, bad)
	retry, err := env.svc.ApplyAdjustments(ctx, c.ID, "u")
	if err != nil {
		t.Fatal(err)
	}
	if retry.Applied != 1 || len(retry.Failures) != 0 {
		t.Errorf("expected retry to apply the failed item, got applied=%d failures=%d",
			retry.Applied, len(retry.Failures))
	}
	if env.products.products[bad].Quantity != 3 {
		t.Errorf("expected failed product corrected to 3 on retry, got %d", env.products.products[bad].Quantity)
	}
}

func TestApplyAdjustments_ValuationReadFailure(t *testing.T) {
	env := newTestEnv()
	productID := env.products.add(10)
	env.products.products[productID].Price = decimal.RequireFromString("9.99")

	ctx := context.Background()
	c, _ := env.svc.Create(ctx, CreateInput{CreatedBy: "u"})
	_, _ = env.svc.Start(ctx, c.ID, "u")
	if _, err := env.svc.RecordCount(ctx, c.ID, c.Items[0].ID, 7, ""); err != nil {
		t.Fatal(err)
	}
	_, _ = env.svc.Complete(ctx, c.ID, "u")

	// Pricing reads fail, the adjustment itself still goes through
	env.products.getByIDErr = apperror.NewInternal(fmt.Errorf("connection reset"))

	result, err := env.svc.ApplyAdjustments(ctx, c.ID, "u")
	if err != nil {
		t.Fatalf("apply must not fail on a valuation read error: %v", err)
	}
	if result.Applied != 1 {
		t.Errorf("expected 1 applied, got %d", result.Applied)
	}
	if len(result.Failures) != 0 {
		t.Errorf("expected no failures, got %v", result.Failures)
	}
	if !result.ValueDelta.IsZero() {
		t.Errorf("expected unpriced delta to stay zero, got %s", result.ValueDelta)
	}
	if env.products.products[productID].Quantity != 7 {
		t.Errorf("expected stock corrected to 7, got %d", env.products.products[productID].Quantity)
	}
}
