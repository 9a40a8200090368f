package dto

import (
	"time"

	"partstock/internal/domain/check"
)

// CreateCheckRequest opens a new check session.
// Empty productIds snapshots all active products.
type CreateCheckRequest struct {
	ProductIDs []string `json:"productIds"`
	Notes      string   `json:"notes"`
}

// UpdateCheckStatusRequest drives the check lifecycle.
type UpdateCheckStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=in_progress completed cancelled"`
}

// RecordCountRequest stores a physical count for one item.
type RecordCountRequest struct {
	ActualQuantity *int64 `json:"actualQuantity" binding:"required"`
	Notes          string `json:"notes"`
}

// CheckItemResponse contains check item fields.
type CheckItemResponse struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"productId"`
	SystemQuantity int64   `json:"systemQuantity"`
	ActualQuantity *int64  `json:"actualQuantity,omitempty"`
	Difference     *int64  `json:"difference,omitempty"`
	Status         string  `json:"status"`
	Notes          string  `json:"notes,omitempty"`
	AdjustmentID   *string `json:"adjustmentId,omitempty"`
}

// FromCheckItem creates CheckItemResponse from an item.
func FromCheckItem(i *check.Item) CheckItemResponse {
	resp := CheckItemResponse{
		ID:             i.ID.String(),
		ProductID:      i.ProductID.String(),
		SystemQuantity: i.SystemQuantity,
		ActualQuantity: i.ActualQuantity,
		Difference:     i.Difference,
		Status:         string(i.Status),
		Notes:          i.Notes,
	}
	if i.AdjustmentID != nil {
		s := i.AdjustmentID.String()
		resp.AdjustmentID = &s
	}
	return resp
}

// CheckResponse contains check fields with items.
type CheckResponse struct {
	ID           string              `json:"id"`
	Number       string              `json:"checkNumber"`
	Status       string              `json:"status"`
	Notes        string              `json:"notes,omitempty"`
	StartDate    *time.Time          `json:"startDate,omitempty"`
	EndDate      *time.Time          `json:"endDate,omitempty"`
	Items        []CheckItemResponse `json:"items"`
	ItemCount    int                 `json:"itemCount"`
	CheckedCount int                 `json:"checkedCount"`
	Version      int                 `json:"version"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	CreatedBy    string              `json:"createdBy,omitempty"`
}

// FromCheck creates CheckResponse from a check.
func FromCheck(c *check.Check) CheckResponse {
	items := make([]CheckItemResponse, 0, len(c.Items))
	for i := range c.Items {
		items = append(items, FromCheckItem(&c.Items[i]))
	}
	return CheckResponse{
		ID:           c.ID.String(),
		Number:       c.Number,
		Status:       string(c.Status),
		Notes:        c.Notes,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		Items:        items,
		ItemCount:    len(c.Items),
		CheckedCount: c.CheckedCount(),
		Version:      c.Version,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		CreatedBy:    c.CreatedBy,
	}
}

// FromChecks maps a check slice to responses (items omitted by List).
func FromChecks(items []*check.Check) []CheckResponse {
	out := make([]CheckResponse, 0, len(items))
	for _, c := range items {
		out = append(out, FromCheck(c))
	}
	return out
}

// ItemFailureResponse reports one item that could not be adjusted.
type ItemFailureResponse struct {
	ItemID    string `json:"itemId"`
	ProductID string `json:"productId"`
	Error     string `json:"error"`
}

// ApplyResponse reports the outcome of applying a check's adjustments.
type ApplyResponse struct {
	Check      CheckResponse         `json:"check"`
	Applied    int                   `json:"applied"`
	Skipped    int                   `json:"skipped"`
	ValueDelta string                `json:"valueDelta"`
	Failures   []ItemFailureResponse `json:"failures,omitempty"`
}

// FromApplyResult creates ApplyResponse from a service result.
func FromApplyResult(r *check.ApplyResult) ApplyResponse {
	failures := make([]ItemFailureResponse, 0, len(r.Failures))
	for _, f := range r.Failures {
		failures = append(failures, ItemFailureResponse{
			ItemID:    f.ItemID.String(),
			ProductID: f.ProductID.String(),
			Error:     f.Error,
		})
	}
	resp := ApplyResponse{
		Check:      FromCheck(r.Check),
		Applied:    r.Applied,
		Skipped:    r.Skipped,
		ValueDelta: r.ValueDelta.String(),
	}
	if len(failures) > 0 {
		resp.Failures = failures
	}
	return resp
}
