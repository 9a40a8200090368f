package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"partstock/internal/core/id"
	"partstock/internal/domain"
	"partstock/internal/domain/check"
	"partstock/internal/infrastructure/http/v1/dto"
)

// CheckHandler handles HTTP requests for inventory checks.
type CheckHandler struct {
	*BaseHandler
	service *check.Service
}

// NewCheckHandler creates a new check handler.
func NewCheckHandler(base *BaseHandler, service *check.Service) *CheckHandler {
	return &CheckHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *CheckHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateCheckRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productIDs := make([]id.ID, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, invalidField("productIds"))
			return
		}
		productIDs = append(productIDs, parsed)
	}

	result, err := h.service.Create(ctx, check.CreateInput{
		ProductIDs: productIDs,
		Notes:      req.Notes,
		CreatedBy:  h.GetUserID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromCheck(result))
}

func (h *CheckHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	checkID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetByID(ctx, checkID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCheck(result))
}

// UpdateStatus drives the check lifecycle (start, complete, cancel).
func (h *CheckHandler) UpdateStatus(c *gin.Context) {
	ctx := c.Request.Context()

	checkID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCheckStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	actorID := h.GetUserID(c)

	var (
		result *check.Check
		err    error
	)
	switch check.Status(req.Status) {
	case check.StatusInProgress:
		result, err = h.service.Start(ctx, checkID, actorID)
	case check.StatusCompleted:
		result, err = h.service.Complete(ctx, checkID, actorID)
	case check.StatusCancelled:
		result, err = h.service.Cancel(ctx, checkID, actorID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCheck(result))
}

// RecordCount stores a physical count for one item.
func (h *CheckHandler) RecordCount(c *gin.Context) {
	ctx := c.Request.Context()

	checkID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	var req dto.RecordCountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.service.RecordCount(ctx, checkID, itemID, *req.ActualQuantity, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCheckItem(item))
}

// Apply converts counted differences into adjustment transactions.
func (h *CheckHandler) Apply(c *gin.Context) {
	ctx := c.Request.Context()

	checkID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.ApplyAdjustments(ctx, checkID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromApplyResult(result))
}

func (h *CheckHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := check.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-created_at")

	if status := c.Query("status"); status != "" {
		s := check.Status(status)
		filter.Status = &s
	}
	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromChecks(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
