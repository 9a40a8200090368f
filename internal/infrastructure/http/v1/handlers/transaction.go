package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"partstock/internal/core/id"
	"partstock/internal/domain"
	"partstock/internal/domain/transaction"
	"partstock/internal/infrastructure/http/v1/dto"
)

// TransactionHandler handles HTTP requests for inventory transactions.
type TransactionHandler struct {
	*BaseHandler
	service *transaction.Service
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(base *BaseHandler, service *transaction.Service) *TransactionHandler {
	return &TransactionHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *TransactionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, invalidField("productId"))
		return
	}

	t, err := h.service.Create(ctx, transaction.CreateInput{
		ProductID: productID,
		Type:      transaction.Type(req.Type),
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		Reference: req.Reference,
		Notes:     req.Notes,
		CreatedBy: h.GetUserID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromTransaction(t))
}

func (h *TransactionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	transactionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetByID(ctx, transactionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransaction(t))
}

// UpdateStatus decides a pending transaction (approve or reject).
func (h *TransactionHandler) UpdateStatus(c *gin.Context) {
	ctx := c.Request.Context()

	transactionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTransactionStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var (
		t   *transaction.Transaction
		err error
	)
	switch transaction.Status(req.Status) {
	case transaction.StatusApproved:
		t, err = h.service.Approve(ctx, transactionID, h.GetUserID(c))
	case transaction.StatusRejected:
		t, err = h.service.Reject(ctx, transactionID, h.GetUserID(c))
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransaction(t))
}

func (h *TransactionHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := transaction.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-created_at")

	if productID := c.Query("productId"); productID != "" {
		if parsed, err := id.Parse(productID); err == nil {
			filter.ProductID = &parsed
		}
	}
	if movementType := c.Query("type"); movementType != "" {
		t := transaction.Type(movementType)
		filter.Type = &t
	}
	if status := c.Query("status"); status != "" {
		s := transaction.Status(status)
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
		Items:      dto.FromTransactions(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
