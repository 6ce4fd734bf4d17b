package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/samber/lo"
)

func (h *handler) listOrders(c *gin.Context) {
	var query listOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.writeBadRequest(c, "invalid query", err)
		return
	}
	if err := h.validate.Struct(query); err != nil {
		h.writeBadRequest(c, "validation failed", err)
		return
	}

	var filter domain.OrderFilter
	if query.CustomerID != "" {
		filter.CustomerIDs = []uuid.UUID{uuid.MustParse(query.CustomerID)}
	}
	if query.Status != "" {
		filter.Statuses = []domain.OrderStatus{domain.OrderStatus(query.Status)}
	}

	orders, err := h.svc.SearchOrders(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(orders, func(o domain.Order, _ int) orderResponse {
		return toOrderResponse(o)
	}))
}

func (h *handler) listCustomerOrders(c *gin.Context) {
	customerID, ok := h.pathUUID(c, "customerId")
	if !ok {
		return
	}

	orders, err := h.svc.FindOrdersByCustomerID(c.Request.Context(), customerID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(orders, func(o domain.Order, _ int) orderResponse {
		return toOrderResponse(o)
	}))
}

func (h *handler) getOrder(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	order, found, err := h.svc.FindOrderByID(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !found {
		h.writeError(c, domain.ErrOrderNotFound)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *handler) getOrderByNumber(c *gin.Context) {
	order, found, err := h.svc.FindOrderByNumber(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !found {
		h.writeError(c, domain.ErrOrderNotFound)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	items := lo.Map(req.Items, func(item orderItemRequest, _ int) domain.OrderItem {
		return item.toDomain()
	})
	for _, item := range items {
		if err := item.Validate(); err != nil {
			h.writeError(c, err)
			return
		}
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), uuid.MustParse(req.CustomerID), items)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Location", "/api/orders/"+order.ID.String())
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *handler) addItem(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req orderItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item := req.toDomain()
	if err := item.Validate(); err != nil {
		h.writeError(c, err)
		return
	}

	added, err := h.svc.AddItemToOrder(c.Request.Context(), orderID, item)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderItemResponse(added))
}

func (h *handler) updateItem(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(c, "itemId")
	if !ok {
		return
	}

	var req updateOrderItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item := domain.OrderItem{
		ID:        itemID,
		Quantity:  req.Quantity,
		UnitPrice: toNullDecimal(req.UnitPrice),
	}
	if err := item.Validate(); err != nil {
		h.writeError(c, err)
		return
	}

	updated, err := h.svc.UpdateOrderItem(c.Request.Context(), orderID, item)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderItemResponse(updated))
}

func (h *handler) removeItem(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(c, "itemId")
	if !ok {
		return
	}

	if err := h.svc.RemoveItemFromOrder(c.Request.Context(), orderID, itemID); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) getOrderTotal(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	total, err := h.svc.CalculateOrderTotal(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMoneyResponse(total))
}

func (h *handler) finalizeOrder(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.svc.FinalizeOrder(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *handler) cancelOrder(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.svc.CancelOrder(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// bindJSON binds and validates the body, writing a 400 on failure.
func (h *handler) bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		h.writeBadRequest(c, "invalid request body", err)
		return false
	}

	if err := h.validate.Struct(out); err != nil {
		h.writeBadRequest(c, "validation failed", err)
		return false
	}

	return true
}

func (h *handler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.writeBadRequest(c, name+" is not a valid uuid", err)
		return uuid.Nil, false
	}

	return id, true
}
