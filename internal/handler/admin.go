package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cloudsupply/storebot/internal/dto"
	"github.com/cloudsupply/storebot/internal/model"
	"github.com/cloudsupply/storebot/internal/service"
)

// AdminHandler is the ops HTTP surface: read-only store insight plus the
// backup and repair maintenance triggers. Everything the admin does day to
// day happens in the chat; this exists for dashboards and cron.
type AdminHandler struct {
	orders *service.OrderService
	stats  *service.StatsService
	backup *service.BackupService
}

func NewAdminHandler(orders *service.OrderService, stats *service.StatsService, backup *service.BackupService) *AdminHandler {
	return &AdminHandler{orders: orders, stats: stats, backup: backup}
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.Collect(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := dto.StatsResponse{
		Orders:  stats.OrderCount,
		Users:   stats.UserCount,
		Revenue: stats.TotalRevenue.StringFixed(2),
		Cost:    stats.TotalCost.StringFixed(2),
		Profit:  stats.Profit.StringFixed(2),
	}
	for _, top := range stats.TopProducts {
		resp.TopProducts = append(resp.TopProducts, dto.TopProductEntry{
			ProductID: top.Product.ID.String(),
			Flavor:    top.Product.Flavor,
			UnitsSold: top.UnitsSold,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var items []dto.OrderResponse
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: items, Total: len(items)})
}

func (h *AdminHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *AdminHandler) TriggerBackup(c *gin.Context) {
	path, err := h.backup.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, dto.BackupResponse{Path: path})
}

func (h *AdminHandler) TriggerRepair(c *gin.Context) {
	repaired, err := h.orders.RepairAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.RepairResponse{OrdersRepaired: repaired})
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:             o.ID.String(),
		UserID:         o.UserID.String(),
		Status:         string(o.Status),
		TotalPrice:     o.TotalPrice.StringFixed(2),
		DeliveryMethod: string(o.DeliveryMethod),
		DeliveryFee:    o.DeliveryFee.StringFixed(2),
		ContactInfo:    o.ContactInfo,
		CreatedAt:      o.CreatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID:    item.ProductID.String(),
			Quantity:     item.Quantity,
			PriceAtOrder: item.PriceAtOrder.StringFixed(2),
		})
	}
	return resp
}
