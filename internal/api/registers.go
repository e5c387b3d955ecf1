package api

import (
	"net/http"

	"pos-service/internal/models"
	"pos-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type updateItemRequest struct {
	Quantity *decimal.Decimal `json:"quantity" binding:"required"`
}

type convertItemRequest struct {
	Unit string `json:"unit" binding:"required"`
}

type generateBillRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.pos.Cart(c.Request.Context(), c.Param("register")))
}

func (h *Handler) clearCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.pos.ClearCart(c.Request.Context(), c.Param("register")))
}

// addItem selects a product by id or barcode into the register's cart.
// A price mismatch answers 409; resending with confirm_price keeps the system price.
func (h *Handler) addItem(c *gin.Context) {
	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondCode(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	register := c.Param("register")
	line, err := h.pos.AddItem(c.Request.Context(), register, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"item": line,
		"cart": h.pos.Cart(c.Request.Context(), register),
	})
}

func (h *Handler) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondCode(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	view, err := h.pos.UpdateItem(c.Request.Context(), c.Param("register"), c.Param("id"), *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeItem(c *gin.Context) {
	c.JSON(http.StatusOK, h.pos.RemoveItem(c.Request.Context(), c.Param("register"), c.Param("id")))
}

func (h *Handler) convertItem(c *gin.Context) {
	var req convertItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondCode(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	register := c.Param("register")
	line, err := h.pos.ConvertItem(c.Request.Context(), register, c.Param("id"), req.Unit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item": line,
		"cart": h.pos.Cart(c.Request.Context(), register),
	})
}

func (h *Handler) setCustomer(c *gin.Context) {
	var req models.CustomerDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		respondCode(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}
	c.JSON(http.StatusOK, h.pos.SetCustomer(c.Request.Context(), c.Param("register"), req))
}

// generateBill snapshots the cart; the Idempotency-Key header wins over the body field
func (h *Handler) generateBill(c *gin.Context) {
	var req generateBillRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondCode(c, http.StatusBadRequest, codeInvalidRequest, err)
			return
		}
	}
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	bill, err := h.pos.GenerateBill(c.Request.Context(), c.Param("register"), currentSession(c).Name, req.IdempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bill)
}

func (h *Handler) completeSale(c *gin.Context) {
	sale, err := h.pos.CompleteSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) listBills(c *gin.Context) {
	bills := h.pos.ListBills(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"bills": bills,
		"count": len(bills),
	})
}

func (h *Handler) getBill(c *gin.Context) {
	ctx := c.Request.Context()
	bill, err := h.pos.GetBill(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bill":      bill,
		"completed": h.pos.IsCompleted(ctx, bill.ID),
	})
}
