package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pos-service/internal/report"

	"github.com/gin-gonic/gin"
)

const defaultTopProducts = 5

func (h *Handler) salesReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.pos.SalesReport(c.Request.Context()))
}

// productsReport ranks products; ?limit=0 returns every product sold
func (h *Handler) productsReport(c *gin.Context) {
	limit := defaultTopProducts
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondCode(c, http.StatusBadRequest, codeInvalidRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, gin.H{
		"products": h.pos.TopProducts(c.Request.Context(), limit),
	})
}

func (h *Handler) categoriesReport(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": h.pos.CategoryReport(c.Request.Context()),
	})
}

func (h *Handler) inventoryReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.pos.InventoryReport(c.Request.Context()))
}

func (h *Handler) exportReports(c *gin.Context) {
	buf, err := h.pos.ExportReports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("pos_report_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, report.ContentTypeXLSX, buf.Bytes())
}
