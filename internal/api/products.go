package api

import (
	"net/http"

	"pos-service/internal/catalog"
	"pos-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type addProductRequest struct {
	Name          string          `json:"name" binding:"required"`
	Category      string          `json:"category"`
	Barcode       string          `json:"barcode"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	MRP           decimal.Decimal `json:"mrp"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Stock         int             `json:"stock"`
	Unit          string          `json:"unit"`
	MinStock      int             `json:"min_stock"`
}

// listProducts searches the catalog; an empty query lists everything
func (h *Handler) listProducts(c *gin.Context) {
	products := h.pos.SearchProducts(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.pos.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) getProductByBarcode(c *gin.Context) {
	product, err := h.pos.GetProductByBarcode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// addProduct handles the admin add-product form
func (h *Handler) addProduct(c *gin.Context) {
	var req addProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondCode(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	unit := models.UnitPieces
	if req.Unit != "" {
		parsed, err := models.ParseUnit(req.Unit)
		if err != nil {
			respondError(c, err)
			return
		}
		unit = parsed
	}

	product, err := h.pos.AddProduct(c.Request.Context(), models.Product{
		Name:          req.Name,
		Category:      req.Category,
		Barcode:       req.Barcode,
		PurchasePrice: req.PurchasePrice,
		MRP:           req.MRP,
		SalePrice:     req.SalePrice,
		Stock:         req.Stock,
		Unit:          unit,
		MinStock:      req.MinStock,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// importProducts accepts a CSV or XLSX upload in the "file" form field
func (h *Handler) importProducts(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondCode(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	file, err := header.Open()
	if err != nil {
		respondCode(c, http.StatusBadRequest, codeImportFailed, err)
		return
	}
	defer file.Close()

	summary, err := h.pos.ImportProducts(c.Request.Context(), header.Filename, file)
	if err != nil {
		respondCode(c, http.StatusUnprocessableEntity, codeImportFailed, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) downloadTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="products_template.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(catalog.TemplateCSV))
}
