package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook
const (
	SheetSummary    = "Summary"
	SheetDaily      = "Daily Sales"
	SheetProducts   = "Top Products"
	SheetCategories = "Categories"
	SheetInventory  = "Inventory"
)

// ContentTypeXLSX is the media type of the exported workbook
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook bundles every report for export
type Workbook struct {
	Sales      SalesSummary
	Products   []ProductPerformance
	Categories []CategoryShare
	Inventory  Inventory
}

type sheetWriter struct {
	f           *excelize.File
	headerStyle int
}

// ExportXLSX renders the workbook with one sheet per report
func ExportXLSX(w Workbook) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	sw := &sheetWriter{f: f, headerStyle: headerStyle}

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Total Sales", w.Sales.TotalSales.InexactFloat64()},
		{"Bills", w.Sales.BillCount},
		{"Average Bill", w.Sales.AverageBill.InexactFloat64()},
		{"Total Savings", w.Sales.TotalSavings.InexactFloat64()},
		{"Inventory Value", w.Inventory.TotalValue.InexactFloat64()},
		{"Low Stock Items", w.Inventory.LowStock},
		{"Out of Stock Items", w.Inventory.OutOfStock},
	}
	if err := sw.table(SheetSummary, []string{"Metric", "Value"}, summary); err != nil {
		return nil, err
	}

	daily := make([][]interface{}, 0, len(w.Sales.Daily))
	for _, d := range w.Sales.Daily {
		daily = append(daily, []interface{}{d.Date, d.Sales.InexactFloat64(), d.Bills})
	}
	if err := sw.newTable(SheetDaily, []string{"Date", "Sales", "Bills"}, daily); err != nil {
		return nil, err
	}

	products := make([][]interface{}, 0, len(w.Products))
	for i, p := range w.Products {
		products = append(products, []interface{}{
			i + 1, p.Name, p.UnitsSold.InexactFloat64(), string(p.Unit), p.Revenue.InexactFloat64(), p.Rating,
		})
	}
	if err := sw.newTable(SheetProducts,
		[]string{"Rank", "Product", "Units Sold", "Unit", "Revenue", "Performance"}, products); err != nil {
		return nil, err
	}

	categories := make([][]interface{}, 0, len(w.Categories))
	for _, c := range w.Categories {
		categories = append(categories, []interface{}{c.Category, c.Revenue.InexactFloat64(), c.Percent.InexactFloat64()})
	}
	if err := sw.newTable(SheetCategories, []string{"Category", "Revenue", "Share %"}, categories); err != nil {
		return nil, err
	}

	inventory := make([][]interface{}, 0, len(w.Inventory.Items))
	for _, item := range w.Inventory.Items {
		inventory = append(inventory, []interface{}{
			item.ProductID, item.Name, item.Category, item.SalePrice.InexactFloat64(),
			item.Stock, item.MinStock, string(item.Unit), item.Value.InexactFloat64(), item.Status,
		})
	}
	if err := sw.newTable(SheetInventory,
		[]string{"ID", "Product", "Category", "Sale Price", "Stock", "Min Stock", "Unit", "Value", "Status"},
		inventory); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func (sw *sheetWriter) newTable(sheet string, headers []string, rows [][]interface{}) error {
	if _, err := sw.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	return sw.table(sheet, headers, rows)
}

func (sw *sheetWriter) table(sheet string, headers []string, rows [][]interface{}) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := sw.f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header %s: %w", h, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := sw.f.SetCellStyle(sheet, "A1", last, sw.headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		values := row
		if err := sw.f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+2, sheet, err)
		}
	}

	if err := sw.f.AutoFilter(sheet, "A1:"+last, []excelize.AutoFilterOptions{}); err != nil {
		return fmt.Errorf("failed to set filter on %s: %w", sheet, err)
	}
	return sw.f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
