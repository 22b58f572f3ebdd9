package dashboard

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/akoval/checkwatch/internal/history"
)

var exportHeader = []string{
	"Timestamp",
	"Product",
	"UKTZED",
	"Barcode",
	"Quantity",
	"Unit Price (UAH)",
	"Total Price (UAH)",
	"Price Details",
	"URL",
}

// exportRows flattens records into export rows, one per sale item
func exportRows(records []history.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		for _, item := range record.Items {
			rows = append(rows, []string{
				record.Timestamp,
				item.ProductName,
				item.TaxCode,
				item.Barcode,
				item.Quantity,
				item.UnitPrice,
				item.TotalPrice,
				item.PriceDetails,
				record.URL,
			})
		}
	}
	return rows
}

func exportFilename(ext string) string {
	return fmt.Sprintf("pharmacy-sales-%s.%s", time.Now().Format("2006-01-02"), ext)
}

// handleExportCSV streams the full sales history as CSV
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.LoadAll()
	if err != nil {
		slog.Error("Error loading records", "error", err)
		records = nil
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename("csv")))

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		slog.Error("Error writing CSV header", "error", err)
		return
	}
	for _, row := range exportRows(records) {
		if err := writer.Write(row); err != nil {
			slog.Error("Error writing CSV row", "error", err)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Error("Error flushing CSV", "error", err)
	}
}

// handleExportXLSX streams the full sales history as an Excel workbook
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.LoadAll()
	if err != nil {
		slog.Error("Error loading records", "error", err)
		records = nil
	}

	const sheet = "Sales"
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		slog.Error("Error creating sheet", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	header := make([]interface{}, len(exportHeader))
	for i, col := range exportHeader {
		header[i] = col
	}
	if err := setSheetRow(f, sheet, 1, header); err != nil {
		slog.Error("Error writing sheet header", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	for i, row := range exportRows(records) {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		if err := setSheetRow(f, sheet, i+2, cells); err != nil {
			slog.Error("Error writing sheet row", "error", err)
			corsError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename("xlsx")))

	if err := f.Write(w); err != nil {
		slog.Error("Error writing workbook", "error", err)
	}
}

// setSheetRow writes one row starting at column A
func setSheetRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
