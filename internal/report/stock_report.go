package report

import (
	"bytes"
	"fmt"
	"time"

	"go-gearbox-mes/internal/repository"

	"github.com/xuri/excelize/v2"
)

// StockReporter renders the current stock position as an xlsx workbook with
// one sheet for material totals and one for the open lots behind them.
type StockReporter struct {
	materialRepo repository.MaterialRepository
}

func NewStockReporter(materialRepo repository.MaterialRepository) *StockReporter {
	return &StockReporter{materialRepo: materialRepo}
}

// FileName returns a timestamped name for the generated workbook.
func (r *StockReporter) FileName() string {
	return fmt.Sprintf("stock_report_%s.xlsx", time.Now().Format("20060102_150405"))
}

func (r *StockReporter) Generate() ([]byte, error) {
	materials, err := r.materialRepo.FindAll()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, "Materials"); err != nil {
		return nil, err
	}
	sheet = "Materials"

	header := []interface{}{
		"code",
		"name",
		"category",
		"unit",
		"current_stock",
		"min_stock",
		"target_stock",
		"critical",
		"below_min",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	row := 2
	for _, m := range materials {
		excelRow := []interface{}{
			m.Code,
			m.Name,
			m.Category,
			m.Unit,
			m.CurrentStock.String(),
			m.MinStock.String(),
			m.TargetStock.String(),
			m.IsCritical,
			m.CurrentStock.LessThan(m.MinStock),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, err
		}
		row++
	}

	lotSheet := "Lots"
	if _, err := f.NewSheet(lotSheet); err != nil {
		return nil, err
	}
	lotHeader := []interface{}{
		"material_code",
		"lot_no",
		"invoice_no",
		"entry_date",
		"quantity",
		"remaining",
	}
	if err := f.SetSheetRow(lotSheet, "A1", &lotHeader); err != nil {
		return nil, err
	}

	row = 2
	for _, m := range materials {
		lots, err := r.materialRepo.FindLotsByMaterial(m.ID)
		if err != nil {
			return nil, err
		}
		for _, lot := range lots {
			if lot.Remaining.Sign() <= 0 {
				continue
			}
			excelRow := []interface{}{
				m.Code,
				lot.LotNo,
				lot.InvoiceNo,
				lot.EntryDate.Format("2006-01-02"),
				lot.Quantity.String(),
				lot.Remaining.String(),
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(lotSheet, cell, &excelRow); err != nil {
				return nil, err
			}
			row++
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
