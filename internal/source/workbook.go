// Package source reads budget workbooks and expense ledgers into typed tables.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

// ReadWorkbook reads the first sheet of an .xlsx workbook, or a .csv file,
// into a table. The format is chosen from name's extension.
func ReadWorkbook(r io.Reader, name string) (model.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return readXLSX(r)
	case ".csv":
		return readCSV(r)
	default:
		return model.Table{}, &model.SchemaError{Reason: "unsupported workbook format", Value: name}
	}
}

func readXLSX(r io.Reader) (model.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Table{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return model.Table{}, &model.SchemaError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return model.Table{}, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return toTable(rows)
}

func readCSV(r io.Reader) (model.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Table{}, fmt.Errorf("reading csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return toTable(rows)
}

// toTable splits off the header and drops fully blank rows.
func toTable(rows [][]string) (model.Table, error) {
	if len(rows) == 0 {
		return model.Table{}, &model.SchemaError{Reason: "empty table"}
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := model.Table{Header: header}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
