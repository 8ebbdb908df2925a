package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Field is one named cell of a row.
type Field struct {
	Key   string
	Value interface{}
}

// Row keeps its fields in column order.
type Row []Field

// Formatter renders a titled table into a downloadable document.
type Formatter interface {
	Format(title string, rows []Row) (*bytes.Buffer, error)
}

// XLSXFormatter writes a single-sheet workbook: a merged title line, a bold
// header built from the first row's keys, then one line per row.
type XLSXFormatter struct {
	SheetName string
}

func NewXLSXFormatter() *XLSXFormatter {
	return &XLSXFormatter{SheetName: "Report"}
}

func (x *XLSXFormatter) Format(title string, rows []Row) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := x.SheetName
	if sheet == "" {
		sheet = "Report"
	}
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("drop default sheet: %w", err)
		}
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, err
	}
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	if len(rows) > 0 {
		columns := len(rows[0])
		if columns > 1 {
			f.MergeCell(sheet, "A1", cell(columns, 1))
		}

		for i, field := range rows[0] {
			if err := f.SetCellValue(sheet, cell(i+1, 2), field.Key); err != nil {
				return nil, err
			}
			name, _ := excelize.ColumnNumberToName(i + 1)
			f.SetColWidth(sheet, name, name, columnWidth(field.Key))
		}
		f.SetCellStyle(sheet, "A2", cell(columns, 2), headerStyle)

		for r, row := range rows {
			for c, field := range row {
				if err := f.SetCellValue(sheet, cell(c+1, r+3), cellValue(field.Value)); err != nil {
					return nil, err
				}
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func columnWidth(header string) float64 {
	w := float64(len(header)) + 4
	if w < 12 {
		return 12
	}
	return w
}

// cellValue flattens pointers and dates so the sheet never shows Go syntax.
func cellValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return ""
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	default:
		return v
	}
}
