// Package export writes the batch order export in CSV, XLSX and PDF form.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/artemoderno/storefront/internal/view"
	"github.com/artemoderno/storefront/web"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// Formats lists the formats in the order they are produced.
var Formats = []string{FormatCSV, FormatXLSX, FormatPDF}

// BaseName is the file name stem of every export file.
const BaseName = "orders_export"

// SheetName is the worksheet title of the XLSX export.
const SheetName = "Objednávky"

// Header is the column header row.
var Header = []string{"ID", "Číslo objednávky", "Zákazník", "Email", "Adresa", "Produkt", "Množství", "Datum", "Číslo faktury", "Stav"}

// Record is one order joined with its linked customer and product.
type Record struct {
	OrderID       int64
	CustomerName  *string
	CustomerEmail *string
	Email         string
	Address       string
	ProductName   *string
	Quantity      int
	CreatedAt     time.Time
	Status        string
}

// Row formats a record into export columns. The linked customer wins over the
// order snapshot for the email column.
func (r Record) Row() []string {
	customer := "-"
	if r.CustomerName != nil {
		customer = *r.CustomerName
	}
	email := r.Email
	if r.CustomerEmail != nil {
		email = *r.CustomerEmail
	}
	product := "-"
	if r.ProductName != nil {
		product = *r.ProductName
	}
	date := ""
	if !r.CreatedAt.IsZero() {
		date = r.CreatedAt.Format("2006-01-02")
	}
	return []string{
		strconv.FormatInt(r.OrderID, 10),
		fmt.Sprintf("ORD%03d", r.OrderID),
		customer,
		email,
		r.Address,
		product,
		strconv.Itoa(r.Quantity),
		date,
		fmt.Sprintf("F%03d", r.OrderID),
		r.Status,
	}
}

// Rows formats records without the header.
func Rows(records []Record) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Row()
	}
	return rows
}

// WriteCSV writes header and rows as CSV.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes header and rows as a single-sheet workbook.
func WriteXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	all := append([][]string{Header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "C", "F", 24); err != nil {
		return err
	}
	return f.Write(w)
}

var (
	tplOnce sync.Once
	tpl     *template.Template
	tplErr  error
)

type htmlData struct {
	GeneratedAt time.Time
	Header      []string
	Rows        [][]string
}

// HTML renders the table used for the PDF export.
func HTML(rows [][]string, generatedAt time.Time) ([]byte, error) {
	tplOnce.Do(func() {
		tpl, tplErr = template.New("orders_export.html").Funcs(view.Funcs()).ParseFS(web.Templates, "templates/reports/orders_export.html")
	})
	if tplErr != nil {
		return nil, tplErr
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, htmlData{GeneratedAt: generatedAt, Header: Header, Rows: rows}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
