// Package importer parses supplier price-list CSV files into inventory
// items ready for stocking.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	enc "github.com/sahanj/shopledger/internal/encoding"
	"github.com/sahanj/shopledger/internal/inventory"
)

var ErrNoHeader = errors.New("no recognizable price-list header found")

// column aliases accepted in supplier files, all compared lowercase.
var (
	nameCols     = []string{"item name", "item", "name", "description", "product"}
	modelCols    = []string{"model number", "model", "model no", "sku", "part number"}
	quantityCols = []string{"quantity", "qty", "stock", "units"}
	purchaseCols = []string{"purchase price", "cost", "cost price", "unit cost"}
	sellingCols  = []string{"selling price", "price", "retail price", "unit price"}
)

// Parser reads supplier price-list CSVs and produces inventory params.
// Suppliers export with different column names, delimiters and
// encodings, so the parser scans for a header row matching known
// column aliases instead of assuming a fixed layout.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]inventory.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	raw, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = detectDelimiter(raw)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	layout, headerIdx, ok := detectLayout(rows)
	if !ok {
		return nil, ErrNoHeader
	}

	return parseRows(layout, rows[headerIdx+1:], headerIdx+1)
}

// detectDelimiter picks between comma and semicolon by counting
// occurrences in the first line.
func detectDelimiter(raw []byte) rune {
	line, _, _ := bytes.Cut(raw, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}

	return ','
}

// layout holds the resolved column index of each field. Optional
// columns are -1 when absent.
type layout struct {
	name     int
	model    int
	quantity int
	purchase int
	selling  int
}

// detectLayout scans rows for a header containing at least the item
// name, quantity and purchase price columns.
func detectLayout(rows [][]string) (layout, int, bool) {
	for rowIdx, row := range rows {
		cols := make(map[string]int)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		l := layout{
			name:     findCol(cols, nameCols),
			model:    findCol(cols, modelCols),
			quantity: findCol(cols, quantityCols),
			purchase: findCol(cols, purchaseCols),
			selling:  findCol(cols, sellingCols),
		}

		if l.name >= 0 && l.quantity >= 0 && l.purchase >= 0 {
			return l, rowIdx, true
		}
	}

	return layout{}, 0, false
}

func findCol(cols map[string]int, aliases []string) int {
	for _, alias := range aliases {
		if idx, ok := cols[alias]; ok {
			return idx
		}
	}

	return -1
}

// parseRows extracts items from data rows. headerRowNum is the 0-based
// index of the header in the original file (for error messages).
func parseRows(l layout, rows [][]string, headerRowNum int) ([]inventory.CreateParams, error) {
	var items []inventory.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		name := cellValue(row, l.name)
		if name == "" {
			// Blank or footer row.
			continue
		}

		quantity, err := strconv.Atoi(cellValue(row, l.quantity))
		if err != nil || quantity < 0 {
			return nil, fmt.Errorf("row %d: invalid quantity %q", rowNum, cellValue(row, l.quantity))
		}

		purchase, err := parsePrice(cellValue(row, l.purchase))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid purchase price: %w", rowNum, err)
		}

		selling := purchase
		if l.selling >= 0 {
			if s := cellValue(row, l.selling); s != "" {
				selling, err = parsePrice(s)
				if err != nil {
					return nil, fmt.Errorf("row %d: invalid selling price: %w", rowNum, err)
				}
			}
		}

		items = append(items, inventory.CreateParams{
			Name:          name,
			ModelNumber:   cellValue(row, l.model),
			Quantity:      quantity,
			PurchasePrice: purchase,
			SellingPrice:  selling,
		})
	}

	return items, nil
}

// parsePrice accepts both "1,234.50" and European "1.234,50" styles.
func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}

	if lastComma := strings.LastIndex(s, ","); lastComma > strings.LastIndex(s, ".") {
		// Comma is the decimal separator.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}

	if v < 0 {
		return 0, fmt.Errorf("negative price %q", s)
	}

	return v, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
