// internal/ingest/csv.go
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/farmakpi/backend-go/internal/domain"
)

// CSVSource reads transaction rows from a CSV export. Header names are
// matched tolerantly (case, spaces, separators), covering both the English
// and Spanish column headings the pharmacy's exports use.
type CSVSource struct {
	Path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open transactions file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read transactions header: %w", err)
	}

	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	idxType := colIndex("type", "transaction_type", "tipo")
	idxDate := colIndex("date", "fecha")
	idxCode := colIndex("product_code", "code", "codigo")
	idxName := colIndex("product_name", "name", "nombre", "descripcion")
	idxCabys := colIndex("cabys")
	idxQty := colIndex("quantity", "qty", "cantidad")
	idxCost := colIndex("unit_cost", "cost", "costo")
	idxPrice := colIndex("unit_price", "price", "precio_unit", "precio")
	idxFraction := colIndex("is_fraction", "fraction", "fraccion", "es_fraccion")

	if idxType < 0 || idxDate < 0 || idxCode < 0 || idxQty < 0 {
		return nil, fmt.Errorf("transactions file %s is missing required columns", s.Path)
	}

	var txs []domain.Transaction
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read transactions row: %w", err)
		}
		line++

		get := func(idx int) string {
			if idx < 0 || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		parseFloat := func(idx int) float64 {
			v := strings.ReplaceAll(get(idx), ",", "")
			if v == "" {
				return 0
			}
			f, _ := strconv.ParseFloat(v, 64)
			return f
		}

		txType, err := parseType(get(idxType))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := parseDate(get(idxDate))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		txs = append(txs, domain.Transaction{
			Type:        txType,
			Date:        date,
			ProductCode: get(idxCode),
			ProductName: get(idxName),
			Cabys:       get(idxCabys),
			Quantity:    parseFloat(idxQty),
			UnitCost:    parseFloat(idxCost),
			UnitPrice:   parseFloat(idxPrice),
			IsFraction:  parseBool(get(idxFraction)),
		})
	}

	return txs, nil
}

func parseType(v string) (domain.TransactionType, error) {
	switch strings.ToUpper(v) {
	case "PURCHASE", "COMPRA":
		return domain.TypePurchase, nil
	case "SALE", "VENTA":
		return domain.TypeSale, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", v)
	}
}

// parseDate accepts the export's date layouts and truncates to the day.
func parseDate(v string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "20060102"} {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "si", "sí":
		return true
	default:
		return false
	}
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	return columnNameSanitizer.Replace(strings.TrimSpace(strings.ToLower(name)))
}
