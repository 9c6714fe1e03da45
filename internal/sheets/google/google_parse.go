package google

import (
	"fmt"
	"strconv"
	"strings"

	"debiti/internal/core"
	ports "debiti/internal/sheets"
)

// parsePaymentRows converts a values matrix (as returned by the Sheets API)
// into payment rows dated within month. Header rows and rows that do not parse
// are skipped.
func parsePaymentRows(values [][]any, month core.Month) []ports.PaymentRow {
	var out []ports.PaymentRow
	for _, raw := range values {
		cols := toStrings(raw)
		if len(cols) < 5 {
			continue
		}
		date, err := core.ParseDate(cols[0])
		if err != nil || !month.Contains(date) {
			continue
		}
		id, err := strconv.ParseInt(cols[1], 10, 64)
		if err != nil {
			continue
		}
		amount, ok := parseAmount(cols[4])
		if !ok {
			continue
		}
		out = append(out, ports.PaymentRow{
			PaymentID:  id,
			Date:       date,
			Obligation: cols[2],
			Entity:     cols[3],
			Amount:     amount,
			Method:     core.PaymentMethod(safeGet(cols, 5)),
			Note:       safeGet(cols, 6),
			Status:     core.Status(safeGet(cols, 7)),
		})
	}
	return out
}

// parseAmount accepts "1234.5", "1,234.500" and the decimal-comma "12,5".
func parseAmount(s string) (core.Money, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return core.Money{}, false
	}
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return core.Money{}, false
	}
	return core.MoneyFromFloat(f), true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

// cellString renders unformatted numbers without exponent notation.
func cellString(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
