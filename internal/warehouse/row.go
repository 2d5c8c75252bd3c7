// Package warehouse provides read-only access to the analytical store backing the reports.
package warehouse

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Row is one result record keyed by column name. Values are whatever the driver produced.
type Row map[string]any

// Float reads a numeric column. Missing, NULL and unparsable values read as 0.
func (r Row) Float(col string) float64 {
	return toFloat64(r[col])
}

// Int reads a numeric column rounded to the nearest whole number.
func (r Row) Int(col string) int64 {
	return int64(math.Round(r.Float(col)))
}

// String reads a textual column. NULL reads as the empty string.
func (r Row) String(col string) string {
	switch val := r[col].(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case pgtype.Text:
		if !val.Valid {
			return ""
		}
		return val.String
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time reads a timestamp or date column. The boolean is false for NULL or unparsable values.
func (r Row) Time(col string) (time.Time, bool) {
	switch val := r[col].(type) {
	case time.Time:
		return val, !val.IsZero()
	case pgtype.Timestamptz:
		return val.Time, val.Valid
	case pgtype.Timestamp:
		return val.Time, val.Valid
	case pgtype.Date:
		return val.Time, val.Valid
	case string:
		return parseTime(val)
	case []byte:
		return parseTime(string(val))
	default:
		return time.Time{}, false
	}
}

func parseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(val)
	case float32:
		return finite(float64(val))
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		return parseDecimal(val)
	case []byte:
		return parseDecimal(string(val))
	case decimal.Decimal:
		return finite(val.InexactFloat64())
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return 0
		}
		return finite(f.Float64)
	case pgtype.Float8:
		if !val.Valid {
			return 0
		}
		return finite(val.Float64)
	case pgtype.Int8:
		if !val.Valid {
			return 0
		}
		return float64(val.Int64)
	case pgtype.Int4:
		if !val.Valid {
			return 0
		}
		return float64(val.Int32)
	default:
		return 0
	}
}

func parseDecimal(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0
	}
	return finite(d.InexactFloat64())
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
