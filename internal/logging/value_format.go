package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// maxConsoleValue clips long values such as raw answers or prompt text on the
// console. JSON output is never clipped.
const maxConsoleValue = 120

func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return formatValue(v)
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(clip(v.String()))
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return formatFloat(v.Float64())
	case slog.KindDuration:
		d := v.Duration()
		if d >= time.Millisecond {
			d = d.Round(time.Millisecond)
		}
		return d.String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		switch value := v.Any().(type) {
		case error:
			return quoteIfNeeded(clip(value.Error()))
		case []string:
			return quoteIfNeeded(clip(strings.Join(value, ",")))
		default:
			return quoteIfNeeded(clip(fmt.Sprint(value)))
		}
	default:
		return quoteIfNeeded(clip(v.String()))
	}
}

// formatFloat prints scores with at most four decimals.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func clip(s string) string {
	runes := []rune(s)
	if len(runes) <= maxConsoleValue {
		return s
	}
	return string(runes[:maxConsoleValue-1]) + "…"
}

func quoteIfNeeded(s string) string {
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
