package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Spawns and reaps of fast-failing handlers land within the same second, so
// console timestamps carry milliseconds.
const logTimestampLayout = "2006-01-02 15:04:05.000"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(logTimestampLayout)
}

// attrString returns the bare text of a subject field (component, slot,
// device) for the console header.
func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	default:
		return fmt.Sprint(v.Any())
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return formatDuration(v.Duration())
	case slog.KindTime:
		return quoteIfNeeded(formatTimestamp(v.Time()))
	case slog.KindAny:
		switch val := v.Any().(type) {
		case error:
			return quoteIfNeeded(val.Error())
		case []string:
			return formatArgv(val)
		case fmt.Stringer:
			return quoteIfNeeded(val.String())
		}
		return quoteIfNeeded(fmt.Sprint(v.Any()))
	default:
		return quoteIfNeeded(v.String())
	}
}

// formatArgv renders a handler command line the way a shell would accept it,
// so a logged launch can be pasted back into a terminal.
func formatArgv(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		if needsQuotes(arg) {
			parts[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
			continue
		}
		parts[i] = arg
	}
	return quoteIfNeeded(strings.Join(parts, " "))
}

// formatDuration drops sub-millisecond noise from scan intervals and grace
// periods.
func formatDuration(d time.Duration) string {
	if d >= time.Millisecond || d <= -time.Millisecond {
		d = d.Round(time.Millisecond)
	}
	return d.String()
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
