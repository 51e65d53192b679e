package log

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"time"

	"github.com/holiman/uint256"

	elog "github.com/ethereum/go-ethereum/log"
)

const timeFormatMs = "2006-01-02T15:04:05.000-0700"

// JSONMsHandler writes JSON records with the time under "t" and the level under "lvl".
func JSONMsHandler(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{Level: level, ReplaceAttr: attrFormatter(false)})
}

// LogfmtMsHandler writes logfmt records with millisecond timestamps.
func LogfmtMsHandler(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{Level: level, ReplaceAttr: attrFormatter(true)})
}

func attrFormatter(logfmt bool) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, attr slog.Attr) slog.Attr {
		switch attr.Key {
		case slog.TimeKey:
			attr.Key = "t"
		case slog.LevelKey:
			if l, ok := attr.Value.Any().(slog.Level); ok {
				return slog.String("lvl", elog.LevelString(l))
			}
		}
		if t, ok := attr.Value.Any().(time.Time); ok {
			if logfmt {
				attr.Value = slog.StringValue(t.Format(timeFormatMs))
			}
			return attr
		}
		if s, ok := stringify(attr.Value.Any()); ok {
			attr.Value = slog.StringValue(s)
		}
		return attr
	}
}

// stringify renders amounts in decimal, and hashes, addresses and other Stringers by their String form.
func stringify(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "<nil>", true
	}
	switch v := v.(type) {
	case *big.Int:
		return v.String(), true
	case *uint256.Int:
		return v.Dec(), true
	case fmt.Stringer:
		return v.String(), true
	}
	return "", false
}
