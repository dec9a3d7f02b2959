// Package slogx carries small slog.Attr constructors shared across the
// module, so log fields keep the same keys everywhere.
package slogx

import (
	"fmt"
	"log/slog"
)

// KeyLoggerName is the attribute key naming the component a logger serves.
const KeyLoggerName = "logger"

// Error returns err under the conventional "error" key.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// ByteString logs a byte payload as text. Useful for response-body snippets
// where the bytes are known to be UTF-8.
func ByteString(key string, value []byte) slog.Attr {
	return slog.String(key, string(value))
}

// Stringer logs any fmt.Stringer through its String method.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// LoggerName returns the component name under KeyLoggerName.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}
