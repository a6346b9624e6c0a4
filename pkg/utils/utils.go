package utils

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strings"
	"time"

	"options-advisor/pkg/logger"
)

// GoSafe runs the given function in a new goroutine and recovers from any panic.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Panic Recovered] %v", r)
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether the context is still alive, logging the caller on cancellation.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		pc, _, _, ok := runtime.Caller(1)
		funcName := "unknown"
		if ok {
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				parts := strings.Split(fn.Name(), "/")
				funcName = parts[len(parts)-1]
			}
		}

		log.Warn("Context cancelled",
			logger.StringField("caller", funcName),
		)
		return false
	default:
		return true
	}
}

func FormatPercentage(value float64) string {
	return fmt.Sprintf("%+.1f%%", value)
}

func FormatCurrency(value float64) string {
	return fmt.Sprintf("$%.2f", value)
}

// MidMonthDay reports whether t is the first trading observation on or after the 15th
// of its month, given the previous observation.
func MidMonthDay(t, prev time.Time) bool {
	if t.Day() < 15 {
		return false
	}
	if prev.IsZero() {
		return true
	}
	if prev.Month() != t.Month() || prev.Year() != t.Year() {
		return true
	}
	return prev.Day() < 15
}
