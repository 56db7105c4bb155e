package cache

import "strings"

// Key builds the canonical cache key for a symbol and operation,
// e.g. ("aapl", "quarterly_financials") -> "AAPL:quarterly_financials".
func Key(symbol, operation string) string {
	return strings.ToUpper(symbol) + ":" + operation
}
