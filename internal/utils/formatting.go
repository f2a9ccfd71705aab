package utils

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// FormatAddress truncates an address for display purposes
func FormatAddress(address string, prefixLen, suffixLen int) string {
	if len(address) <= prefixLen+suffixLen {
		return address
	}

	return address[:prefixLen] + "..." + address[len(address)-suffixLen:]
}

// ShortAddress renders a checksummed address as 0x1234...abcd.
func ShortAddress(addr common.Address) string {
	return FormatAddress(addr.Hex(), 6, 4)
}

// FormatAddressWithName formats an address with an optional name
func FormatAddressWithName(addr common.Address, name string) string {
	if name != "" {
		return fmt.Sprintf("%s (%s)", name, ShortAddress(addr))
	}
	return FormatAddress(addr.Hex(), 10, 8)
}

// FormatAmount renders base units in whole units with a fixed number of
// places, truncating the rest.
func FormatAmount(amount *big.Int, decimals int32, places int32) string {
	if amount == nil {
		return decimal.Zero.StringFixed(places)
	}
	return decimal.NewFromBigInt(amount, -decimals).Truncate(places).StringFixed(places)
}

func FormatBalance(amount *big.Int, symbol string, decimals int32) string {
	return fmt.Sprintf("%s %s", FormatAmount(amount, decimals, 4), symbol)
}

// FormatTransactionID formats a transaction ID for display
func FormatTransactionID(txID string) string {
	if len(txID) <= 16 {
		return txID
	}
	return txID[:10] + "..." + txID[len(txID)-6:]
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "expired"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// TruncateString truncates a string to a maximum length with ellipsis
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}

// Pluralize picks the singular or plural noun for n.
func Pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// FormatConfirmationText formats confirmation prompts. Details are shown in
// the order given.
func FormatConfirmationText(action string, details [][2]string) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Confirm %s:\n\n", action))

	width := 0
	for _, kv := range details {
		if len(kv[0]) > width {
			width = len(kv[0])
		}
	}
	for _, kv := range details {
		result.WriteString(fmt.Sprintf("  %-*s  %s\n", width+1, kv[0]+":", kv[1]))
	}

	result.WriteString("\nApprove? (y/N)")
	return result.String()
}
