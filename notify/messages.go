package notify

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Naira formats amount with the naira sign and thousands separators,
// e.g. ₦1,000 or ₦1,000.125. Fractional digits are kept exactly. Amounts
// beyond int64 are printed without separators.
func Naira(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	whole := amount.Truncate(0)
	digits := whole.String()
	if n := whole.BigInt(); n.IsInt64() {
		digits = printer.Sprintf("%d", n.Int64())
	}
	out := sign + "₦" + digits
	if frac := amount.Sub(whole); !frac.IsZero() {
		// "0.125" -> ".125"
		out += strings.TrimPrefix(frac.String(), "0")
	}
	return out
}

// CreditPending tells the account a credit is awaiting confirmation
func CreditPending(amount decimal.Decimal) string {
	return Naira(amount) + " deposit is being confirmed."
}

// CreditPosted tells the account a credit is now spendable
func CreditPosted(amount decimal.Decimal) string {
	return Naira(amount) + " deposit is now available."
}

// CreditReversed tells the account a credit was reversed
func CreditReversed(amount decimal.Decimal) string {
	return Naira(amount) + " deposit was reversed."
}

// TransferSentPending tells the sender a pending transfer was created
func TransferSentPending(amount decimal.Decimal, to string) string {
	return "You sent " + Naira(amount) + " to " + to + " (awaiting confirmation)."
}

// TransferIncomingPending tells the receiver a transfer is on its way
func TransferIncomingPending(amount decimal.Decimal, from string) string {
	return Naira(amount) + " from " + from + " is being processed."
}

// TransferAvailable tells the receiver a posted transfer is spendable
func TransferAvailable(amount decimal.Decimal, from string) string {
	return Naira(amount) + " from " + from + " is now available."
}

// TransferReversed tells the sender a transfer was reversed
func TransferReversed(amount decimal.Decimal, to string) string {
	return Naira(amount) + " transfer to " + to + " was reversed."
}

// TransferFailed tells the receiver a transfer failed or was reversed
func TransferFailed(amount decimal.Decimal, from string) string {
	return Naira(amount) + " from " + from + " failed or was reversed."
}

// TransferSent tells the sender an instant transfer went through
func TransferSent(amount decimal.Decimal, to string) string {
	return "You sent " + Naira(amount) + " to " + to + "."
}

// TransferReceived tells the receiver an instant transfer arrived
func TransferReceived(amount decimal.Decimal, from string) string {
	return "You received " + Naira(amount) + " from " + from + "."
}
