package stats

import (
	"strings"

	"github.com/Rhymond/go-money"

	"tradejournal/internal/models"
)

// FormatMoney renders an amount in the given ISO currency, e.g. "$1,234.50".
func FormatMoney(amount float64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return money.NewFromFloat(amount, currency).Display()
}
