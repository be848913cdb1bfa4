package views

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"fintrack/internal/core"
)

// Locale carries the per-language presentation rules
type Locale struct {
	Tag       language.Tag
	thousands string
	point     string
	months    [12]string
	words     localeWords
}

type localeWords struct {
	remaining  string
	overBudget string
	original   string
}

var (
	english = Locale{
		Tag:       language.English,
		thousands: ",",
		point:     ".",
		months:    [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		words:     localeWords{remaining: "remaining", overBudget: "Over budget!", original: "orig"},
	}
	russian = Locale{
		Tag:       language.Russian,
		thousands: "\u00a0",
		point:     ",",
		months:    [12]string{"Янв", "Фев", "Мар", "Апр", "Май", "Июн", "Июл", "Авг", "Сен", "Окт", "Ноя", "Дек"},
		words:     localeWords{remaining: "осталось", overBudget: "Бюджет превышен!", original: "ориг."},
	}
)

var localeMatcher = language.NewMatcher([]language.Tag{language.Russian, language.English})

// LocaleFor returns the presentation rules for a language code. Anything that
// is not English falls back to Russian, the application default.
func LocaleFor(lang string) Locale {
	tag, err := language.Parse(lang)
	if err != nil {
		return russian
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf >= language.High && idx == 1 {
		return english
	}
	return russian
}

// Number formats an amount with grouping and two decimals
func (l Locale) Number(d decimal.Decimal) string {
	return l.fixed(d, 2)
}

// fixed rounds d to places and groups the integer digits. The digits come from
// the decimal string, so large amounts keep every digit.
func (l Locale) fixed(d decimal.Decimal, places int32) string {
	d = d.Round(places)
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(places), ".")

	n, _ := new(big.Int).SetString(whole, 10)
	out := strings.ReplaceAll(humanize.BigComma(n), ",", l.thousands)
	if frac != "" {
		out += l.point + frac
	}
	if d.IsNegative() {
		return "-" + out
	}
	return out
}

// Money formats an amount followed by its currency code
func (l Locale) Money(d decimal.Decimal, currency string) string {
	return l.Number(d) + " " + strings.ToUpper(currency)
}

// Rate formats an exchange rate with four decimals
func (l Locale) Rate(r float64) string {
	return l.fixed(decimal.NewFromFloat(r), 4)
}

// AmountDisplay is the rendered amount of one ledger row
type AmountDisplay struct {
	Primary      string `json:"primary"`
	Secondary    string `json:"secondary,omitempty"`
	HasSecondary bool   `json:"has_secondary"`
	Income       bool   `json:"income"`
}

// Amount renders a transaction: the signed base-currency value first, and the
// original amount only when it was recorded in another currency. Nothing is
// converted here; amount_in_base comes from the backend.
func (l Locale) Amount(tx core.Transaction) AmountDisplay {
	sign := "-"
	if tx.Type == core.Income {
		sign = "+"
	}
	out := AmountDisplay{
		Primary: sign + l.Money(tx.AmountInBase, tx.BaseCurrency),
		Income:  tx.Type == core.Income,
	}
	if tx.IsForeign() {
		out.HasSecondary = true
		out.Secondary = l.words.original + " " + l.Money(tx.Amount, tx.Currency)
	}
	return out
}
