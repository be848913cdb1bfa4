package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"

	Month Period = "month"
	Year  Period = "year"

	ByDay   GroupBy = "day"
	ByMonth GroupBy = "month"
)

// DefaultBaseCurrency is the base currency the backend assigns to new users
const DefaultBaseCurrency = "RUB"

type (
	TxType  string
	Period  string
	GroupBy string

	// Date is a calendar timestamp as emitted by the backend. It accepts ISO dates,
	// ISO datetimes with or without zone, and RFC1123 (the analytics "recent" rows).
	Date struct {
		time.Time
	}

	Category struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Type     TxType `json:"type"`
		Color    string `json:"color"`
		Icon     string `json:"icon,omitempty"`
		ParentID *int64 `json:"parent_id"`
		IsSystem bool   `json:"is_system"`
	}

	Transaction struct {
		ID            int64           `json:"id"`
		Type          TxType          `json:"type"`
		Amount        decimal.Decimal `json:"amount"`
		Currency      string          `json:"currency"`
		AmountInBase  decimal.Decimal `json:"amount_in_base"`
		BaseCurrency  string          `json:"base_currency"`
		CategoryID    int64           `json:"category_id"`
		CategoryName  string          `json:"category_name,omitempty"`
		CategoryColor string          `json:"category_color,omitempty"`
		Description   string          `json:"description"`
		Date          Date            `json:"date"`
		Tags          *string         `json:"tags,omitempty"`
		Attachment    *string         `json:"attachment,omitempty"`
	}

	Budget struct {
		ID           int64           `json:"id"`
		CategoryID   int64           `json:"category_id,omitempty"`
		CategoryName string          `json:"category_name,omitempty"`
		Limit        decimal.Decimal `json:"limit"`
		Period       Period          `json:"period"`
		Spent        decimal.Decimal `json:"spent"`
		Percentage   float64         `json:"percentage"`
		Remaining    decimal.Decimal `json:"remaining"`
		Archived     bool            `json:"archived"`
	}

	BarBucket struct {
		Name    string          `json:"name"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}

	PieSlice struct {
		Name  string          `json:"name"`
		Value decimal.Decimal `json:"value"`
		Color string          `json:"color,omitempty"`
	}

	// RecentTransaction is a dashboard row: Amount is already in the summary currency
	RecentTransaction struct {
		ID               int64           `json:"id"`
		Date             Date            `json:"date"`
		CategoryName     string          `json:"category_name"`
		Description      string          `json:"description"`
		Amount           decimal.Decimal `json:"amount"`
		Type             TxType          `json:"type"`
		OriginalAmount   decimal.Decimal `json:"original_amount"`
		OriginalCurrency string          `json:"original_currency"`
	}

	AnalyticsSummary struct {
		Currency      string              `json:"currency"`
		Balance       decimal.Decimal     `json:"balance"`
		TotalIncome   decimal.Decimal     `json:"total_income"`
		TotalExpenses decimal.Decimal     `json:"total_expenses"`
		BarData       []BarBucket         `json:"bar_data"`
		PieData       []PieSlice          `json:"pie_data"`
		Recent        []RecentTransaction `json:"recent"`
	}

	ExchangeRateSet struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}

	RatePoint struct {
		Date string  `json:"date"`
		Rate float64 `json:"rate"`
	}

	User struct {
		Name     string  `json:"name"`
		Email    string  `json:"email"`
		Currency string  `json:"currency"`
		Avatar   *string `json:"avatar"`
	}

	Session struct {
		Token string `json:"token"`
		User  *User  `json:"user"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidGroupBy  = errors.New("invalid group_by")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidDate     = errors.New("invalid date")
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	time.RFC3339Nano,
	http.TimeFormat,
	time.RFC1123Z,
}

// ParseDate parses any date representation the backend emits
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String renders the date as YYYY-MM-DD, the format every query parameter uses
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02T15:04:05") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t TxType) Validate() error {
	if t != Income && t != Expense {
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
	return nil
}

func (p Period) Validate() error {
	if p != Month && p != Year {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
	}
	return nil
}

func (g GroupBy) Validate() error {
	if g != ByDay && g != ByMonth {
		return fmt.Errorf("%w: %q", ErrInvalidGroupBy, string(g))
	}
	return nil
}

// IsRoot reports whether the category has no parent
func (c Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsForeign reports whether the transaction was recorded in a currency other than the base
func (t Transaction) IsForeign() bool {
	return !strings.EqualFold(t.Currency, t.BaseCurrency)
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Avatar != nil {
		a := *u.Avatar
		c.Avatar = &a
	}
	return &c
}

// Int64Ptr is a helper for optional ids
func Int64Ptr(v int64) *int64 {
	return &v
}
