package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-10-01", time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-10-01T13:45:00", time.Date(2024, 10, 1, 13, 45, 0, 0, time.UTC)},
		{"2024-10-01T13:45:00.123456", time.Date(2024, 10, 1, 13, 45, 0, 123456000, time.UTC)},
		{"2024-10-01T13:45:00Z", time.Date(2024, 10, 1, 13, 45, 0, 0, time.UTC)},
		{"Tue, 01 Oct 2024 13:45:00 GMT", time.Date(2024, 10, 1, 13, 45, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if err != nil {
				t.Fatalf("ParseDate(%q) error: %v", tt.in, err)
			}
			if !got.Time.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got.Time, tt.want)
			}
		})
	}

	if _, err := ParseDate("yesterday"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestTransactionUnmarshal(t *testing.T) {
	payload := `{
		"id": 7, "amount": 150.0, "currency": "USD", "amount_in_base": 13875.5,
		"base_currency": "RUB", "description": "flight", "date": "2024-10-01T00:00:00",
		"type": "expense", "category_id": 3, "category_name": "Travel",
		"category_color": "#ff0000", "tags": null, "attachment": null
	}`

	var tx Transaction
	if err := json.Unmarshal([]byte(payload), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !tx.AmountInBase.Equal(decimal.RequireFromString("13875.5")) {
		t.Errorf("AmountInBase = %s", tx.AmountInBase)
	}
	if tx.Date.String() != "2024-10-01" {
		t.Errorf("Date = %s", tx.Date)
	}
	if !tx.IsForeign() {
		t.Error("USD transaction with RUB base should be foreign")
	}
	if tx.Attachment != nil {
		t.Error("attachment should be nil")
	}
}

func TestCategoryUnmarshalNullParent(t *testing.T) {
	var cats []Category
	payload := `[{"id":1,"name":"Food","type":"expense","color":"#111111","parent_id":null,"is_system":true},
		{"id":2,"name":"Cafe","type":"expense","color":"#222222","parent_id":1,"is_system":false}]`
	if err := json.Unmarshal([]byte(payload), &cats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !cats[0].IsRoot() || cats[1].IsRoot() {
		t.Fatalf("unexpected root flags: %+v", cats)
	}
	if *cats[1].ParentID != 1 {
		t.Errorf("ParentID = %d", *cats[1].ParentID)
	}
}

func TestEnumsValidate(t *testing.T) {
	if err := Income.Validate(); err != nil {
		t.Errorf("income: %v", err)
	}
	if err := TxType("transfer").Validate(); !errors.Is(err, ErrInvalidType) {
		t.Errorf("transfer: %v", err)
	}
	if err := Period("quarter").Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("quarter: %v", err)
	}
	if err := ByDay.Validate(); err != nil {
		t.Errorf("day: %v", err)
	}
	if err := GroupBy("week").Validate(); !errors.Is(err, ErrInvalidGroupBy) {
		t.Errorf("week: %v", err)
	}
}

func TestUserClone(t *testing.T) {
	avatar := "a.png"
	u := &User{Name: "Ann", Avatar: &avatar}
	c := u.Clone()
	*c.Avatar = "b.png"
	if *u.Avatar != "a.png" {
		t.Fatal("clone shares avatar pointer")
	}
	var nilUser *User
	if nilUser.Clone() != nil {
		t.Fatal("nil clone should be nil")
	}
}
