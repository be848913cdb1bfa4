package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func fieldNames(err error) map[string]bool {
	names := map[string]bool{}
	var verr *ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			names[f.Field] = true
		}
	}
	return names
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		Type:       Expense,
		Amount:     decimal.RequireFromString("150.00"),
		Currency:   "USD",
		CategoryID: 4,
		Date:       NewDate(2024, 10, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	bad := TransactionInput{Type: "gift", Amount: decimal.Zero, Currency: "XXQ"}
	err := bad.Validate()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	names := fieldNames(err)
	for _, want := range []string{"type", "amount", "currency", "category_id"} {
		if !names[want] {
			t.Errorf("expected field %q to fail, got %v", want, names)
		}
	}
}

func TestBudgetInputValidate(t *testing.T) {
	in := BudgetInput{CategoryID: 2, Limit: decimal.NewFromInt(500), Period: Month}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected valid budget, got %v", err)
	}
	in.Period = "quarter"
	if names := fieldNames(in.Validate()); !names["period"] {
		t.Errorf("expected period failure, got %v", names)
	}
}

func TestBudgetPatchValidate(t *testing.T) {
	if err := (BudgetPatch{}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty patch should fail, got %v", err)
	}
	archived := true
	if err := (BudgetPatch{Archived: &archived}).Validate(); err != nil {
		t.Fatalf("archive-only patch should pass, got %v", err)
	}
	neg := decimal.NewFromInt(-5)
	if names := fieldNames((BudgetPatch{Limit: &neg}).Validate()); !names["limit"] {
		t.Errorf("negative limit should fail, got %v", names)
	}
}

func TestCategoryInputValidate(t *testing.T) {
	in := CategoryInput{Name: "Groceries", Type: Expense, Color: "#22c55e", ParentID: Int64Ptr(1)}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	in.Color = "green"
	in.Name = ""
	names := fieldNames(in.Validate())
	if !names["color"] || !names["name"] {
		t.Errorf("expected name and color failures, got %v", names)
	}
}

func TestManualRateValidate(t *testing.T) {
	if err := (ManualRate{Base: "RUB", Target: "USD", Rate: 0.011}).Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	names := fieldNames((ManualRate{Base: "RUB", Target: "RUB", Rate: 0}).Validate())
	if !names["target"] || !names["rate"] {
		t.Errorf("expected target and rate failures, got %v", names)
	}
}

func TestProfileUpdateValidate(t *testing.T) {
	if err := (ProfileUpdate{NewPassword: "secret1"}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("new password without old password should fail, got %v", err)
	}
	cur := "EUR"
	if err := (ProfileUpdate{BaseCurrency: &cur}).Validate(); err != nil {
		t.Fatalf("currency-only update should pass, got %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := (Credentials{Email: "not-an-email"}).Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	want := "validation failed: email: must be a valid email address; password: is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
