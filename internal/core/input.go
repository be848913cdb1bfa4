package core

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type (
	// Attachment is an optional file uploaded with a transaction, an avatar or a CSV import
	Attachment struct {
		Filename string
		Content  io.Reader
	}

	TransactionInput struct {
		Type        TxType          `json:"type" validate:"required,oneof=income expense"`
		Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
		Currency    string          `json:"currency" validate:"required,currency"`
		CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
		Description string          `json:"description" validate:"max=200"`
		Date        Date            `json:"date"`
		Tags        string          `json:"tags" validate:"max=256"`
		Attachment  *Attachment     `json:"-" validate:"-"`
	}

	// TransactionUpdate is a partial update; nil fields are left untouched by the backend
	TransactionUpdate struct {
		Amount      *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gt=0"`
		Currency    *string          `json:"currency,omitempty" validate:"omitempty,currency"`
		CategoryID  *int64           `json:"category_id,omitempty" validate:"omitempty,gt=0"`
		Description *string          `json:"description,omitempty" validate:"omitempty,max=200"`
		Date        *Date            `json:"date,omitempty"`
	}

	BudgetInput struct {
		CategoryID int64           `json:"category_id" validate:"required,gt=0"`
		Limit      decimal.Decimal `json:"limit" validate:"gt=0"`
		Period     Period          `json:"period" validate:"required,oneof=month year"`
	}

	// BudgetPatch carries any subset of limit, period and archived
	BudgetPatch struct {
		Limit    *decimal.Decimal `json:"limit,omitempty" validate:"omitempty,gt=0"`
		Period   *Period          `json:"period,omitempty" validate:"omitempty,oneof=month year"`
		Archived *bool            `json:"archived,omitempty"`
	}

	CategoryInput struct {
		Name     string `json:"name" validate:"required,max=50"`
		Type     TxType `json:"type" validate:"required,oneof=income expense"`
		Color    string `json:"color" validate:"omitempty,hexcolor"`
		Icon     string `json:"icon,omitempty" validate:"max=50"`
		ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	}

	ManualRate struct {
		Base   string  `json:"base" validate:"required,currency"`
		Target string  `json:"target" validate:"required,currency,nefield=Base"`
		Rate   float64 `json:"rate" validate:"gt=0"`
	}

	Credentials struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	Registration struct {
		Name     string `json:"name" validate:"max=80"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	ProfileUpdate struct {
		Name         *string `json:"name,omitempty" validate:"omitempty,max=80"`
		BaseCurrency *string `json:"base_currency,omitempty" validate:"omitempty,currency"`
		OldPassword  string  `json:"old_password,omitempty" validate:"required_with=NewPassword"`
		NewPassword  string  `json:"new_password,omitempty" validate:"omitempty,min=6"`
	}
)

// FieldError describes one rejected input field, keyed by its wire name
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every failing field of an input
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrValidation matches any *ValidationError through errors.Is
var ErrValidation = errors.New("validation failed")

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
			return IsCurrency(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func validateStruct(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_with":
		return "is required when " + strings.ToLower(fe.Param()) + " is set"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "currency":
		return "must be an ISO 4217 currency code"
	case "hexcolor":
		return "must be a hex color"
	case "email":
		return "must be a valid email address"
	case "nefield":
		return "must differ from " + strings.ToLower(fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func (in TransactionInput) Validate() error {
	return validateStruct(in)
}

func (in TransactionUpdate) Validate() error {
	return validateStruct(in)
}

func (in BudgetInput) Validate() error {
	return validateStruct(in)
}

func (p BudgetPatch) Validate() error {
	if p.Limit == nil && p.Period == nil && p.Archived == nil {
		return &ValidationError{Fields: []FieldError{{Field: "budget", Message: "no fields to update"}}}
	}
	return validateStruct(p)
}

func (in CategoryInput) Validate() error {
	return validateStruct(in)
}

func (in ManualRate) Validate() error {
	return validateStruct(in)
}

func (in Credentials) Validate() error {
	return validateStruct(in)
}

func (in Registration) Validate() error {
	return validateStruct(in)
}

func (in ProfileUpdate) Validate() error {
	return validateStruct(in)
}
