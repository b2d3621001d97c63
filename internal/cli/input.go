package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/hbudget/internal/model"
)

// Validate is the shared validator for command input.
var Validate = validator.New()

func init() {
	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(f.String()) != ""
	})
	_ = Validate.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := decimal.NewFromString(s)
		return err == nil
	})
}

// BudgetInput is the user-facing payload for add and edit. Set marks the
// fields the user supplied, so edits send only what changed.
type BudgetInput struct {
	Name     string `validate:"omitempty,notblank,max=120"`
	Amount   string `validate:"omitempty,decimal"`
	Category string `validate:"omitempty,max=60"`
	Extra    []string
	Set      map[string]bool
}

// ErrNothingToSend is returned when an edit carries no fields.
var ErrNothingToSend = errors.New("no fields to send")

// FieldsForCreate validates in as a new budget: name and amount are required.
func (in BudgetInput) FieldsForCreate() (model.Fields, error) {
	if in.Name == "" {
		return nil, errors.New("name is required")
	}
	if strings.TrimSpace(in.Amount) == "" {
		return nil, errors.New("amount is required")
	}
	return in.fields()
}

// FieldsForUpdate validates in as a partial edit.
func (in BudgetInput) FieldsForUpdate() (model.Fields, error) {
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	if len(f) == 0 {
		return nil, ErrNothingToSend
	}
	return f, nil
}

func (in BudgetInput) fields() (model.Fields, error) {
	in.Amount = strings.TrimSpace(in.Amount)
	if err := Validate.Struct(in); err != nil {
		return nil, describe(err)
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)

	f := model.Fields{}
	if in.Name != "" {
		f[model.FieldName] = in.Name
	} else if in.Set["name"] {
		return nil, errors.New("name must not be blank")
	}
	if in.Amount != "" {
		d, _ := decimal.NewFromString(in.Amount)
		// decimal marshals as a quoted string; the API expects a number.
		f[model.FieldAmount] = json.Number(d.String())
	}
	if in.Category != "" || in.Set["category"] {
		f[model.FieldCategory] = in.Category
	}
	for _, kv := range in.Extra {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid field %q, want key=value", kv)
		}
		if k == "id" {
			return nil, errors.New("the id field cannot be set")
		}
		f[k] = v
	}
	return f, nil
}

func describe(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "notblank":
			msgs = append(msgs, field+" must not be blank")
		case "decimal":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a number", field, fe.Value()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is longer than %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
