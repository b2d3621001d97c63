// Package model defines the budget record exchanged with the remote API.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Budget is a budget record. Only ID is interpreted by the client; every
// other field is owned by the remote API and round-trips untouched.
type Budget struct {
	ID     string
	Fields map[string]any

	// numericID records that the id arrived as a JSON number.
	numericID bool
}

// NewNumbered returns a budget whose id is written back as a JSON number.
func NewNumbered(id int64, fields map[string]any) Budget {
	return Budget{ID: strconv.FormatInt(id, 10), Fields: fields, numericID: true}
}

// Well-known field names used by the display layer.
const (
	FieldName     = "name"
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldImageURL = "image_url"
)

// UnmarshalJSON accepts ids as JSON strings or numbers.
func (b *Budget) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("model: budget is null")
	}

	id, ok := raw["id"]
	if !ok {
		return errors.New("model: budget has no id")
	}
	switch v := id.(type) {
	case string:
		b.ID = v
		b.numericID = false
	case json.Number:
		b.ID = v.String()
		b.numericID = true
	default:
		return fmt.Errorf("model: unsupported id type %T", id)
	}
	if b.ID == "" {
		return errors.New("model: budget has an empty id")
	}

	delete(raw, "id")
	b.Fields = raw
	return nil
}

// MarshalJSON writes the id back in the form it arrived in.
func (b Budget) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Fields)+1)
	for k, v := range b.Fields {
		out[k] = v
	}
	if b.numericID {
		out["id"] = json.Number(b.ID)
	} else {
		out["id"] = b.ID
	}
	return json.Marshal(out)
}

// Clone returns a copy whose top-level field map is independent.
func (b Budget) Clone() Budget {
	c := Budget{ID: b.ID, Fields: make(map[string]any, len(b.Fields)), numericID: b.numericID}
	for k, v := range b.Fields {
		c.Fields[k] = v
	}
	return c
}

// Text returns the named field rendered as text, or "".
func (b Budget) Text(field string) string {
	v, ok := b.Fields[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Name returns the budget's display name.
func (b Budget) Name() string { return b.Text(FieldName) }

// Category returns the budget's category.
func (b Budget) Category() string { return b.Text(FieldCategory) }

// Amount parses the amount field, which the API sends as a number or a string.
func (b Budget) Amount() (decimal.Decimal, bool) {
	v, ok := b.Fields[FieldAmount]
	if !ok || v == nil {
		return decimal.Zero, false
	}

	var (
		d   decimal.Decimal
		err error
	)
	switch x := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(x.String())
	case string:
		d, err = decimal.NewFromString(x)
	case float64:
		d = decimal.NewFromFloat(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case decimal.Decimal:
		d = x
	default:
		return decimal.Zero, false
	}
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Extra returns the field names other than the well-known ones, sorted.
func (b Budget) Extra() []string {
	var keys []string
	for k := range b.Fields {
		switch k {
		case FieldName, FieldAmount, FieldCategory:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fields is the caller-supplied payload for create and update.
type Fields map[string]any

// IndexOf returns the position of id in budgets, or -1.
func IndexOf(budgets []Budget, id string) int {
	for i, b := range budgets {
		if b.ID == id {
			return i
		}
	}
	return -1
}
