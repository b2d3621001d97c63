package model

import (
	"encoding/json"
	"testing"
)

func TestBudget_UnmarshalNumericID(t *testing.T) {
	var b Budget
	if err := json.Unmarshal([]byte(`{"id": 12, "name": "Rent", "amount": 1200.50, "user_id": 3}`), &b); err != nil {
		t.Fatal(err)
	}
	if b.ID != "12" {
		t.Errorf("ID = %q, want 12", b.ID)
	}
	if _, ok := b.Fields["id"]; ok {
		t.Error("id must not be duplicated in Fields")
	}
	if b.Name() != "Rent" {
		t.Errorf("Name = %q", b.Name())
	}
	amt, ok := b.Amount()
	if !ok || amt.String() != "1200.5" {
		t.Errorf("Amount = %s, %v; want 1200.5", amt, ok)
	}
	if got := b.Extra(); len(got) != 1 || got[0] != "user_id" {
		t.Errorf("Extra = %v, want [user_id]", got)
	}
}

func TestBudget_UnmarshalStringID(t *testing.T) {
	var b Budget
	if err := json.Unmarshal([]byte(`{"id": "b1", "amount": "99.99"}`), &b); err != nil {
		t.Fatal(err)
	}
	if b.ID != "b1" {
		t.Errorf("ID = %q, want b1", b.ID)
	}
	amt, ok := b.Amount()
	if !ok || amt.String() != "99.99" {
		t.Errorf("Amount = %s, %v", amt, ok)
	}
}

func TestBudget_UnmarshalRejectsMissingID(t *testing.T) {
	for _, in := range []string{`{"name":"x"}`, `{"id":""}`, `{"id":true}`, `null`} {
		var b Budget
		if err := json.Unmarshal([]byte(in), &b); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", in)
		}
	}
}

func TestBudget_MarshalKeepsIntegerIDs(t *testing.T) {
	data, err := json.Marshal(NewNumbered(7, map[string]any{"name": "Fuel"}))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"id":7,"name":"Fuel"}` {
		t.Errorf("Marshal = %s", data)
	}

	data, _ = json.Marshal(Budget{ID: "b1"})
	if string(data) != `{"id":"b1"}` {
		t.Errorf("Marshal = %s", data)
	}
}

func TestBudget_IDRoundTripKeepsForm(t *testing.T) {
	for _, in := range []string{
		`{"id":"007","name":"Fuel"}`,
		`{"id":"+5","name":"Fuel"}`,
		`{"id":"12","name":"Fuel"}`,
		`{"id":12,"name":"Fuel"}`,
	} {
		var b Budget
		if err := json.Unmarshal([]byte(in), &b); err != nil {
			t.Fatal(err)
		}
		out, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != in {
			t.Errorf("round trip %s = %s", in, out)
		}

		var again Budget
		if err := json.Unmarshal(out, &again); err != nil {
			t.Fatal(err)
		}
		if again.ID != b.ID {
			t.Errorf("id changed from %q to %q", b.ID, again.ID)
		}
		if c := b.Clone(); c.numericID != b.numericID {
			t.Errorf("Clone dropped the id form of %s", in)
		}
	}
}

func TestBudget_AmountMissingOrGarbage(t *testing.T) {
	if _, ok := (Budget{ID: "1"}).Amount(); ok {
		t.Error("missing amount reported ok")
	}
	if _, ok := (Budget{ID: "1", Fields: map[string]any{"amount": "lots"}}).Amount(); ok {
		t.Error("garbage amount reported ok")
	}
}

func TestClone_Independent(t *testing.T) {
	a := Budget{ID: "1", Fields: map[string]any{"name": "a"}}
	b := a.Clone()
	b.Fields["name"] = "b"
	if a.Name() != "a" {
		t.Error("Clone shares the field map")
	}
}

func TestIndexOf(t *testing.T) {
	list := []Budget{{ID: "1"}, {ID: "2"}}
	if IndexOf(list, "2") != 1 || IndexOf(list, "3") != -1 {
		t.Error("IndexOf mismatch")
	}
}
