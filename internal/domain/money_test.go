package domain

import (
	"encoding/json"
	"testing"
)

func TestNewMoneyRejectsBadInput(t *testing.T) {
	if _, err := NewMoney("abc", "EUR"); err == nil {
		t.Fatalf("expected error for bad amount")
	}
	if _, err := NewMoney("1.00", "NOPE"); err == nil {
		t.Fatalf("expected error for bad currency")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustMoney("1.10", "EUR")
	b := MustMoney("2.05", "EUR")
	if got := a.Add(b); !got.Equal(MustMoney("3.15", "EUR")) {
		t.Fatalf("Add = %s", got)
	}
	if got := a.Mul(3); !got.Equal(MustMoney("3.30", "EUR")) {
		t.Fatalf("Mul = %s", got)
	}
	if !MustMoney("0", "EUR").IsZero() {
		t.Fatalf("zero amount should be zero")
	}
}

func TestMoneyEqualDistinguishesCurrency(t *testing.T) {
	if MustMoney("1.00", "EUR").Equal(MustMoney("1.00", "USD")) {
		t.Fatalf("different currencies must not be equal")
	}
	// Scale differences do not matter, only value.
	if !MustMoney("1.50", "EUR").Equal(MustMoney("1.5", "EUR")) {
		t.Fatalf("1.50 and 1.5 should be equal")
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := MustMoney("19.99", "JPY")
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(m) {
		t.Fatalf("round trip changed value: %s != %s", back, m)
	}
}
