package http

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Beras  ", "Beras"},
		{"<script>alert(1)</script>Gula", "Gula"},
		{"<b>Teh</b> & Kopi", "Teh & Kopi"},
		{"Sabun\x07\x1b Mandi", "Sabun Mandi"},
		{"Harga < 5000", "Harga < 5000"},
	}
	for _, tt := range tests {
		if got := sanitizeText(tt.in); got != tt.want {
			t.Errorf("sanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if sanitizePtr(nil) != nil {
		t.Error("nil must stay nil")
	}
}

func TestAmountUnmarshal(t *testing.T) {
	var v struct {
		A amount  `json:"a"`
		B *amount `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":15000.5,"b":"12,5"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != "15000.5" || v.B == nil || *v.B != "12,5" {
		t.Fatalf("decoded %+v", v)
	}
	if err := json.Unmarshal([]byte(`{"a":true}`), &v); err == nil {
		t.Error("expected error for boolean amount")
	}
}

func TestAmountParse(t *testing.T) {
	if d, err := amount("12,5").parse("x"); err != nil || d.String() != "12.5" {
		t.Errorf("parse = %s, %v", d, err)
	}
	if d, err := amount("").parse("x"); err != nil || !d.IsZero() {
		t.Errorf("blank should be zero: %s, %v", d, err)
	}
	if _, err := amount("-1").parse("x"); statusFor(err) != 422 {
		t.Errorf("negative amount status = %d", statusFor(err))
	}

	tests := []struct {
		in      amount
		want    string
		wantErr bool
	}{
		{"-2", "-2", false},
		{"+3", "3", false},
		{"1,5", "1.5", false},
		{"-", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		d, err := tt.in.parseSigned("delta")
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSigned(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && d.String() != tt.want {
			t.Errorf("parseSigned(%q) = %s, want %s", tt.in, d, tt.want)
		}
	}
}

func TestParseDateBound(t *testing.T) {
	from, err := parseDateBound("2025-10-01", false)
	if err != nil || !from.Equal(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v, %v", from, err)
	}
	to, err := parseDateBound("2025-10-01", true)
	if err != nil || to.Day() != 1 || to.Hour() != 23 {
		t.Errorf("to = %v, %v", to, err)
	}
	exact, err := parseDateBound("2025-10-01T10:00:00Z", true)
	if err != nil || exact.Hour() != 10 {
		t.Errorf("RFC 3339 bound must not be widened: %v, %v", exact, err)
	}
	if zero, err := parseDateBound("", true); err != nil || !zero.IsZero() {
		t.Errorf("blank bound = %v, %v", zero, err)
	}
	if _, err := parseDateBound("01/10/2025", false); err == nil {
		t.Error("expected error")
	}
}
