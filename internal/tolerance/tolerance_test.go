package tolerance

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestIsZero(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"0.0001", true},
		{"-0.0001", true},
		{"0.00011", false},
		{"-0.5", false},
	}
	for _, tt := range tests {
		if got := IsZero(d(tt.in)); got != tt.want {
			t.Errorf("IsZero(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsOpen(t *testing.T) {
	if IsOpen(d("0.0001")) {
		t.Error("Expected 0.0001 remaining to be treated as closed")
	}
	if !IsOpen(d("0.001")) {
		t.Error("Expected 0.001 remaining to be open")
	}
}

func TestCovers(t *testing.T) {
	t.Run("exact match covers", func(t *testing.T) {
		if !Covers(d("225"), d("225")) {
			t.Error("Expected 225 to cover 225")
		}
	})
	t.Run("slack within epsilon covers", func(t *testing.T) {
		if !Covers(d("224.99995"), d("225")) {
			t.Error("Expected residue below epsilon to be tolerated")
		}
	})
	t.Run("one share short does not cover", func(t *testing.T) {
		if Covers(d("225"), d("226")) {
			t.Error("Expected 225 not to cover 226")
		}
	})
}

func TestEqual(t *testing.T) {
	if !Equal(d("10"), d("10.00005")) {
		t.Error("Expected values within epsilon to be equal")
	}
	if Equal(d("10"), d("10.001")) {
		t.Error("Expected values beyond epsilon to differ")
	}
}
