package service_test

import (
	"testing"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"
)

func TestParseQuickEntry(t *testing.T) {
	tests := []struct {
		in     string
		amount int64
		desc   string
		typ    domain.TxType
	}{
		{"kopi 25rb", 25000, "kopi", domain.TxExpense},
		{"makan siang warteg 18.000", 18000, "makan siang warteg", domain.TxExpense},
		{"+gaji 8jt", 8000000, "gaji", domain.TxIncome},
		{"bonus akhir tahun 2,5jt", 2500000, "bonus akhir tahun", domain.TxIncome},
		{"50k parkir", 50000, "parkir", domain.TxExpense},
	}
	for _, tt := range tests {
		got, err := service.ParseQuickEntry(tt.in)
		if err != nil {
			t.Errorf("ParseQuickEntry(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got.Amount != tt.amount || got.Description != tt.desc || got.Type != tt.typ {
			t.Errorf("ParseQuickEntry(%q) = %d %q %s, want %d %q %s",
				tt.in, got.Amount, got.Description, got.Type, tt.amount, tt.desc, tt.typ)
		}
	}
}

func TestParseQuickEntry_NoAmount(t *testing.T) {
	for _, in := range []string{"", "   ", "beli kopi"} {
		if _, err := service.ParseQuickEntry(in); err == nil {
			t.Errorf("ParseQuickEntry(%q): expected error", in)
		}
	}
}
