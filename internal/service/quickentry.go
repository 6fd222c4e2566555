package service

import (
	"strings"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
)

// incomeWords mark a quick entry as income.
var incomeWords = map[string]bool{
	"gaji": true, "salary": true, "income": true, "terima": true,
	"bonus": true, "pemasukan": true, "thr": true,
}

// ParseQuickEntry reads a one-line chat entry such as "kopi 25rb",
// "makan siang warteg 18.000" or "+gaji 8jt". The last token that parses
// as an amount is the amount; the rest is the description. A leading "+"
// or an income keyword makes it income, anything else is an expense.
func ParseQuickEntry(text string) (*domain.Extraction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &domain.ErrValidation{Field: "text", Message: "empty entry"}
	}

	txType := domain.TxExpense
	if strings.HasPrefix(text, "+") {
		txType = domain.TxIncome
		text = strings.TrimSpace(strings.TrimPrefix(text, "+"))
	}

	fields := strings.Fields(text)
	amountAt := -1
	var amount int64
	for i := len(fields) - 1; i >= 0; i-- {
		v, err := domain.ParseAmount(fields[i])
		if err == nil {
			amount, amountAt = v, i
			break
		}
	}
	if amountAt < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "no amount found in entry"}
	}

	words := append(append([]string{}, fields[:amountAt]...), fields[amountAt+1:]...)
	for _, w := range words {
		if incomeWords[strings.ToLower(w)] {
			txType = domain.TxIncome
		}
	}

	desc := strings.Join(words, " ")
	return &domain.Extraction{
		Amount:       amount,
		Description:  desc,
		MerchantName: desc,
		Type:         txType,
	}, nil
}
