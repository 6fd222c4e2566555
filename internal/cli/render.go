package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"github.com/pterm/pterm"
)

// summaryTable lays out a subscription run as a two-column table.
func summaryTable(s *domain.SubscriptionRunSummary) pterm.TableData {
	return pterm.TableData{
		{"Metric", "Value"},
		{"Started", s.StartedAt.Format(time.RFC3339)},
		{"Users scanned", strconv.Itoa(s.UsersScanned)},
		{"Candidates", strconv.Itoa(s.Candidates)},
		{"Notified", strconv.Itoa(s.Notified)},
		{"Failed", strconv.Itoa(s.Failed)},
	}
}

// recurringTable lists detected charges followed by a total row.
func recurringTable(charges []domain.RecurringCharge, lang string) pterm.TableData {
	data := pterm.TableData{{"Merchant", "Amount", "Cadence", "Seen", "Last seen", "Per month"}}
	var total int64
	for _, c := range charges {
		total += c.MonthlyCost
		data = append(data, []string{
			c.Merchant,
			domain.FormatRupiah(c.Amount, lang),
			string(c.Cadence),
			strconv.Itoa(c.Frequency) + "x",
			c.LastSeen.Format("2006-01-02"),
			domain.FormatRupiah(c.MonthlyCost, lang),
		})
	}
	data = append(data, []string{"Total", "", "", "", "", domain.FormatRupiah(total, lang)})
	return data
}

// categoryTable renders the category breakdown of a monthly report.
// Over-budget rows are marked in the last column.
func categoryTable(r *domain.MonthlyReport, lang string) pterm.TableData {
	data := pterm.TableData{{"Category", "Spent", "Count", "Budget", "Used", "Status"}}
	for _, c := range r.Categories {
		row := []string{
			c.Name,
			domain.FormatRupiah(c.Spent, lang),
			strconv.Itoa(c.Count),
			"-",
			"-",
			"",
		}
		if b := c.Budget; b != nil {
			row[3] = domain.FormatRupiah(b.Limit, lang)
			row[4] = fmt.Sprintf("%.0f%%", b.Ratio*100)
			if b.OverBudget {
				row[5] = "OVER"
			} else {
				row[5] = "ok"
			}
		}
		data = append(data, row)
	}
	return data
}

// statsLines is the short header printed above a monthly report.
func statsLines(s domain.MonthlyStats, lang string) []string {
	return []string{
		fmt.Sprintf("Period:   %04d-%02d", s.Year, s.Month),
		"Income:   " + domain.FormatRupiah(s.Income, lang),
		"Expense:  " + domain.FormatRupiah(s.Expense, lang),
		"Balance:  " + domain.FormatRupiah(s.Balance, lang),
		"Entries:  " + strconv.Itoa(s.TransactionCount),
	}
}
