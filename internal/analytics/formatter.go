package analytics

import (
	"fmt"
	"html"
	"strings"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
)

// Insight block kinds.
const (
	InsightSummary   = "summary"
	InsightSavings   = "savings"
	InsightRecurring = "recurring"
	InsightRunway    = "runway"
)

// maxListedCharges caps how many recurring charges are spelled out.
const maxListedCharges = 5

type phrases struct {
	summaryTitle   string
	income         string
	expense        string
	balance        string
	savingsTitle   string
	savingsRate    string
	overspent      string
	recurringTitle string
	noRecurring    string
	recurringTotal string
	moreCharges    string
	runwayTitle    string
	runwayBody     string
	cadence        map[domain.Cadence]string
}

var dictionary = map[string]phrases{
	domain.LangIndonesian: {
		summaryTitle:   "Ringkasan Bulan Ini",
		income:         "Pemasukan",
		expense:        "Pengeluaran",
		balance:        "Saldo",
		savingsTitle:   "Tabungan",
		savingsRate:    "Kamu menyisihkan %d%% dari pemasukan bulan ini.",
		overspent:      "Pengeluaran melebihi pemasukan sebesar %s.",
		recurringTitle: "Langganan Terdeteksi",
		noRecurring:    "Belum ada langganan yang terdeteksi.",
		recurringTotal: "Total per bulan: %s",
		moreCharges:    "…dan %d lainnya",
		runwayTitle:    "Daya Tahan Kas",
		runwayBody:     "Dengan rata-rata pengeluaran saat ini, saldo cukup untuk sekitar %.1f bulan.",
		cadence: map[domain.Cadence]string{
			domain.CadenceWeekly:  "mingguan",
			domain.CadenceMonthly: "bulanan",
			domain.CadenceYearly:  "tahunan",
		},
	},
	domain.LangEnglish: {
		summaryTitle:   "This Month",
		income:         "Income",
		expense:        "Expense",
		balance:        "Balance",
		savingsTitle:   "Savings",
		savingsRate:    "You kept %d%% of this month's income.",
		overspent:      "Spending exceeded income by %s.",
		recurringTitle: "Detected Subscriptions",
		noRecurring:    "No subscriptions detected yet.",
		recurringTotal: "Monthly total: %s",
		moreCharges:    "…and %d more",
		runwayTitle:    "Cash Runway",
		runwayBody:     "At the current average spend, your balance lasts about %.1f months.",
		cadence: map[domain.Cadence]string{
			domain.CadenceWeekly:  "weekly",
			domain.CadenceMonthly: "monthly",
			domain.CadenceYearly:  "yearly",
		},
	},
}

// FormatInsights turns a month's numbers and the detected recurring
// charges into readable blocks in lang ("id" default, "en").
func FormatInsights(stats domain.MonthlyStats, recurring []domain.RecurringCharge, lang string) []domain.InsightBlock {
	lang = domain.NormalizeLang(lang)
	p := dictionary[lang]
	money := func(n int64) string { return domain.FormatRupiah(n, lang) }

	blocks := []domain.InsightBlock{{
		Kind:  InsightSummary,
		Title: p.summaryTitle,
		Body: fmt.Sprintf("%s: %s\n%s: %s\n%s: %s",
			p.income, money(stats.Income),
			p.expense, money(stats.Expense),
			p.balance, money(stats.Balance)),
	}}

	switch {
	case stats.Balance < 0:
		blocks = append(blocks, domain.InsightBlock{
			Kind:  InsightSavings,
			Title: p.savingsTitle,
			Body:  fmt.Sprintf(p.overspent, money(-stats.Balance)),
		})
	case stats.Income > 0:
		rate := stats.Balance * 100 / stats.Income
		blocks = append(blocks, domain.InsightBlock{
			Kind:  InsightSavings,
			Title: p.savingsTitle,
			Body:  fmt.Sprintf(p.savingsRate, rate),
		})
	}

	blocks = append(blocks, recurringBlock(recurring, p, money))
	return blocks
}

func recurringBlock(recurring []domain.RecurringCharge, p phrases, money func(int64) string) domain.InsightBlock {
	b := domain.InsightBlock{Kind: InsightRecurring, Title: p.recurringTitle}
	if len(recurring) == 0 {
		b.Body = p.noRecurring
		return b
	}

	var sb strings.Builder
	var total int64
	for i, c := range recurring {
		total += c.MonthlyCost
		if i < maxListedCharges {
			fmt.Fprintf(&sb, "• %s: %s (%s, %dx)\n", c.Merchant, money(c.Amount), p.cadence[c.Cadence], c.Frequency)
		}
	}
	if extra := len(recurring) - maxListedCharges; extra > 0 {
		fmt.Fprintf(&sb, p.moreCharges+"\n", extra)
	}
	fmt.Fprintf(&sb, p.recurringTotal, money(total))
	b.Body = sb.String()
	return b
}

// RecurringBlock renders only the recurring-charge list, as sent by the
// scheduled subscription scan.
func RecurringBlock(recurring []domain.RecurringCharge, lang string) domain.InsightBlock {
	lang = domain.NormalizeLang(lang)
	return recurringBlock(recurring, dictionary[lang], func(n int64) string { return domain.FormatRupiah(n, lang) })
}

// RunwayBlock describes how many months the balance lasts.
func RunwayBlock(months float64, lang string) domain.InsightBlock {
	p := dictionary[domain.NormalizeLang(lang)]
	return domain.InsightBlock{
		Kind:  InsightRunway,
		Title: p.runwayTitle,
		Body:  fmt.Sprintf(p.runwayBody, months),
	}
}

// RenderText joins blocks into one chat message. Titles are bold and all
// user-supplied text is escaped, so the result is safe for Telegram's
// HTML parse mode.
func RenderText(blocks []domain.InsightBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Body == "" {
			continue
		}
		parts = append(parts, "<b>"+html.EscapeString(b.Title)+"</b>\n"+html.EscapeString(b.Body))
	}
	return strings.Join(parts, "\n\n")
}
