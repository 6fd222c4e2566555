// Package export renders reports into downloadable documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"github.com/jung-kurt/gofpdf"
)

var (
	headerColor       = []int{0, 105, 92}
	headerTextColor   = []int{255, 255, 255}
	sectionTitleColor = []int{0, 77, 64}
	bodyTextColor     = []int{33, 33, 33}
	lineColor         = []int{200, 200, 200}
	overColor         = []int{192, 0, 0}
)

type labels struct {
	title      string
	summary    string
	income     string
	expense    string
	balance    string
	txCount    string
	categories string
	category   string
	spent      string
	budget     string
	over       string
	goals      string
	recurring  string
	none       string
	generated  string
}

var dictionary = map[string]labels{
	domain.LangIndonesian: {
		title:      "Laporan Keuangan %02d/%d",
		summary:    "Ringkasan",
		income:     "Pemasukan",
		expense:    "Pengeluaran",
		balance:    "Saldo",
		txCount:    "Jumlah transaksi",
		categories: "Pengeluaran per Kategori",
		category:   "Kategori",
		spent:      "Terpakai",
		budget:     "Anggaran",
		over:       "melebihi anggaran",
		goals:      "Target Tabungan",
		recurring:  "Langganan Terdeteksi",
		none:       "Tidak ada data.",
		generated:  "Dibuat %s",
	},
	domain.LangEnglish: {
		title:      "Financial Report %02d/%d",
		summary:    "Summary",
		income:     "Income",
		expense:    "Expense",
		balance:    "Balance",
		txCount:    "Transactions",
		categories: "Spending by Category",
		category:   "Category",
		spent:      "Spent",
		budget:     "Budget",
		over:       "over budget",
		goals:      "Savings Goals",
		recurring:  "Detected Subscriptions",
		none:       "No data.",
		generated:  "Generated %s",
	},
}

// MonthlyReport is the content of one monthly PDF.
type MonthlyReport struct {
	Report      *domain.MonthlyReport
	Recurring   []domain.RecurringCharge
	Lang        string
	GeneratedAt time.Time
}

// WriteMonthlyPDF renders r as an A4 PDF into w.
func WriteMonthlyPDF(w io.Writer, r MonthlyReport) error {
	if r.Report == nil {
		return errors.New("export: nil report")
	}
	lang := domain.NormalizeLang(r.Lang)
	l := dictionary[lang]
	money := func(n int64) string { return domain.FormatRupiah(n, lang) }
	stats := r.Report.Stats

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := fmt.Sprintf(l.title, stats.Month, stats.Year)
	pdf.SetTitle(title, true)
	pdf.SetCreator("Monev", true)

	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf(l.generated, generated.Format("2006-01-02 15:04"))), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	section := func(name string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(name))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}
	row := func(label, value string) {
		pdf.CellFormat(95, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(95, 6, tr(value), "", 1, "R", false, 0, "")
	}

	pdf.AddPage()
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  "+title), "", 1, "L", true, 0, "")
	pdf.Ln(8)

	section(l.summary)
	row(l.income, money(stats.Income))
	row(l.expense, money(stats.Expense))
	row(l.balance, money(stats.Balance))
	row(l.txCount, fmt.Sprintf("%d", stats.TransactionCount))
	pdf.Ln(6)

	section(l.categories)
	if len(r.Report.Categories) == 0 {
		pdf.MultiCell(190, 5, tr(l.none), "", "L", false)
	} else {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(80, 7, tr(l.category), "B", 0, "L", false, 0, "")
		pdf.CellFormat(55, 7, tr(l.spent), "B", 0, "R", false, 0, "")
		pdf.CellFormat(55, 7, tr(l.budget), "B", 1, "R", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, c := range r.Report.Categories {
			budget := "-"
			if c.Budget != nil {
				budget = fmt.Sprintf("%s (%.0f%%)", money(c.Budget.Limit), c.Budget.DisplayPct)
				if c.Budget.OverBudget {
					pdf.SetTextColor(overColor[0], overColor[1], overColor[2])
					budget = money(c.Budget.Limit) + ", " + l.over
				}
			}
			pdf.CellFormat(80, 6, tr(c.Name), "", 0, "L", false, 0, "")
			pdf.CellFormat(55, 6, tr(money(c.Spent)), "", 0, "R", false, 0, "")
			pdf.CellFormat(55, 6, tr(budget), "", 1, "R", false, 0, "")
			pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		}
	}
	pdf.Ln(6)

	section(l.goals)
	if len(r.Report.Goals.Goals) == 0 {
		pdf.MultiCell(190, 5, tr(l.none), "", "L", false)
	}
	for _, g := range r.Report.Goals.Goals {
		row(g.Name, fmt.Sprintf("%s / %s (%.0f%%)", money(g.Current), money(g.Target), g.Progress*100))
	}
	pdf.Ln(6)

	section(l.recurring)
	if len(r.Recurring) == 0 {
		pdf.MultiCell(190, 5, tr(l.none), "", "L", false)
	}
	for _, c := range r.Recurring {
		row(fmt.Sprintf("%s (%s, %dx)", c.Merchant, c.Cadence, c.Frequency), money(c.MonthlyCost))
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: render pdf: %w", err)
	}
	return nil
}
