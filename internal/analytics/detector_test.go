package analytics_test

import (
	"testing"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/analytics"
	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func expense(merchant string, amount int64, at time.Time) domain.Transaction {
	return domain.Transaction{
		Amount:       amount,
		MerchantName: merchant,
		Type:         domain.TxExpense,
		OccurredAt:   at,
	}
}

func TestDetectRecurring_Empty(t *testing.T) {
	got := analytics.DetectRecurring(nil, analytics.DefaultDetectOptions())
	if got == nil {
		t.Fatal("expected empty non-nil slice")
	}
	if len(got) != 0 {
		t.Errorf("expected 0 charges, got %d", len(got))
	}
}

func TestDetectRecurring_NetflixExample(t *testing.T) {
	txns := []domain.Transaction{
		expense("Netflix", -120000, day(2024, time.January, 5)),
		expense("Netflix", -120000, day(2024, time.February, 4)),
		expense("Netflix", -120000, day(2024, time.March, 6)),
	}

	got := analytics.DetectRecurring(txns, analytics.DefaultDetectOptions())
	if len(got) != 1 {
		t.Fatalf("expected 1 recurring charge, got %d", len(got))
	}
	c := got[0]
	if c.Merchant != "Netflix" {
		t.Errorf("expected merchant Netflix, got %q", c.Merchant)
	}
	if c.Amount != 120000 {
		t.Errorf("expected amount 120000, got %d", c.Amount)
	}
	if c.Frequency != 3 {
		t.Errorf("expected frequency 3, got %d", c.Frequency)
	}
	if c.Cadence != domain.CadenceMonthly {
		t.Errorf("expected monthly cadence, got %s", c.Cadence)
	}
	if !c.LastSeen.Equal(day(2024, time.March, 6)) {
		t.Errorf("expected last seen Mar 6, got %v", c.LastSeen)
	}
	if c.MonthlyCost != 120000 {
		t.Errorf("expected monthly cost 120000, got %d", c.MonthlyCost)
	}
}

func TestDetectRecurring_SingleChargeNeverQualifies(t *testing.T) {
	txns := []domain.Transaction{
		expense("Laptop Store", -25000000, day(2024, time.February, 1)),
	}
	if got := analytics.DetectRecurring(txns, analytics.DefaultDetectOptions()); len(got) != 0 {
		t.Errorf("expected no charges, got %+v", got)
	}
}

func TestClassify_SameDayDuplicateIsNotEnoughData(t *testing.T) {
	txns := []domain.Transaction{
		expense("Spotify", -55000, day(2024, time.March, 1)),
		expense("Spotify", -55000, day(2024, time.March, 1).Add(2*time.Hour)),
	}

	got := analytics.Classify(txns, analytics.DefaultDetectOptions())
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %d", len(got))
	}
	if got[0].Verdict != domain.VerdictNotEnoughData {
		t.Errorf("expected not_enough_data, got %s", got[0].Verdict)
	}
	if got[0].Charge != nil {
		t.Error("expected no charge for non-recurring group")
	}
	if len(analytics.DetectRecurring(txns, analytics.DefaultDetectOptions())) != 0 {
		t.Error("same-day duplicates must not be reported as recurring")
	}
}

func TestClassify_Irregular(t *testing.T) {
	txns := []domain.Transaction{
		expense("Warung Padang", -30000, day(2024, time.January, 1)),
		expense("Warung Padang", -30000, day(2024, time.January, 15)),
		expense("Warung Padang", -30000, day(2024, time.March, 20)),
	}

	got := analytics.Classify(txns, analytics.DefaultDetectOptions())
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %d", len(got))
	}
	if got[0].Verdict != domain.VerdictIrregular {
		t.Errorf("expected irregular, got %s", got[0].Verdict)
	}
	if got[0].Occurrences != 3 {
		t.Errorf("expected 3 occurrences, got %d", got[0].Occurrences)
	}
}

func TestDetectRecurring_ToleranceBand(t *testing.T) {
	txns := []domain.Transaction{
		expense("PLN", -100000, day(2024, time.January, 10)),
		expense("PLN", -102000, day(2024, time.February, 10)),
		expense("PLN", -98000, day(2024, time.March, 11)),
	}

	got := analytics.DetectRecurring(txns, analytics.DefaultDetectOptions())
	if len(got) != 1 {
		t.Fatalf("expected amounts within 5%% to form one charge, got %d", len(got))
	}
	if got[0].Frequency != 3 {
		t.Errorf("expected frequency 3, got %d", got[0].Frequency)
	}
}

func TestDetectRecurring_MeteredBillWithoutRepeatedAmount(t *testing.T) {
	txns := []domain.Transaction{
		expense("PLN", -96000, day(2024, time.January, 5)),
		expense("PLN", -104000, day(2024, time.February, 5)),
		expense("PLN", -100000, day(2024, time.March, 5)),
	}

	got := analytics.DetectRecurring(txns, analytics.DefaultDetectOptions())
	if len(got) != 1 {
		t.Fatalf("expected one monthly charge, got %d", len(got))
	}
	if got[0].Amount != 100000 {
		t.Errorf("expected band anchored on 100000, got %d", got[0].Amount)
	}
	if got[0].Frequency != 3 || got[0].Cadence != domain.CadenceMonthly {
		t.Errorf("expected 3 monthly charges, got %dx %s", got[0].Frequency, got[0].Cadence)
	}
}

func TestClassify_SplitsAmountsOutsideBand(t *testing.T) {
	txns := []domain.Transaction{
		expense("Gym", -50000, day(2024, time.January, 2)),
		expense("Gym", -50000, day(2024, time.February, 2)),
		expense("Gym", -50000, day(2024, time.March, 2)),
		expense("Gym", -300000, day(2024, time.February, 20)),
	}

	got := analytics.Classify(txns, analytics.DefaultDetectOptions())
	if len(got) != 2 {
		t.Fatalf("expected 2 sub-groups, got %d", len(got))
	}

	verdicts := map[int64]domain.Verdict{}
	for _, c := range got {
		verdicts[c.Amount] = c.Verdict
	}
	if verdicts[50000] != domain.VerdictRecurring {
		t.Errorf("expected 50000 group recurring, got %s", verdicts[50000])
	}
	if verdicts[300000] != domain.VerdictNotEnoughData {
		t.Errorf("expected 300000 group not_enough_data, got %s", verdicts[300000])
	}
}

func TestDetectRecurring_MerchantNormalization(t *testing.T) {
	txns := []domain.Transaction{
		expense("  netflix ", -120000, day(2024, time.January, 5)),
		expense("NETFLIX", -120000, day(2024, time.February, 4)),
		expense("Netflix", -120000, day(2024, time.March, 6)),
		expense("", -120000, day(2024, time.March, 6)),
	}

	got := analytics.DetectRecurring(txns, analytics.DefaultDetectOptions())
	if len(got) != 1 {
		t.Fatalf("expected 1 charge, got %d", len(got))
	}
	if got[0].Merchant != "Netflix" {
		t.Errorf("expected display name of latest charge, got %q", got[0].Merchant)
	}
	if got[0].Frequency != 3 {
		t.Errorf("blank merchant must be excluded, got frequency %d", got[0].Frequency)
	}
}

func TestDetectRecurring_IgnoresIncomeAndTransfers(t *testing.T) {
	txns := []domain.Transaction{
		{Amount: 8000000, MerchantName: "Employer", Type: domain.TxIncome, OccurredAt: day(2024, time.January, 25)},
		{Amount: 8000000, MerchantName: "Employer", Type: domain.TxIncome, OccurredAt: day(2024, time.February, 25)},
		{Amount: -1000000, MerchantName: "Savings", Type: domain.TxTransfer, OccurredAt: day(2024, time.January, 26)},
		{Amount: -1000000, MerchantName: "Savings", Type: domain.TxTransfer, OccurredAt: day(2024, time.February, 26)},
	}
	if got := analytics.DetectRecurring(txns, analytics.DefaultDetectOptions()); len(got) != 0 {
		t.Errorf("expected only expenses to be considered, got %+v", got)
	}
}

func TestDetectRecurring_OrderedByMonthlyCost(t *testing.T) {
	txns := []domain.Transaction{
		expense("Streaming", -50000, day(2024, time.January, 1)),
		expense("Streaming", -50000, day(2024, time.February, 1)),
		expense("Laundry", -20000, day(2024, time.January, 1)),
		expense("Laundry", -20000, day(2024, time.January, 8)),
		expense("Laundry", -20000, day(2024, time.January, 15)),
		expense("Domain", -200000, day(2023, time.January, 20)),
		expense("Domain", -200000, day(2024, time.January, 20)),
	}

	got := analytics.DetectRecurring(txns, analytics.DefaultDetectOptions())
	if len(got) != 3 {
		t.Fatalf("expected 3 charges, got %d", len(got))
	}

	want := []string{"Laundry", "Streaming", "Domain"}
	for i, m := range want {
		if got[i].Merchant != m {
			t.Errorf("position %d: expected %s, got %s", i, m, got[i].Merchant)
		}
	}
	if got[0].Cadence != domain.CadenceWeekly {
		t.Errorf("expected weekly cadence, got %s", got[0].Cadence)
	}
	if got[2].Cadence != domain.CadenceYearly {
		t.Errorf("expected yearly cadence, got %s", got[2].Cadence)
	}
	if got[2].MonthlyCost != 16438 {
		t.Errorf("expected yearly monthly cost 16438, got %d", got[2].MonthlyCost)
	}
}

func TestClassify_UsesLocationForDays(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	// 20:00 UTC on Jan 31 is already Feb 1 in WIB, which makes the two
	// charges a single local day.
	txns := []domain.Transaction{
		expense("Kopi", -25000, time.Date(2024, time.January, 31, 20, 0, 0, 0, time.UTC)),
		expense("Kopi", -25000, time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC)),
	}

	utc := analytics.Classify(txns, analytics.DetectOptions{AmountTolerance: 0.05, Location: time.UTC})
	local := analytics.Classify(txns, analytics.DetectOptions{AmountTolerance: 0.05, Location: wib})

	if utc[0].Occurrences != 2 {
		t.Errorf("expected 2 days in UTC, got %d", utc[0].Occurrences)
	}
	if local[0].Occurrences != 1 {
		t.Errorf("expected 1 day in WIB, got %d", local[0].Occurrences)
	}
}

func TestMerchantKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Netflix", "netflix"},
		{"  Grab   Food ", "grab food"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := analytics.MerchantKey(tt.in); got != tt.want {
			t.Errorf("MerchantKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
