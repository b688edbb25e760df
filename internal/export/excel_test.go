package export_test

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"jobmate/offer-service/internal/compensation"
	"jobmate/offer-service/internal/export"
	"jobmate/offer-service/internal/scoring"
)

func comparison() *scoring.Comparison {
	cmp := scoring.NewComparator(nil).Compare([]scoring.Candidate{
		{Label: "Acme", Offer: compensation.Offer{BaseSalary: 150000, Location: "Austin, TX"}},
		{Label: "Globex", Offer: compensation.Offer{BaseSalary: 220000, SigningBonus: 20000, Location: "Austin, TX"}},
	})
	return &cmp
}

func TestWriteComparison_Sheets(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteComparison(&buf, comparison()); err != nil {
		t.Fatalf("WriteComparison: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	raw := excelize.Options{RawCellValue: true}
	cell := func(sheet, ref string) string {
		t.Helper()
		v, err := f.GetCellValue(sheet, ref, raw)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s): %v", sheet, ref, err)
		}
		return v
	}

	if got := cell(export.SummarySheet, "B2"); got != "Acme" {
		t.Errorf("Summary!B2 = %q, want Acme", got)
	}
	if got := cell(export.SummarySheet, "A3"); got != "Winner" {
		t.Errorf("Summary!A3 = %q, want Winner", got)
	}
	if got := cell(export.MatrixSheet, "C1"); got != "Globex" {
		t.Errorf("Comparison!C1 = %q, want Globex", got)
	}
	if got := cell(export.MatrixSheet, "A2"); got != "Base Salary" {
		t.Errorf("Comparison!A2 = %q, want Base Salary", got)
	}
	if got := cell(export.MatrixSheet, "C2"); got != "220000" {
		t.Errorf("Comparison!C2 = %q, want 220000", got)
	}
}

func TestComparisonWorkbook_Empty(t *testing.T) {
	if _, err := export.ComparisonWorkbook(&scoring.Comparison{WinnerIndex: -1}); err == nil {
		t.Error("expected error for empty comparison")
	}
	if _, err := export.ComparisonWorkbook(nil); err == nil {
		t.Error("expected error for nil comparison")
	}
}
