// Package export renders offer comparisons as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"jobmate/offer-service/internal/scoring"
)

// Sheet names.
const (
	SummarySheet = "Summary"
	MatrixSheet  = "Comparison"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var metricTitles = map[string]string{
	"baseSalary":          "Base Salary",
	"signingBonus":        "Signing Bonus",
	"annualBonusExpected": "Annual Bonus (expected)",
	"annualEquity":        "Annual Equity",
	"totalBenefits":       "Total Benefits",
	"year1Total":          "Year 1 Total",
	"annualTotal":         "Annual Total",
	"fourYearTotal":       "Four-Year Total",
	"financialScore":      "Financial Score",
	"nonFinancialScore":   "Non-Financial Score",
	"weightedTotalScore":  "Weighted Total Score",
}

// WriteComparison writes cmp to w as an xlsx workbook.
func WriteComparison(w io.Writer, cmp *scoring.Comparison) error {
	f, err := ComparisonWorkbook(cmp)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ComparisonWorkbook builds a two-sheet workbook: a summary of each offer's
// score and recommendation, and the metric-by-offer comparison matrix with the
// best value in every row highlighted.
func ComparisonWorkbook(cmp *scoring.Comparison) (*excelize.File, error) {
	if cmp == nil || len(cmp.Offers) == 0 {
		return nil, fmt.Errorf("nothing to export: comparison has no offers")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(MatrixSheet); err != nil {
		f.Close()
		return nil, err
	}

	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create styles: %w", err)
	}
	if err := summarySheet(f, st, cmp); err != nil {
		f.Close()
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if err := matrixSheet(f, st, cmp); err != nil {
		f.Close()
		return nil, fmt.Errorf("comparison sheet: %w", err)
	}
	return f, nil
}

type styles struct {
	header, best, money, score int
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		s   styles
		err error
	)
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return s, err
	}
	moneyFmt := "#,##0"
	if s.best, err = f.NewStyle(&excelize.Style{
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Font:         &excelize.Font{Bold: true},
		Border:       border,
		CustomNumFmt: &moneyFmt,
	}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &moneyFmt}); err != nil {
		return s, err
	}
	scoreFmt := "0.0"
	s.score, err = f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &scoreFmt})
	return s, err
}

func summarySheet(f *excelize.File, st styles, cmp *scoring.Comparison) error {
	sheet := SummarySheet
	headers := []string{"Rank", "Offer", "Weighted Score", "Financial", "Non-Financial", "Percentile vs Market", "Recommendation"}
	if err := writeHeader(f, sheet, st.header, headers); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "F", 16)
	_ = f.SetColWidth(sheet, "G", "G", 22)

	for i, o := range cmp.Offers {
		row := i + 2
		rank := ""
		if i == cmp.WinnerIndex {
			rank = "Winner"
		}
		for _, t := range cmp.TiedWith {
			if t == i {
				rank = "Tied"
			}
		}
		pct := any("n/a")
		if o.Score.PercentileVsMarket != nil {
			pct = *o.Score.PercentileVsMarket
		}
		values := []any{rank, o.Label, o.Score.WeightedTotalScore, o.Score.FinancialScore, o.Score.NonFinancialScore, pct, string(o.Score.Recommendation)}
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}
		if err := styleRange(f, sheet, 3, row, 6, row, st.score); err != nil {
			return err
		}
		if i == cmp.WinnerIndex {
			if err := styleRange(f, sheet, 1, row, 2, row, st.best); err != nil {
				return err
			}
		}
	}
	return nil
}

func matrixSheet(f *excelize.File, st styles, cmp *scoring.Comparison) error {
	sheet := MatrixSheet
	headers := []string{"Metric"}
	for _, o := range cmp.Offers {
		headers = append(headers, o.Label)
	}
	if err := writeHeader(f, sheet, st.header, headers); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "A", "A", 26)
	if last, err := excelize.ColumnNumberToName(len(headers)); err == nil {
		_ = f.SetColWidth(sheet, "B", last, 18)
	}

	for i, m := range cmp.Matrix {
		row := i + 2
		values := []any{title(m.Metric)}
		for _, v := range m.Values {
			values = append(values, v)
		}
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}
		style := st.money
		if strings.HasSuffix(m.Metric, "Score") {
			style = st.score
		}
		if err := styleRange(f, sheet, 2, row, len(headers), row, style); err != nil {
			return err
		}
		if err := styleRange(f, sheet, m.BestIndex+2, row, m.BestIndex+2, row, st.best); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, XSplit: 1, YSplit: 1, TopLeftCell: "B2", ActivePane: "bottomRight"})
}

func title(metric string) string {
	if t, ok := metricTitles[metric]; ok {
		return t
	}
	return metric
}

func writeHeader(f *excelize.File, sheet string, style int, headers []string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	return styleRange(f, sheet, 1, 1, len(headers), 1, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func styleRange(f *excelize.File, sheet string, col1, row1, col2, row2, style int) error {
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}
