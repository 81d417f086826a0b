package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pennywise/internal/core"
	"pennywise/internal/services"
)

// PersonalWorkbook builds the XLSX export: a Summary sheet with totals and
// category shares, an Expenses sheet with the raw rows, and a Goals sheet
// with progress.
func PersonalWorkbook(data PersonalData) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, data); err != nil {
		return nil, err
	}
	if err := writeExpenseSheet(f, "Expenses", data.Expenses); err != nil {
		return nil, err
	}
	if err := writeGoalSheet(f, data.Goals); err != nil {
		return nil, err
	}
	return f, nil
}

// GroupWorkbook builds the XLSX ledger for a savings group.
func GroupWorkbook(ledger *services.GroupLedger) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, err
	}
	rows := [][]any{
		{"Group", ledger.Group.Name},
		{"Goal amount", ledger.Group.GoalAmount.StringFixed(2)},
		{"Contributed", ledger.Group.CurrentAmount.StringFixed(2)},
		{"Spent (approved)", ledger.SpentApproved.StringFixed(2)},
		{"Net savings", ledger.NetSavings.StringFixed(2)},
		{"Members", len(ledger.Members)},
	}
	if err := writeRows(f, "Summary", rows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Contributions"); err != nil {
		return nil, err
	}
	contribRows := [][]any{{"Date", "Member", "Amount", "Description"}}
	for _, c := range ledger.Contributions {
		contribRows = append(contribRows, []any{
			c.Date.Format(core.DateLayout), c.UserID, c.Amount.StringFixed(2), c.Description,
		})
	}
	if err := writeRows(f, "Contributions", contribRows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Expenses"); err != nil {
		return nil, err
	}
	expenseRows := [][]any{{"Date", "Title", "Amount", "Category", "Status", "Submitted by"}}
	for _, e := range ledger.Expenses {
		expenseRows = append(expenseRows, []any{
			e.Date.Format(core.DateLayout), e.Title, e.Amount.StringFixed(2),
			string(e.Category), string(e.Status), e.UserID,
		})
	}
	if err := writeRows(f, "Expenses", expenseRows); err != nil {
		return nil, err
	}

	return f, nil
}

func writeSummarySheet(f *excelize.File, data PersonalData) error {
	rows := [][]any{
		{"Generated", data.GeneratedAt.Format("2006-01-02 15:04")},
		{"Currency", data.Profile.Currency},
		{"Range", data.Report.Range},
		{"Total spent", data.Report.Summary.Total.StringFixed(2)},
		{"Expense count", data.Report.Summary.Count},
		{},
		{"Category", "Amount", "Share %"},
	}
	for _, share := range data.Report.Summary.ByCategory {
		rows = append(rows, []any{
			string(share.Category), share.Amount.StringFixed(2), share.Percentage,
		})
	}
	return writeRows(f, "Summary", rows)
}

func writeExpenseSheet(f *excelize.File, sheet string, expenses []core.Expense) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{{"Date", "Title", "Amount", "Category", "Description"}}
	for _, e := range expenses {
		rows = append(rows, []any{
			e.Date.Format(core.DateLayout), e.Title, e.Amount.StringFixed(2),
			string(e.Category), e.Description,
		})
	}
	return writeRows(f, sheet, rows)
}

func writeGoalSheet(f *excelize.File, goals []services.GoalWithProgress) error {
	if _, err := f.NewSheet("Goals"); err != nil {
		return err
	}
	rows := [][]any{{"Category", "Period", "Budget", "Spent", "Progress %", "Over budget"}}
	for _, g := range goals {
		rows = append(rows, []any{
			string(g.Goal.Category), string(g.Goal.Period),
			g.Goal.Amount.StringFixed(2), g.Progress.Spent.StringFixed(2),
			g.Progress.Percentage, g.Progress.OverBudget,
		})
	}
	return writeRows(f, "Goals", rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
