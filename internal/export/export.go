// Package export renders a user's data as JSON or XLSX downloads.
package export

import (
	"encoding/json"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/services"
)

// PersonalData bundles everything the personal export contains.
type PersonalData struct {
	GeneratedAt time.Time                   `json:"generated_at"`
	Profile     core.Profile                `json:"profile"`
	Expenses    []core.Expense              `json:"expenses"`
	Goals       []services.GoalWithProgress `json:"goals"`
	Report      *services.AnalyticsReport   `json:"report"`
}

// PersonalJSON renders the personal export as indented JSON.
func PersonalJSON(data PersonalData) ([]byte, error) {
	return json.MarshalIndent(data, "", "  ")
}

// GroupData is the JSON shape of a group ledger export.
type GroupData struct {
	GeneratedAt   time.Time           `json:"generated_at"`
	Group         core.SavingsGroup   `json:"group"`
	Members       []core.GroupMember  `json:"members"`
	Contributions []core.Contribution `json:"contributions"`
	Expenses      []core.GroupExpense `json:"expenses"`
	SpentApproved string              `json:"spent_approved"`
	NetSavings    string              `json:"net_savings"`
}

// GroupJSON renders a group ledger as indented JSON.
func GroupJSON(ledger *services.GroupLedger, generatedAt time.Time) ([]byte, error) {
	return json.MarshalIndent(GroupData{
		GeneratedAt:   generatedAt,
		Group:         ledger.Group,
		Members:       ledger.Members,
		Contributions: ledger.Contributions,
		Expenses:      ledger.Expenses,
		SpentApproved: ledger.SpentApproved.StringFixed(2),
		NetSavings:    ledger.NetSavings.StringFixed(2),
	}, "", "  ")
}
