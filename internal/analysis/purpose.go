package analysis

import (
	"strings"

	"github.com/tablegate/tablegate/internal/gateway"
)

// Purpose categories assigned by InferTablePurpose.
const (
	PurposeProjectTask      = "Project/Task Management"
	PurposeContactPeople    = "Contact/People Management"
	PurposeProductInventory = "Product/Inventory Tracking"
	PurposeEventSchedule    = "Event/Schedule Management"
	PurposeContactInfo      = "Contact Information"
	PurposeFinancial        = "Financial/Budget Tracking"
	PurposeGeneral          = "General Data Storage"
)

var purposeNameKeywords = []struct {
	purpose  string
	keywords []string
}{
	{PurposeProjectTask, []string{"project", "task", "todo"}},
	{PurposeContactPeople, []string{"contact", "people", "user", "client"}},
	{PurposeProductInventory, []string{"product", "inventory", "item"}},
	{PurposeEventSchedule, []string{"event", "calendar", "schedule"}},
}

var purposeFieldKeywords = []struct {
	purpose  string
	keywords []string
}{
	{PurposeContactInfo, []string{"email", "phone", "address"}},
	{PurposeFinancial, []string{"price", "cost", "amount", "budget"}},
}

// InferTablePurpose guesses what a table is used for from its name, falling
// back to its field names. Table-name matches take precedence.
func InferTablePurpose(tableName string, fields []gateway.Field) string {
	name := strings.ToLower(tableName)
	for _, entry := range purposeNameKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.purpose
			}
		}
	}

	fieldNames := map[string]struct{}{}
	for _, f := range fields {
		fieldNames[strings.ToLower(f.Name)] = struct{}{}
	}
	for _, entry := range purposeFieldKeywords {
		for _, kw := range entry.keywords {
			if _, ok := fieldNames[kw]; ok {
				return entry.purpose
			}
		}
	}
	return PurposeGeneral
}

// CategorizeTables builds a histogram of inferred purposes across tables.
func CategorizeTables(tables []gateway.Table) map[string]int {
	categories := map[string]int{}
	for _, t := range tables {
		categories[InferTablePurpose(t.Name, t.Fields)]++
	}
	return categories
}
