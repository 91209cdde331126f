package google

import (
	"strconv"
	"time"

	"stackit/internal/core"
)

var progressHeader = []interface{}{"ID", "Label", "Due month", "Amount", "Progression %", "Remaining"}

// progressRows renders goals as a Sheets values matrix.
func progressRows(goals []core.Goal, at time.Time) [][]interface{} {
	rows := make([][]interface{}, 0, len(goals)+2)
	rows = append(rows, progressHeader)
	for _, g := range goals {
		rows = append(rows, []interface{}{
			strconv.FormatInt(g.ID, 10),
			g.Label,
			g.DueMonth.String(),
			g.Amount.StringFixed(2),
			g.Progression.StringFixed(2),
			g.Remaining.StringFixed(2),
		})
	}
	rows = append(rows, []interface{}{"Updated", at.UTC().Format(time.RFC3339)})
	return rows
}
