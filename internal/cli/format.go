package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"debiti/internal/core"
)

// Currency is appended to amounts shown in the terminal.
const Currency = "KWD"

func FormatMoney(m core.Money) string {
	return core.Format(m.Float(), Currency)
}

// FormatInstallments renders "remaining/total", or "open" for open-ended debts.
func FormatInstallments(o core.Obligation) string {
	if o.TotalInstallments == nil || o.RemainingInstallments == nil {
		return "open"
	}
	return fmt.Sprintf("%d/%d", *o.RemainingInstallments, *o.TotalInstallments)
}

// FormatDaysUntil renders a day offset as "today", "in 3 days" or "2 days late".
func FormatDaysUntil(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days > 0:
		return "in " + strconv.Itoa(days) + " days"
	case days == -1:
		return "1 day late"
	default:
		return strconv.Itoa(-days) + " days late"
	}
}

func FormatPercent(rate float64) string {
	return humanize.FormatFloat("#,###.##", rate) + "%"
}
