package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"betpool/models"
)

var printer = message.NewPrinter(language.English)

const timeLayout = "2006-01-02 15:04:05"

// RenderRecord formats the full settlement breakdown for a record:
// prize settings, one row per participant and the pool totals.
func RenderRecord(record *models.BetRecord) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ID:      %s\n", record.ID))
	sb.WriteString(fmt.Sprintf("Created: %s\n", record.CreatedAt.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Prize:   %s\n", fmtPrize(record.PrizeSettings)))
	sb.WriteString("\n")

	rows := make([][]string, 0, len(record.Participants)+1)
	for _, name := range record.Participants {
		result := record.PerParticipantResult[name]
		rows = append(rows, []string{
			name,
			fmtStakes(record.Stakes[name]),
			fmtAmount(result.TotalStaked),
			fmtAmount(result.TotalPaid),
			fmtAmount(result.TotalPaid.Sub(result.TotalStaked)),
		})
	}
	rows = append(rows, []string{
		"(pool)",
		"",
		fmtAmount(record.Summary.TotalStaked),
		fmtAmount(record.Summary.TotalPaid),
		fmtAmount(record.Summary.HouseProfit.Neg()),
	})

	sb.WriteString(renderTable(record.Title, []string{"Participant", "Stakes", "Staked", "Paid", "Net"}, rows))
	sb.WriteString(fmt.Sprintf("House profit: %s\n", fmtAmount(record.Summary.HouseProfit)))
	return sb.String()
}

// RenderRecordList formats saved record headers, one row each.
func RenderRecordList(headers []models.RecordHeader) string {
	if len(headers) == 0 {
		return "No saved records.\n"
	}
	rows := make([][]string, 0, len(headers))
	for _, h := range headers {
		rows = append(rows, []string{h.ID, h.Title, h.CreatedAt.Format(timeLayout)})
	}
	return renderTable("Saved Records", []string{"ID", "Title", "Created"}, rows)
}

// RenderTrashList formats the backups held in trash for one record.
func RenderTrashList(entries []models.TrashEntry) string {
	if len(entries) == 0 {
		return "No backups in trash.\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.Key.BackupTime.Unix(), 10),
			e.Key.BackupTime.Format(timeLayout),
			e.Title,
		})
	}
	return renderTable("Trash", []string{"Key", "Backed Up", "Title"}, rows)
}

// RenderTemplateList formats the stored participant templates.
func RenderTemplateList(infos []models.TemplateInfo) string {
	if len(infos) == 0 {
		return "No templates.\n"
	}
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Name, strconv.Itoa(info.ParticipantCount)})
	}
	return renderTable("Templates", []string{"Name", "Participants"}, rows)
}

func fmtPrize(prize models.PrizeSettings) string {
	if !prize.Payable() {
		return "not drawn"
	}
	return printer.Sprintf("number %d at rate %s", *prize.WinningNumber, prize.PayoutRate.String())
}

// fmtStakes renders a participant's per-number stakes sorted by number,
// e.g. "7:10, 13:5".
func fmtStakes(stakes models.NumberStakes) string {
	if len(stakes) == 0 {
		return ""
	}
	numbers := make([]int, 0, len(stakes))
	for key := range stakes {
		if n, err := strconv.Atoi(key); err == nil {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)

	parts := make([]string, 0, len(numbers))
	for _, n := range numbers {
		parts = append(parts, fmt.Sprintf("%d:%s", n, stakes[models.NumberKey(n)].String()))
	}
	return strings.Join(parts, ", ")
}

func fmtAmount(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.InexactFloat64())
}

// renderTable draws a boxed table with a centered title. Column widths
// are measured with runewidth so CJK participant names line up.
func renderTable(title string, headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var divider strings.Builder
	divider.WriteString("+")
	for _, w := range widths {
		divider.WriteString(strings.Repeat("-", w+2))
		divider.WriteString("+")
	}
	divider.WriteString("\n")

	totalInner := len(headers) - 1
	for _, w := range widths {
		totalInner += w + 2
	}
	titleW := runewidth.StringWidth(title)
	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString("+" + strings.Repeat("-", totalInner) + "+\n")
	sb.WriteString("|" + blank(left) + title + blank(right) + "|\n")
	sb.WriteString(divider.String())
	sb.WriteString(renderRow(headers, widths))
	sb.WriteString(divider.String())
	for _, row := range rows {
		sb.WriteString(renderRow(row, widths))
	}
	sb.WriteString(divider.String())
	return sb.String()
}

func renderRow(cells []string, widths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i, cell := range cells {
		sb.WriteString(" " + cell + blank(widths[i]-runewidth.StringWidth(cell)) + " |")
	}
	sb.WriteString("\n")
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
