package notifier

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"IndexSync/internal/model"
	"IndexSync/internal/normalize"
	"IndexSync/internal/updater"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)

// FormatTail renders records as a terminal table in the series' column order.
func FormatTail(records []model.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			normalize.FormatSeriesDate(r.Date),
			r.Open.StringFixed(model.PricePlaces),
			r.High.StringFixed(model.PricePlaces),
			r.Low.StringFixed(model.PricePlaces),
			r.Close.StringFixed(model.PricePlaces),
			r.Volume.StringFixed(model.PricePlaces),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("date", "open", "high", "low", "close", "volume").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// FormatRunSummary formats a run result as a Telegram HTML message.
func FormatRunSummary(symbol string, res *updater.Result, tail []model.Record) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s 資料更新</b> | %s\n\n", symbol, res.Today))
	switch res.Outcome {
	case updater.OutcomeUpToDate:
		b.WriteString(fmt.Sprintf("資料已是最新 (最新日期 %s)\n", res.LastBefore))
		return b.String()
	case updater.OutcomeNoData:
		b.WriteString("無新資料可更新\n")
		b.WriteString(fmt.Sprintf("證交所: %d 筆 | OHLC: %d 筆\n", res.SourceADays, res.SourceBBars))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("新增/更新: %d 筆\n", len(res.Batch)))
	b.WriteString(fmt.Sprintf("最新日期: %s → %s\n", res.LastBefore, res.LastAfter))
	if len(res.Incomplete) > 0 {
		b.WriteString(fmt.Sprintf("缺少成交金額而略過: %d 筆\n", len(res.Incomplete)))
	}
	if len(res.Unbased) > 0 {
		b.WriteString(fmt.Sprintf("缺少 OHLC 而略過: %d 筆\n", len(res.Unbased)))
	}
	if len(tail) > 0 {
		b.WriteString("\n<pre>")
		for _, r := range tail {
			b.WriteString(fmt.Sprintf("%-10s %9s %8s億\n",
				normalize.FormatSeriesDate(r.Date),
				r.Close.StringFixed(model.PricePlaces),
				r.Volume.StringFixed(model.PricePlaces)))
		}
		b.WriteString("</pre>")
	}
	return b.String()
}
