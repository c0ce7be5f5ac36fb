package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/database"
	"github.com/moyu-x/dropwatch/pkg/record"
)

// Summary 渲染一次运行的统计
func Summary(title string, stats internal.ProcessStats, dryRun bool) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title) + "\n")
	if dryRun {
		b.WriteString(warnStyle.Render("[DRY RUN] 未写入任何文件") + "\n")
	}
	b.WriteString(separatorStyle.Render(strings.Repeat("─", 40)) + "\n")

	b.WriteString(line("已处理", stats.TotalProcessed))
	b.WriteString(line("新建记录", stats.Recorded))
	b.WriteString(line("重复跳过", stats.Duplicates))
	b.WriteString(line("已消失", stats.Vanished))
	if stats.Failed > 0 {
		b.WriteString(labelStyle.Render("失败: ") + warnStyle.Render(fmt.Sprintf("%d", stats.Failed)) + "\n")
	} else {
		b.WriteString(line("失败", stats.Failed))
	}

	if !stats.StartTime.IsZero() && !stats.EndTime.IsZero() {
		elapsed := stats.EndTime.Sub(stats.StartTime).Round(time.Millisecond)
		b.WriteString(labelStyle.Render("耗时: ") + textStyle.Render(elapsed.String()) + "\n")
	}

	return statsBoxStyle.Render(b.String())
}

func line(label string, n int) string {
	return labelStyle.Render(label+": ") + textStyle.Render(fmt.Sprintf("%d", n)) + "\n"
}

// History 渲染索引中的最近记录
func History(rows []database.ActionRow) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("最近的记录 (%d)", len(rows))) + "\n")
	if len(rows) == 0 {
		b.WriteString(hintStyle.Render("暂无记录") + "\n")
		return b.String()
	}

	for _, row := range rows {
		b.WriteString(separatorStyle.Render(strings.Repeat("─", 60)) + "\n")
		b.WriteString(textStyle.Render(row.DetectedAt.Format("2006-01-02 15:04:05")) + "  ")
		b.WriteString(labelStyle.Render(fmt.Sprintf("[%s]", row.Priority)) + "  ")
		b.WriteString(textStyle.Render(fmt.Sprintf("%s (%s)", row.OriginalName, record.FormatSize(row.Size))) + "\n")
		b.WriteString("  → " + filePathStyle.Render(row.ActionFile) + "  " + hintStyle.Render(row.Hash) + "\n")
	}

	return b.String()
}
