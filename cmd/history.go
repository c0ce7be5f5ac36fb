package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moyu-x/dropwatch/internal/app"
	"github.com/moyu-x/dropwatch/pkg/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "列出记录索引中最近的记录",
	Long:  `需要在配置中设置 database.path 启用记录索引。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		rows, err := app.RunHistory(optionsFrom(cmd), limit)
		if err != nil {
			return err
		}

		fmt.Println(report.History(rows))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "显示的记录数")
	rootCmd.AddCommand(historyCmd)
}
