package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moyu-x/dropwatch/internal/app"
	"github.com/moyu-x/dropwatch/pkg/report"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "处理已有文件后持续监听 Inbox",
	Long: `启动时先处理 Inbox 中已有的文件，然后监听新投递的文件。
收到 SIGINT/SIGTERM 后停止监听，正在处理的批次完成后退出。`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := app.RunWatch(ctx, optionsFrom(cmd))
	if err != nil {
		return err
	}

	fmt.Println(report.Summary("监听结束", res.Stats, res.DryRun))
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
