package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/moyu-x/dropwatch/internal/app"
	"github.com/moyu-x/dropwatch/pkg/report"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "处理 Inbox 中已有的文件后退出",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := app.RunScan(ctx, afero.NewOsFs(), optionsFrom(cmd))
	if err != nil {
		return err
	}

	fmt.Println(report.Summary("扫描完成", res.Stats, res.DryRun))
	return nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
