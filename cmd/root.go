package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/moyu-x/dropwatch/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "dropwatch",
	Short: "监听投递目录，为每个新文件创建待处理记录",
	Long: `Dropwatch 监听 vault 的 Inbox 目录，把投递进来的文件转换为 Needs_Action 中的待处理记录。

主要功能:
- 等待文件写入完成（大小连续稳定）后再处理
- 静默窗口内到达的文件合并为一个批次
- 基于内容指纹去重，重启后从日志恢复已处理集合
- 生成不冲突的 ACTION_ 记录文件名
- 启动时处理离线期间投递的文件`,
	SilenceUsage: true,
}

// Execute 由 main.main 调用
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "配置文件路径 (默认 $HOME/.dropwatch/config.yaml)")
	rootCmd.PersistentFlags().String("vault", "", "vault 根目录，覆盖配置与 VAULT_PATH")
	rootCmd.PersistentFlags().Bool("dry-run", false, "预览模式，不写入任何文件")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "显示调试日志")
}

func optionsFrom(cmd *cobra.Command) *app.Options {
	configFile, _ := cmd.Flags().GetString("config")
	vaultPath, _ := cmd.Flags().GetString("vault")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	return &app.Options{
		ConfigFile: configFile,
		VaultPath:  vaultPath,
		DryRun:     dryRun,
		Verbose:    verbose,
	}
}
