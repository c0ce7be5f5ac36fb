package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/moyu-x/dropwatch/internal/app"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "创建 vault 目录结构",
	Long:  `在 vault 根目录下创建 Inbox、Needs_Action、Done、Plans、Logs 目录，已存在的目录保持不变。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := app.RunInit(afero.NewOsFs(), optionsFrom(cmd))
		if err != nil {
			return err
		}
		fmt.Printf("vault 已就绪: %s\n", layout.Root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
