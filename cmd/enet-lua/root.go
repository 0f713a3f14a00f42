package main

import (
	"fmt"

	"github.com/spf13/cobra"

	enet "github.com/dep2p/go-enet"
	"github.com/dep2p/go-enet/pkg/lib/log"
)

var logger = log.Logger("cmd")

// globalFlags 所有子命令共享的参数
type globalFlags struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "enet-lua",
		Short: "Lua interpreter with the enet module preloaded",
		Long: `enet-lua runs Lua scripts that use require("enet") to create hosts,
connect to peers and exchange packets over reliable UDP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "配置文件（JSON 或 YAML）")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "输出调试日志")

	root.AddCommand(newRunCmd(flags), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the enet-lua version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "enet-lua %s\n", enet.Version)
		},
	}
}
