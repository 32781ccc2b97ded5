package main

import (
	"github.com/loykin/curlproxy/cmd/curlproxy/commands"
	"github.com/loykin/curlproxy/cmd/curlproxy/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "curlproxy",
	Short:         "Expose curl over HTTP as structured JSON responses",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	v := viper.GetViper()
	v.SetDefault("config", config.DefaultPath)
	config.SetDefaults(v)

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to a config yaml")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level (error, warn, info, debug)")
	rootCmd.PersistentFlags().Bool("no-store", false, "disable the execution history store")
	commands.ServeCmd.Flags().String("addr", "", "override server.addr")

	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("store.disabled", rootCmd.PersistentFlags().Lookup("no-store"))
	_ = v.BindPFlag("server.addr", commands.ServeCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ExecCmd)
	rootCmd.AddCommand(commands.CallCmd)
	rootCmd.AddCommand(commands.WaitCmd)
	rootCmd.AddCommand(commands.RunsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
