package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/csindex/csindexd/x"
)

// rootCmd is the base command invoked when csindexd is run without a
// recognized subcommand.
var rootCmd = &cobra.Command{
	Use:   "csindexd",
	Short: "csindexd: trigram code index wrapper and index store",
	Long: `
csindexd wraps the classic cindex/csearch trigram indexing toolchain: it
dispatches the external indexer and searcher binaries against a directory
of on-disk index files, and can prune files or whole sub-trees from an
existing index without a full re-index.
`,
	Args: cobra.NoArgs,
}

// execute parses the Go flag set and runs rootCmd; the child commands are
// added in init. Called once from main.main.
func execute() {
	goflag.Parse()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var rootConf = viper.New()

func init() {
	rootCmd.PersistentFlags().String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden to values set with environment variables and flags.")
	x.FillCommonFlags(rootCmd.PersistentFlags())
	rootConf.BindPFlags(rootCmd.PersistentFlags())

	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)

	var subcommands = []*x.SubCommand{
		&Serve, &Index, &Search, &Prune, &Inspect,
	}
	for _, sc := range subcommands {
		rootCmd.AddCommand(sc.Cmd)
		sc.Conf = viper.New()
		sc.Conf.BindPFlags(sc.Cmd.Flags())
		sc.Conf.BindPFlags(rootCmd.PersistentFlags())
		sc.Conf.AutomaticEnv()
		sc.Conf.SetEnvPrefix(sc.EnvPrefix)
	}
	cobra.OnInitialize(func() {
		cfg := rootConf.GetString("config")
		if cfg == "" {
			return
		}
		for _, sc := range subcommands {
			sc.Conf.SetConfigFile(cfg)
			x.Check(sc.Conf.ReadInConfig())
		}
	})
}
