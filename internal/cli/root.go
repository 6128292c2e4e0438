package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goNFTMarket/internal/config"
)

var (
	// Global flags
	configFile string
	envFile    string
	debug      bool
	verbose    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nftmarketd",
	Short: "goNFTMarket - NFT marketplace node",
	Long: `goNFTMarket runs an NFT marketplace contract on a local execution host:
signed direct swaps, English auctions with royalties and an administered fee,
backed by persistent state and a queryable receipt history.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file exported before reading NFTMARKET_ variables")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}

// loadConfig reads the configuration and applies the logging flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(config.ConfigPaths{Main: configFile, Env: envFile})
	if err != nil {
		return nil, err
	}
	if debug || verbose {
		cfg.Log.Level = "debug"
	}
	if quiet {
		cfg.Log.Console = false
	}
	return cfg, nil
}
