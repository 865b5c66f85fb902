package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/veerababu74/spunkads/internal/utils"
	"github.com/veerababu74/spunkads/pkg/revenue"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `                           _             _
  ___ _ __  _   _ _ __ | | ____ _  __| |___
 / __| '_ \| | | | '_ \| |/ / _' |/ _' / __|
 \__ \ |_) | |_| | | | |   < (_| | (_| \__ \
 |___/ .__/ \__,_|_| |_|_|\_\__,_|\__,_|___/
     |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spunkads",
	Short: "Broadcast extractor and revenue reconciler for ManyChat pages.",
	Long: LOGO + `spunkads pulls broadcast history for your configured ManyChat pages
through a capture bridge, reconciles it against the revenue feed, and writes
merged reports to CSV, SQLite and Google Sheets.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.spunkads.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Credentials can also live in a local .env file.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".spunkads")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.spunkads.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("bridge.url", "http://127.0.0.1:9222")
	viper.SetDefault("revenue.url", revenue.DefaultFeedURL)
	viper.SetDefault("revenue.user_id", "")
	viper.SetDefault("revenue.api_key", "")
	viper.SetDefault("window.mode", "yesterday")
	viper.SetDefault("output.csv_dir", "csv_output")
	viper.SetDefault("output.db_path", "spunkads.sqlite")
	viper.SetDefault("output.webhook_url", "")
	viper.SetDefault("output.detailed_sheet", "ManyChat Data")
	viper.SetDefault("output.summary_sheet", "Summary")
	viper.SetDefault("output.include_zero_revenue", true)

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
