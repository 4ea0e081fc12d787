package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thannaske/rgwreport/pkg/models"
	"github.com/thannaske/rgwreport/pkg/radosgw"
)

var (
	cfgFile string
	config  models.Config

	// flagCfg receives command-line values; changed flags override the
	// config file in initConfig.
	flagCfg models.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rgwreport",
	Short: "Daily bucket usage reports for Ceph RGW",
	Long: `A CLI tool that collects per-bucket usage statistics from a Ceph RGW
cluster, keeps a rolling 30-day history per bucket, renders usage trend
charts, and mails a daily HTML summary report. Observations are also
archived in a SQLite database for long-term queries.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rgwreport.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagCfg.Source, "source", "", `stats source: "cli" or "admin-api"`)
	rootCmd.PersistentFlags().StringVar(&flagCfg.AdminCommand, "admin-command", "", "radosgw-admin binary used by the cli source")
	rootCmd.PersistentFlags().StringVar(&flagCfg.S3Endpoint, "endpoint", "", "RGW endpoint URL (admin-api source)")
	rootCmd.PersistentFlags().StringVar(&flagCfg.S3AccessKey, "access-key", "", "RGW access key (admin-api source)")
	rootCmd.PersistentFlags().StringVar(&flagCfg.S3SecretKey, "secret-key", "", "RGW secret key (admin-api source)")
	rootCmd.PersistentFlags().StringVar(&flagCfg.S3Region, "region", "", "RGW region (admin-api source)")
	rootCmd.PersistentFlags().StringVar(&flagCfg.DataDir, "data-dir", "", "directory for ledger files and rendered charts")
	rootCmd.PersistentFlags().StringVar(&flagCfg.DBPath, "db", "", "SQLite archive path (empty string in config disables archiving)")
}

// initConfig loads the config file, then applies flag and environment
// overrides and fills in defaults. Mail settings come from the config
// file and environment only; credentials never appear on the command
// line.
func initConfig() {
	path := cfgFile
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".rgwreport.yaml")
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			fmt.Printf("Error parsing config file %s: %v\n", path, err)
			os.Exit(1)
		}
	} else if cfgFile != "" {
		// An explicitly named config file must exist.
		fmt.Printf("Error reading config file %s: %v\n", cfgFile, err)
		os.Exit(1)
	}

	applyFlagOverrides()
	applyEnvOverrides()
	applyDefaults()
}

func applyFlagOverrides() {
	f := rootCmd.PersistentFlags()
	overrides := map[string]*struct{ dst, src *string }{
		"source":        {&config.Source, &flagCfg.Source},
		"admin-command": {&config.AdminCommand, &flagCfg.AdminCommand},
		"endpoint":      {&config.S3Endpoint, &flagCfg.S3Endpoint},
		"access-key":    {&config.S3AccessKey, &flagCfg.S3AccessKey},
		"secret-key":    {&config.S3SecretKey, &flagCfg.S3SecretKey},
		"region":        {&config.S3Region, &flagCfg.S3Region},
		"data-dir":      {&config.DataDir, &flagCfg.DataDir},
		"db":            {&config.DBPath, &flagCfg.DBPath},
	}
	for name, o := range overrides {
		if f.Changed(name) {
			*o.dst = *o.src
		}
	}
}

// Environment variables override both the config file and flags.
func applyEnvOverrides() {
	envs := map[string]*string{
		"RGW_SOURCE":        &config.Source,
		"RGW_ADMIN_COMMAND": &config.AdminCommand,
		"RGW_S3_ENDPOINT":   &config.S3Endpoint,
		"RGW_S3_ACCESS_KEY": &config.S3AccessKey,
		"RGW_S3_SECRET_KEY": &config.S3SecretKey,
		"RGW_S3_REGION":     &config.S3Region,
		"RGW_DATA_DIR":      &config.DataDir,
		"RGW_DB_PATH":       &config.DBPath,
		"RGW_MAIL_USERNAME": &config.Mail.Username,
		"RGW_MAIL_PASSWORD": &config.Mail.Password,
	}
	for name, dst := range envs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

func applyDefaults() {
	if config.Source == "" {
		config.Source = "cli"
	}
	if config.AdminCommand == "" {
		config.AdminCommand = radosgw.DefaultAdminCommand
	}
	if config.S3Region == "" {
		config.S3Region = "default"
	}
	if config.DataDir == "" {
		config.DataDir = "."
	}
	if config.Mail.Port == 0 {
		config.Mail.Port = 587
	}
	if config.Mail.From == "" {
		config.Mail.From = config.Mail.Username
	}
	if config.Mail.Subject == "" {
		config.Mail.Subject = "[daily] bucket usage"
	}
}
