package cmd

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdcore "github.com/projecteru2/docup/cmd/core"
	cmdhistory "github.com/projecteru2/docup/cmd/history"
	cmdothers "github.com/projecteru2/docup/cmd/others"
	cmdupload "github.com/projecteru2/docup/cmd/upload"
	"github.com/projecteru2/docup/config"
	"github.com/projecteru2/docup/utils"
)

var (
	cfgFile string
	conf    *config.Config
)

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "docup",
		Short:         "docup - document upload client with scan and recognition progress",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(commandContext(cmd))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().String("endpoint", "", "service root URL (uploads go to {endpoint}/upload)")
	cmd.PersistentFlags().String("locale", "", "message language (en, de)")
	cmd.PersistentFlags().String("root-dir", "", "root data directory")
	cmd.PersistentFlags().Duration("timeout", 0, "upload timeout including server processing")

	_ = viper.BindPFlag("endpoint", cmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag("locale", cmd.PersistentFlags().Lookup("locale"))
	_ = viper.BindPFlag("root_dir", cmd.PersistentFlags().Lookup("root-dir"))
	_ = viper.BindPFlag("timeout", cmd.PersistentFlags().Lookup("timeout"))

	viper.SetEnvPrefix("DOCUP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	base := cmdcore.BaseHandler{ConfProvider: func() *config.Config { return conf }}

	for _, c := range cmdupload.Commands(cmdupload.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}
	for _, c := range cmdhistory.Commands(cmdhistory.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}
	for _, c := range cmdothers.Commands(cmdothers.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}

	return cmd
}()

func initConfig(ctx context.Context) error {
	conf = config.DefaultConfig()

	// Unset flags must not shadow the defaults below.
	viper.SetDefault("endpoint", conf.Endpoint)
	viper.SetDefault("locale", conf.Locale)
	viper.SetDefault("root_dir", conf.RootDir)
	viper.SetDefault("timeout", conf.Timeout)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	if err := viper.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if conf.PoolSize <= 0 {
		conf.PoolSize = runtime.NumCPU()
	}
	rootDir, err := utils.ExpandHome(conf.RootDir)
	if err != nil {
		return err
	}
	conf.RootDir = rootDir
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return log.SetupLog(ctx, &conf.Log, "")
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
