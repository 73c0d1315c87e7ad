package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tradyfit/backend/internal/config"
	"tradyfit/backend/internal/logger"
)

// globalFlags 覆盖 TRADYFIT_PANEL_* 配置
type globalFlags struct {
	baseURL   string
	token     string
	noSummary bool
}

func main() {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "msgpanel",
		Short: "Message panel client for the tradyfit notifications endpoint",
		Long: `msgpanel asks POST /notifications for one category of messages
(unread, inbox/received or sent) and renders the message list together with
the title and the unread/sent/received counters.

Configuration comes from TRADYFIT_PANEL_* environment variables or .env;
flags override it.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "server base URL (default from TRADYFIT_PANEL_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flags.token, "token", "", "access token (default from TRADYFIT_PANEL_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&flags.noSummary, "no-summary", false, "only rebuild the message list, leave title and counters alone")

	rootCmd.AddCommand(refreshCmd(flags))
	rootCmd.AddCommand(watchCmd(flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed).Sprint("ERROR"), err)
		os.Exit(1)
	}
}

// loadConfig 读取客户端配置并应用命令行覆盖
func loadConfig(flags *globalFlags) (*config.PanelConfig, *config.Config, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, nil, err
	}
	panelCfg := cfg.Panel
	if flags.baseURL != "" {
		panelCfg.BaseURL = flags.baseURL
	}
	if flags.token != "" {
		panelCfg.Token = flags.token
	}
	if flags.noSummary {
		panelCfg.UpdateSummaryFields = false
	}
	return &panelCfg, cfg, nil
}

// newLogger 终端界面模式下只在配置了日志文件时输出日志
func newLogger(cfg *config.Config, interactive bool) *zap.Logger {
	if interactive && cfg.Log.File == "" {
		return zap.NewNop()
	}
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
	})
	if err != nil {
		return zap.NewNop()
	}
	return log
}
