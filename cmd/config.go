package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/defstat/internal/chart"
	"github.com/KaramelBytes/defstat/internal/compare"
	cfgpkg "github.com/KaramelBytes/defstat/internal/config"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set defstat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "data_dir: %s\n", cfg.DataDir)
		if cfg.SourceURL != "" {
			fmt.Fprintf(out, "source_url: %s\n", cfg.SourceURL)
		}
		fmt.Fprintf(out, "file_pattern: %s\n", cfg.FilePattern)
		fmt.Fprintf(out, "lookback_years: %d\n", cfg.LookbackYears)
		fmt.Fprintf(out, "ethnicity_columns: %s\n", strings.Join(cfg.EthnicityColumns, ", "))
		fmt.Fprintf(out, "layout: %s\n", cfg.Layout)
		fmt.Fprintf(out, "chart_width: %d\n", cfg.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", cfg.ChartHeight)
		fmt.Fprintf(out, "chart_format: %s\n", cfg.ChartFormat)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "http_requests_per_sec: %.2f\n", cfg.HTTPRequestsPerSec)
		fmt.Fprintf(out, "retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		fmt.Fprintf(out, "server_port: %d\n", cfg.ServerPort)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setConfigValue(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func(lo int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < lo {
			return 0, eris.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "data_dir":
		c.DataDir = val
	case "source_url":
		c.SourceURL = val
	case "file_pattern":
		if !strings.Contains(val, "%d") {
			return eris.Errorf("file_pattern must contain %%d for the year: %s", val)
		}
		c.FilePattern = val
	case "lookback_years":
		c.LookbackYears, err = atoi(0)
	case "ethnicity_columns":
		var cols []string
		for _, p := range strings.Split(val, ",") {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				cols = append(cols, p)
			}
		}
		if len(cols) == 0 {
			return eris.New("ethnicity_columns needs at least one column name")
		}
		c.EthnicityColumns = cols
	case "layout":
		l, perr := compare.ParseLayout(val)
		if perr != nil {
			return perr
		}
		c.Layout = l.String()
	case "chart_width":
		c.ChartWidth, err = atoi(1)
	case "chart_height":
		c.ChartHeight, err = atoi(1)
	case "chart_format":
		c.ChartFormat = string(chart.ParseFormat(val))
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(1)
	case "http_requests_per_sec":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f < 0 {
			return eris.Errorf("invalid float for http_requests_per_sec: %v", val)
		}
		c.HTTPRequestsPerSec = f
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi(0)
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi(0)
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi(0)
	case "server_port":
		c.ServerPort, err = atoi(1)
	case "log_level":
		c.LogLevel = val
	case "log_format":
		if val != "json" && val != "console" {
			return eris.Errorf("invalid log_format: %s (use json or console)", val)
		}
		c.LogFormat = val
	default:
		return eris.Errorf("unknown key: %s", key)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
