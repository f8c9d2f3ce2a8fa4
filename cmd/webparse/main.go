package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/use-agent/webparse/config"
)

// Exit codes. 130 matches the shell convention for SIGINT.
const (
	exitOK        = 0
	exitError     = 1
	exitInterrupt = 130
)

var cfg = config.Load()

var (
	flagOutput            string
	flagWaitSelector      string
	flagTimeout           int
	flagVisible           bool
	flagIgnoreHTTPSErrors bool
	flagWaitTime          int
	flagLogLevel          string
	flagLogFile           string
	flagLogFormat         string
	flagEngine            string
	flagStealth           bool
	flagProxy             string
	flagUserAgent         string
	flagHeaders           []string
	flagCookies           []string
	flagCSSSelector       string
	flagMarkdown          bool
	flagBlock             []string
	flagCompact           bool
)

var rootCmd = &cobra.Command{
	Use:   "webparse <url>",
	Short: "Fetch a web page through a headless browser and emit structured JSON",
	Long: `webparse loads a single web page in a real Chromium browser, waits for it
to settle, and prints one JSON document describing the page: final URL,
title, HTTP status code, rendered HTML, visible text, links, images, forms
and metadata.

Logs go to stderr; stdout carries only the JSON document.`,
	Example: `  webparse https://example.com
  webparse https://example.com -o result.json
  webparse https://example.com --wait-selector "#content"
  webparse https://example.com --visible --timeout 120
  webparse https://example.com --engine http`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		os.Exit(run(args[0]))
		return nil
	},
}

func init() {
	f := rootCmd.Flags()

	f.StringVarP(&flagOutput, "output", "o", "", "write the JSON result to a file instead of stdout")
	f.StringVar(&flagWaitSelector, "wait-selector", "", "CSS selector to wait for after the page loads")
	f.IntVar(&flagTimeout, "timeout", int(cfg.Fetch.Timeout.Seconds()), "deadline for the whole operation in seconds")
	f.BoolVar(&flagVisible, "visible", !cfg.Browser.Headless, "show the browser window (for debugging)")
	f.BoolVar(&flagIgnoreHTTPSErrors, "ignore-https-errors", false, "tolerate invalid TLS certificates")
	f.IntVar(&flagWaitTime, "wait-time", int(cfg.Fetch.WaitTime.Seconds()), "extra settle time after load in seconds")
	f.StringVar(&flagLogLevel, "log-level", cfg.Log.Level, "log level: debug, info, warn or error")
	f.StringVar(&flagLogFile, "log-file", cfg.Log.File, "also write logs to this file")
	f.StringVar(&flagLogFormat, "log-format", cfg.Log.Format, "log format: text or json")
	f.StringVar(&flagEngine, "engine", cfg.Fetch.Engine, "fetch engine: browser, http or auto")
	f.BoolVar(&flagStealth, "stealth", false, "inject anti-bot-detection JS before navigation")
	f.StringVar(&flagProxy, "proxy", cfg.Fetch.Proxy, "proxy URL (http, https or socks5)")
	f.StringVar(&flagUserAgent, "user-agent", cfg.Fetch.UserAgent, "override the browser user agent")
	f.StringArrayVar(&flagHeaders, "header", nil, "extra request header as Key:Value (repeatable)")
	f.StringArrayVar(&flagCookies, "cookie", nil, "cookie as name=value (repeatable)")
	f.StringVar(&flagCSSSelector, "css-selector", "", "restrict output and extraction to elements matching this selector")
	f.BoolVar(&flagMarkdown, "markdown", false, "include a markdown rendering of the main content")
	f.StringSliceVar(&flagBlock, "block", cfg.Browser.BlockedResourceTypes, "resource types to block: Image, Stylesheet, Font, Media, Script")
	f.BoolVar(&flagCompact, "compact", false, "emit compact JSON instead of indented")
}

// initLogger configures slog to write to stderr (never stdout, which is
// reserved for the JSON result) and optionally to a log file.
func initLogger() error {
	var level slog.Level
	switch flagLogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if flagLogFile != "" {
		if dir := filepath.Dir(flagLogFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create log directory: %w", err)
			}
		}
		file, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, file)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if flagLogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}
}
