package scraper

import (
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/webparse/config"
	"github.com/use-agent/webparse/models"
)

// Scraper owns the browser process for the lifetime of one invocation.
type Scraper struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	browserCfg config.BrowserConfig
	fetchCfg   config.FetchConfig
}

// NewScraper launches a Chromium instance and connects to it.
// Call Close to kill the process when done.
func NewScraper(browserCfg config.BrowserConfig, fetchCfg config.FetchConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if fetchCfg.Proxy != "" {
		l = l.Proxy(fetchCfg.Proxy)
	}
	if browserCfg.IgnoreHTTPSErrors {
		l.Set(flags.Flag("ignore-certificate-errors"))
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewParseError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewParseError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	if browserCfg.IgnoreHTTPSErrors {
		if err := browser.IgnoreCertErrors(true); err != nil {
			slog.Warn("failed to disable certificate checks via CDP, relying on launch flag",
				"error", err,
			)
		}
	}

	slog.Info("browser ready",
		"headless", browserCfg.Headless,
		"ignoreHTTPSErrors", browserCfg.IgnoreHTTPSErrors,
		"stealth", browserCfg.Stealth,
	)

	return &Scraper{
		browser:    browser,
		launcher:   l,
		browserCfg: browserCfg,
		fetchCfg:   fetchCfg,
	}, nil
}

// Close kills the browser process. Call this before exit to prevent
// zombie Chrome processes.
func (s *Scraper) Close() {
	slog.Debug("closing browser")
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	s.launcher.Kill()
	slog.Debug("browser closed")
}
