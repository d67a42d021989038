package renderer

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/rouhat/antimicrobial-resistance-analysis/utils"
)

// Rasterizer converts SVG charts to PNG in a headless Chrome session.
type Rasterizer struct {
	chromeBin string
	timeout   time.Duration
	retry     *utils.RetryConfig
	logger    *utils.Logger

	launch  launchFunc
	browser context.Context
	cancel  []context.CancelFunc
}

// RasterizerOptions configures browser discovery and retries.
type RasterizerOptions struct {
	ChromeBin  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// NewRasterizer creates a Rasterizer. The browser is not started until Start.
func NewRasterizer(opts RasterizerOptions, logger *utils.Logger) *Rasterizer {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Rasterizer{
		chromeBin: opts.ChromeBin,
		timeout:   opts.Timeout,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   opts.RetryDelay,
			Logger:      logger,
		},
		logger: logger,
		launch: launchChrome,
	}
}

// Start launches the browser. Call Close when done.
func (r *Rasterizer) Start(ctx context.Context) error {
	chromeBin := findChromeBinary(r.chromeBin)
	if chromeBin == "" {
		return fmt.Errorf("renderer: no Chrome/Chromium binary found (set CHROME_BIN)")
	}
	r.logger.Info("[renderer] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.ExecPath(chromeBin),
	)

	// A failed launch leaves its contexts cancelled, so every attempt
	// starts a fresh allocator and browser.
	err := r.retry.Do(ctx, "launch-browser", func() error {
		browser, cancel, err := r.launch(ctx, opts)
		if err != nil {
			return err
		}
		r.browser, r.cancel = browser, cancel
		return nil
	})
	if err != nil {
		return fmt.Errorf("renderer: start browser: %w", err)
	}
	return nil
}

// launchFunc starts a browser and returns its context with the cancel
// funcs that shut it down, innermost first.
type launchFunc func(ctx context.Context, opts []chromedp.ExecAllocatorOption) (context.Context, []context.CancelFunc, error)

func launchChrome(ctx context.Context, opts []chromedp.ExecAllocatorOption) (context.Context, []context.CancelFunc, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, nil, err
	}
	return browserCtx, []context.CancelFunc{cancelBrowser, cancelAlloc}, nil
}

// PNG screenshots the chart's root <svg> element.
func (r *Rasterizer) PNG(ctx context.Context, name string, svg []byte) ([]byte, error) {
	if r.browser == nil {
		return nil, fmt.Errorf("renderer: browser not started")
	}

	page := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
	var png []byte

	err := r.retry.Do(ctx, "rasterize-"+name, func() error {
		tabCtx, cancel := chromedp.NewContext(r.browser)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(page),
			chromedp.Screenshot("#chart", &png, chromedp.ByQuery),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: %s: %w", name, err)
	}
	return png, nil
}

// Close shuts the browser down.
func (r *Rasterizer) Close() {
	for _, cancel := range r.cancel {
		cancel()
	}
	r.cancel = nil
	r.browser = nil
}

// findChromeBinary locates Chrome/Chromium, preferring the configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
