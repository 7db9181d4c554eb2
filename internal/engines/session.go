package engines

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

const minScreenshotInterval = 500 * time.Millisecond

// session owns one browser context from allocation to teardown
type session struct {
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
	logger          arbor.ILogger
}

// newSession starts a browser instance and verifies it responds
func newSession(ctx context.Context, config Config, headless bool, logger arbor.ILogger) (*session, error) {
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "Probo/1.0"
	}

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", config.DisableGPU),
		chromedp.Flag("no-sandbox", config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// Startup test and fixed viewport so screenshots are a consistent size
	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx,
		chromedp.Navigate("about:blank"),
		emulation.SetDeviceMetricsOverride(1280, 900, 1.0, false),
	); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	return &session{
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		allocatorCancel: allocatorCancel,
		logger:          logger,
	}, nil
}

// Close tears the browser down
func (s *session) Close() {
	s.browserCancel()
	s.allocatorCancel()
}

// navigate loads the target page and waits for the body to be ready
func (s *session) navigate(url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()

	if err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// pageTitle returns the current document title
func (s *session) pageTitle() (string, error) {
	var title string
	if err := chromedp.Run(s.browserCtx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// outerHTML returns the rendered document markup
func (s *session) outerHTML() (string, error) {
	var html string
	if err := chromedp.Run(s.browserCtx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// screenshot captures the current viewport as PNG
func (s *session) screenshot() ([]byte, error) {
	var buf []byte
	captureCtx, cancel := context.WithTimeout(s.browserCtx, 10*time.Second)
	defer cancel()
	err := chromedp.Run(captureCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// startMonitor captures frames on an interval until the returned stop
// function is called or the session's browser context ends. The monitor is
// scoped to the session so it cannot outlive the browser.
func (s *session) startMonitor(interval time.Duration, capture func(png []byte)) (stop func()) {
	if interval < minScreenshotInterval {
		interval = minScreenshotInterval
	}

	monitorCtx, cancel := context.WithCancel(s.browserCtx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				png, err := s.screenshot()
				if err != nil {
					s.logger.Debug().Err(err).Msg("Monitor screenshot capture failed")
					continue
				}
				capture(png)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// fill writes mapped values into the page's form fields. A per-field failure
// or an overall timeout degrades to partial data rather than failing the run.
// Returns the fields that were actually written.
func (s *session) fill(mapping map[string]string, timeout time.Duration, progress func(pct int, step string)) map[string]string {
	fillCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()

	filled := make(map[string]string, len(mapping))
	milestones := []int{55, 60, 65, 70}
	i := 0
	for field, value := range mapping {
		if value == "" {
			continue
		}

		selector := fmt.Sprintf(`[name=%q], #%s`, field, field)
		err := chromedp.Run(fillCtx,
			chromedp.SetValue(selector, value, chromedp.ByQuery),
		)
		if err != nil {
			if fillCtx.Err() != nil {
				s.logger.Warn().
					Str("field", field).
					Int("filled", len(filled)).
					Msg("Fill timed out, proceeding with partial data")
				return filled
			}
			s.logger.Warn().Err(err).Str("field", field).Msg("Failed to fill field, skipping")
			continue
		}
		filled[field] = value

		if progress != nil && i < len(milestones) {
			progress(milestones[i], fmt.Sprintf("Filled field %q", field))
		}
		i++
	}
	return filled
}

// uploadFiles attaches stored uploads to the page's file input, if present.
// Missing files and timeouts are logged and skipped.
func (s *session) uploadFiles(uploadsDir string, names []string, timeout time.Duration) {
	if len(names) == 0 {
		return
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(uploadsDir, filepath.Base(name))
		if _, err := os.Stat(path); err != nil {
			s.logger.Warn().Str("file", name).Msg("Uploaded file not found on disk, skipping")
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return
	}

	uploadCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()

	if err := chromedp.Run(uploadCtx,
		chromedp.SetUploadFiles(`input[type="file"]`, paths, chromedp.ByQuery),
	); err != nil {
		s.logger.Warn().Err(err).Int("files", len(paths)).Msg("File attachment failed, proceeding without uploads")
	}
}

// submit clicks the form's submit control
func (s *session) submit(timeout time.Duration) error {
	submitCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()

	selectors := []string{
		`button[type="submit"]`,
		`input[type="submit"]`,
		`form button`,
	}

	var lastErr error
	for _, selector := range selectors {
		if err := chromedp.Run(submitCtx,
			chromedp.Click(selector, chromedp.ByQuery),
		); err != nil {
			lastErr = err
			if submitCtx.Err() != nil {
				break
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("failed to submit form: %w", lastErr)
}
