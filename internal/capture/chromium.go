// Package capture renders the widget view to a PNG via headless
// Chromium, for hosts that display the widget as an image (status
// bars, e-ink frames).
package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters for the widget layout.
const (
	DefaultWidth      = 400
	DefaultHeight     = 200
	DefaultTimeoutSec = 30
)

// Options defines parameters for a widget screenshot capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/widget".
	URL string

	// OutputPath is where the PNG will be written, e.g.
	// "/var/lib/leavenow/preview.png".
	OutputPath string

	// Width / Height are viewport dimensions in pixels; zero means
	// the defaults.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// WidgetPNG navigates headless Chromium to opts.URL, waits for the
// widget to signal readiness via [data-ready="true"], and writes a PNG
// screenshot to opts.OutputPath.
func WidgetPNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeoutSec * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay for final paints.
		chromedp.Sleep(200 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	return nil
}
