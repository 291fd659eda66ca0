package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Browser turns chart HTML into bytes of the requested format.
type Browser interface {
	Capture(ctx context.Context, html []byte, f Format, width, height int) ([]byte, error)
}

// ChromeBrowser drives a fresh headless Chrome tab per capture.
type ChromeBrowser struct {
	// RenderWait gives chart animations time to settle before capture.
	RenderWait time.Duration
}

const pxPerInch = 96.0

func (b ChromeBrowser) Capture(ctx context.Context, html []byte, f Format, width, height int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tabCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if b.RenderWait > 0 {
		tasks = append(tasks, chromedp.Sleep(b.RenderWait))
	}

	var out []byte
	switch f {
	case FormatPNG:
		tasks = append(tasks, chromedp.FullScreenshot(&out, 100))
	case FormatPDF:
		landscape := width >= height
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(landscape).
				WithPaperWidth(float64(width) / pxPerInch).
				WithPaperHeight(float64(height) / pxPerInch).
				Do(ctx)
			if err != nil {
				return err
			}
			out = buf
			return nil
		}))
	case FormatSVG:
		var svg string
		tasks = append(tasks,
			chromedp.WaitVisible("svg", chromedp.ByQuery),
			chromedp.OuterHTML("svg", &svg, chromedp.ByQuery),
			chromedp.ActionFunc(func(context.Context) error {
				out = []byte(svg)
				return nil
			}),
		)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if err := chromedp.Run(tabCtx, tasks...); err != nil {
		return nil, fmt.Errorf("chrome capture %s: %w", f, err)
	}
	return out, nil
}

var (
	headlessOnce sync.Once
	headlessErr  error
)

// EnsureHeadless probes for a usable Chrome once per process.
func EnsureHeadless(ctx context.Context) error {
	headlessOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		probe, cancel := chromedp.NewContext(ctx)
		defer cancel()
		headlessErr = chromedp.Run(probe)
	})
	return headlessErr
}
