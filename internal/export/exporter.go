package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cellplot/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var log = logger.With("export")

// Artifact is one exported file.
type Artifact struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Format      Format    `json:"format"`
	ContentType string    `json:"contentType"`
	Bytes       []byte    `json:"-"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Options 控制导出行为。
type Options struct {
	Enabled       bool
	Timeout       time.Duration
	RatePerMinute int
	Burst         int

	// FailureThreshold consecutive capture failures open the browser
	// breaker for BreakerCooldown.
	FailureThreshold int
	BreakerCooldown  time.Duration
}

// Exporter renders chart HTML into downloadable artifacts. Browser-backed
// formats are throttled; html passes straight through.
type Exporter struct {
	opts    Options
	browser Browser
	limiter *rate.Limiter
	breaker *browserBreaker
}

func New(opts Options, browser Browser) *Exporter {
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 30
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if browser == nil {
		browser = ChromeBrowser{}
	}
	return &Exporter{
		opts:    opts,
		browser: browser,
		limiter: rate.NewLimiter(rate.Limit(float64(opts.RatePerMinute)/60.0), opts.Burst),
		breaker: newBrowserBreaker(opts.FailureThreshold, opts.BreakerCooldown),
	}
}

// Export produces a single artifact named after base.
func (e *Exporter) Export(ctx context.Context, base string, html []byte, f Format, width, height int) (Artifact, error) {
	if len(html) == 0 {
		return Artifact{}, ErrEmptyChart
	}
	var (
		out []byte
		err error
	)
	if f.NeedsBrowser() {
		if !e.opts.Enabled {
			return Artifact{}, ErrDisabled
		}
		if _, perr := ParseFormat(string(f)); perr != nil {
			return Artifact{}, perr
		}
		if !e.limiter.Allow() {
			return Artifact{}, ErrBusy
		}
		if !e.breaker.allow() {
			return Artifact{}, ErrBrowserUnavailable
		}
		out, err = e.capture(ctx, html, f, width, height)
		if err != nil {
			return Artifact{}, err
		}
	} else {
		out = html
	}
	art := Artifact{
		ID:          uuid.NewString(),
		Filename:    Filename(base, f),
		Format:      f,
		ContentType: f.ContentType(),
		Bytes:       out,
		Size:        len(out),
		CreatedAt:   time.Now().UTC(),
	}
	log.Infof("exported %s (%d bytes)", art.Filename, art.Size)
	return art, nil
}

func (e *Exporter) capture(ctx context.Context, html []byte, f Format, width, height int) ([]byte, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := e.browser.Capture(ctx, html, f, width, height)
	if err == nil && len(out) == 0 {
		err = fmt.Errorf("capture %s returned no data", f)
	}
	if err != nil {
		// a caller hanging up says nothing about the browser
		if errors.Is(err, context.Canceled) {
			e.breaker.abandon()
		} else {
			e.breaker.failure()
		}
		log.Warnf("capture %s failed after %s: %v", f, time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	e.breaker.success()
	return out, nil
}
