package export

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrEmptyChart        = errors.New("nothing to export")
	ErrBusy              = errors.New("export capacity exhausted, retry later")
	ErrDisabled          = errors.New("export disabled")
	// ErrBrowserUnavailable is returned while repeated capture failures keep
	// the browser breaker open.
	ErrBrowserUnavailable = errors.New("headless browser unavailable")
)

// Format is an output encoding for a rendered chart.
type Format string

const (
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatSVG  Format = "svg"
)

// ParseFormat accepts a format name or file extension, case-insensitively.
// Empty input means html.
func ParseFormat(raw string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "."))
	switch Format(name) {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatPNG, FormatPDF, FormatSVG:
		return Format(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "text/html; charset=utf-8"
	}
}

// NeedsBrowser reports whether producing f requires headless Chrome.
func (f Format) NeedsBrowser() bool {
	return f != FormatHTML
}

// Filename joins a base name with the format extension, e.g. bar_chart.svg.
func Filename(base string, f Format) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "chart"
	}
	return base + "." + string(f)
}
