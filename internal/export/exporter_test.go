package export

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	calls atomic.Int32
	err   error
}

func (f *fakeBrowser) Capture(_ context.Context, html []byte, format Format, w, h int) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte(string(format)+":"), html...), nil
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatHTML, "PNG": FormatPNG, ".pdf": FormatPDF, " svg ": FormatSVG, "html": FormatHTML}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "bar_chart.svg", Filename("bar_chart", FormatSVG))
	assert.Equal(t, "boxplot.pdf", Filename("boxplot", FormatPDF))
	assert.Equal(t, "chart.png", Filename(" ", FormatPNG))
}

func TestExport_HTMLPassthrough(t *testing.T) {
	browser := &fakeBrowser{}
	exp := New(Options{Enabled: false}, browser)
	art, err := exp.Export(context.Background(), "bar_chart", []byte("<html/>"), FormatHTML, 600, 400)
	require.NoError(t, err)
	assert.Equal(t, "bar_chart.html", art.Filename)
	assert.Equal(t, []byte("<html/>"), art.Bytes)
	assert.NotEmpty(t, art.ID)
	assert.Zero(t, browser.calls.Load())
}

func TestExport_Errors(t *testing.T) {
	exp := New(Options{Enabled: true, Burst: 1}, &fakeBrowser{})
	_, err := exp.Export(context.Background(), "x", nil, FormatPNG, 1, 1)
	assert.ErrorIs(t, err, ErrEmptyChart)

	_, err = exp.Export(context.Background(), "x", []byte("a"), Format("gif"), 1, 1)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	disabled := New(Options{Enabled: false}, &fakeBrowser{})
	_, err = disabled.Export(context.Background(), "x", []byte("a"), FormatPNG, 1, 1)
	assert.ErrorIs(t, err, ErrDisabled)

	failing := New(Options{Enabled: true}, &fakeBrowser{err: errors.New("boom")})
	_, err = failing.Export(context.Background(), "x", []byte("a"), FormatPDF, 1, 1)
	assert.EqualError(t, err, "boom")
}

func TestExport_RateLimited(t *testing.T) {
	browser := &fakeBrowser{}
	exp := New(Options{Enabled: true, RatePerMinute: 1, Burst: 2}, browser)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := exp.Export(ctx, "c", []byte("x"), FormatPNG, 10, 10)
		require.NoError(t, err)
	}
	_, err := exp.Export(ctx, "c", []byte("x"), FormatPNG, 10, 10)
	assert.ErrorIs(t, err, ErrBusy)
	assert.EqualValues(t, 2, browser.calls.Load())

	// html is never throttled
	_, err = exp.Export(ctx, "c", []byte("x"), FormatHTML, 10, 10)
	assert.NoError(t, err)
}
