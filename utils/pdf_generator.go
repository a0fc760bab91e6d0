package utils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 in inches, with 10 mm margins on every side.
const (
	a4Width    = 8.27
	a4Height   = 11.69
	pageMargin = 0.3937
)

// Document is a rendered HTML body plus the header and footer printed on every page.
type Document struct {
	Body   string
	Header string
	Footer string
}

// ChromePDF prints documents with headless Chrome.
type ChromePDF struct {
	ExecPath string
	Timeout  time.Duration
}

func NewChromePDF(execPath string, timeout time.Duration) *ChromePDF {
	return &ChromePDF{ExecPath: execPath, Timeout: timeout}
}

// Render writes the body to a temp file, opens it in a fresh browser and prints it.
func (c *ChromePDF) Render(ctx context.Context, doc Document) ([]byte, error) {
	tmp, err := os.CreateTemp("", "upbilling_*.html")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(doc.Body); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdfBuf []byte
	err = chromedp.Run(browserCtx,
		emulation.SetEmulatedMedia().WithMedia("print"),
		chromedp.Navigate("file://"+tmp.Name()),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = printParams(doc).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return pdfBuf, nil
}

func printParams(doc Document) *page.PrintToPDFParams {
	p := page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(a4Width).
		WithPaperHeight(a4Height).
		WithMarginTop(pageMargin).
		WithMarginBottom(pageMargin).
		WithMarginLeft(pageMargin).
		WithMarginRight(pageMargin)
	if doc.Header != "" || doc.Footer != "" {
		p = p.WithDisplayHeaderFooter(true).
			WithHeaderTemplate(orEmptySpan(doc.Header)).
			WithFooterTemplate(orEmptySpan(doc.Footer))
	}
	return p
}

// Chrome prints its default header or footer when a template is empty.
func orEmptySpan(s string) string {
	if s == "" {
		return "<span></span>"
	}
	return s
}
