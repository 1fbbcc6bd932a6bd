package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/redditpersona/internal/logging"
)

// PDFExporter prints HTML reports to PDF with headless Chrome
type PDFExporter struct {
	headless bool
	timeout  time.Duration
	log      *logrus.Entry
}

// NewPDFExporter creates a new exporter
func NewPDFExporter(headless bool) *PDFExporter {
	return &PDFExporter{
		headless: headless,
		timeout:  60 * time.Second,
		log:      logging.For("browser.pdf"),
	}
}

// PDFPath returns the PDF path that sits next to an HTML report.
func PDFPath(htmlPath string) string {
	return strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".pdf"
}

// Export loads htmlPath in Chrome and writes the printed page to pdfPath.
func (e *PDFExporter) Export(ctx context.Context, htmlPath, pdfPath string) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("resolve report path: %w", err)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, Options(e.headless)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, e.timeout)
	defer cancelTimeout()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+filepath.ToSlash(abs)),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("print to pdf: %w", err)
	}

	if err := os.WriteFile(pdfPath, pdf, 0644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"html":  abs,
		"pdf":   pdfPath,
		"bytes": len(pdf),
	}).Info("Exported PDF")
	return nil
}

// OpenFile opens path with the system's default handler.
func OpenFile(path string) error {
	return browser.OpenFile(path)
}
