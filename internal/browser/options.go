// Package browser drives headless Chrome for exporting and opening reports.
package browser

import "github.com/chromedp/chromedp"

// Options returns chromedp allocator options for rendering local report files.
// All browser instances should use this to ensure consistent configuration.
func Options(headless bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),

		// Portrait, roughly A4 at 150dpi
		chromedp.WindowSize(1240, 1754),

		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),

		// Reports are loaded via file://
		chromedp.Flag("allow-file-access-from-files", true),
	)

	if headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	return opts
}
