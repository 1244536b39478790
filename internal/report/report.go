// Package report captures the state of a page when a scenario fails.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/blogadmin/internal/interfaces"
)

// Artifacts lists the files written for one capture. Empty paths were not written.
type Artifacts struct {
	Screenshot string
	HTML       string
	Markdown   string
}

// Writer saves failure artifacts under a results directory.
type Writer struct {
	dir    string
	logger arbor.ILogger
}

func NewWriter(dir string, logger arbor.ILogger) *Writer {
	return &Writer{
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the results directory.
func (w *Writer) Dir() string {
	return w.dir
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName turns a scenario or step name into a file-safe base name.
func FileName(name string) string {
	cleaned := strings.Trim(unsafeName.ReplaceAllString(name, "-"), "-.")
	if cleaned == "" {
		return "capture"
	}
	return cleaned
}

// Save writes <name>.png, <name>.html and <name>.md. Each artifact is
// attempted even if an earlier one failed; the returned error joins the failures.
func (w *Writer) Save(ctx context.Context, page interfaces.Page, name string) (*Artifacts, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory %s: %w", w.dir, err)
	}

	base := filepath.Join(w.dir, FileName(name))
	artifacts := &Artifacts{}
	var errs []error

	if shot, err := page.Screenshot(ctx); err != nil {
		errs = append(errs, err)
	} else if err := os.WriteFile(base+".png", shot, 0644); err != nil {
		errs = append(errs, fmt.Errorf("failed to write screenshot: %w", err))
	} else {
		artifacts.Screenshot = base + ".png"
	}

	html, err := page.HTML(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		if err := os.WriteFile(base+".html", []byte(html), 0644); err != nil {
			errs = append(errs, fmt.Errorf("failed to write page HTML: %w", err))
		} else {
			artifacts.HTML = base + ".html"
		}

		if err := os.WriteFile(base+".md", []byte(w.markdown(html)), 0644); err != nil {
			errs = append(errs, fmt.Errorf("failed to write page markdown: %w", err))
		} else {
			artifacts.Markdown = base + ".md"
		}
	}

	w.logger.Info().
		Str("screenshot", artifacts.Screenshot).
		Str("html", artifacts.HTML).
		Str("markdown", artifacts.Markdown).
		Msg("Failure artifacts saved")

	return artifacts, errors.Join(errs...)
}

// markdown converts the page to markdown, falling back to its plain text.
func (w *Writer) markdown(html string) string {
	if html == "" {
		return ""
	}
	converted, err := md.NewConverter("", true, nil).ConvertString(html)
	if err == nil && strings.TrimSpace(converted) != "" {
		return converted
	}
	if err != nil {
		w.logger.Warn().Err(err).Msg("HTML to markdown conversion failed, using page text")
	}

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(html))
	if docErr != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
