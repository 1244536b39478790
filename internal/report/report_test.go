package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/blogadmin/internal/pagetest"
)

func TestSave(t *testing.T) {
	ctx := context.Background()
	page := pagetest.New().Register("http://blog.test/", `<html><body>
		<h1>Blog Dashboard</h1>
		<div class="e2e-test-toast-warning-message">Title exists already</div>
	</body></html>`)
	require.NoError(t, page.Navigate(ctx, "http://blog.test/"))

	dir := t.TempDir()
	w := NewWriter(dir, arbor.NewLogger())
	artifacts, err := w.Save(ctx, page, "publish flow / step 3")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "publish-flow-step-3.png"), artifacts.Screenshot)
	assert.FileExists(t, artifacts.Screenshot)
	assert.FileExists(t, artifacts.HTML)

	markdown, err := os.ReadFile(artifacts.Markdown)
	require.NoError(t, err)
	assert.Contains(t, string(markdown), "# Blog Dashboard")
	assert.Contains(t, string(markdown), "Title exists already")
}

type brokenScreenshotPage struct {
	*pagetest.Page
}

func (brokenScreenshotPage) Screenshot(context.Context) ([]byte, error) {
	return nil, errors.New("capture failed")
}

func TestSaveKeepsGoingAfterScreenshotFailure(t *testing.T) {
	ctx := context.Background()
	page := pagetest.New().Register("http://blog.test/", `<html><body><p>still here</p></body></html>`)
	require.NoError(t, page.Navigate(ctx, "http://blog.test/"))

	w := NewWriter(t.TempDir(), arbor.NewLogger())
	artifacts, err := w.Save(ctx, brokenScreenshotPage{page}, "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture failed")
	assert.Empty(t, artifacts.Screenshot)
	assert.FileExists(t, artifacts.HTML)
	assert.FileExists(t, artifacts.Markdown)
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"simple":              "simple",
		"with spaces":         "with-spaces",
		"../escape":           "escape",
		"":                    "capture",
		"scenario_1.step-2":   "scenario_1.step-2",
		"tags: add & verify!": "tags-add-verify",
	}
	for input, want := range tests {
		assert.Equal(t, want, FileName(input), input)
	}
}
