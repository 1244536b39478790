package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/blogadmin/internal/actions"
	"github.com/ternarybob/blogadmin/internal/common"
	"github.com/ternarybob/blogadmin/internal/pagetest"
	"github.com/ternarybob/blogadmin/internal/report"
)

const (
	dashboardURL = "http://blog.test/blog-dashboard"
	adminURL     = "http://blog.test/blog-admin"
)

const publishScenario = `
name: publish and delete
tags: [publish, smoke]
steps:
  - action: navigate_to_blog_dashboard_page
  - action: publish_new_blog_post_with_title
    args:
      title: release notes
  - action: expect_published_blog_post_with_title_to_be_present
    args:
      title: release notes
  - action: delete_published_blog_post_with_title
    args:
      title: release notes
  - action: expect_number_of_blog_posts_to_be
    args:
      count: 0
`

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(publishScenario))
	require.NoError(t, err)

	assert.Equal(t, "publish and delete", sc.Name)
	assert.True(t, sc.HasTag("SMOKE"))
	require.Len(t, sc.Steps, 5)
	assert.Equal(t, "release notes", sc.Steps[1].Args.Title)
	require.NotNil(t, sc.Steps[4].Args.Count)
	assert.Equal(t, 0, *sc.Steps[4].Args.Count)
}

func TestParseNumericLimit(t *testing.T) {
	sc, err := Parse([]byte(`
name: limit
steps:
  - action: set_maximum_tag_limit_to
    args: {limit: 5}
`))
	require.NoError(t, err)
	assert.Equal(t, "5", sc.Steps[0].Args.Limit)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"no name":        "steps:\n  - action: navigate_to_blog_dashboard_page\n",
		"no steps":       "name: empty\n",
		"unknown action": "name: x\nsteps:\n  - action: fly_to_the_moon\n",
		"missing title":  "name: x\nsteps:\n  - action: create_draft_blog_post_with_title\n",
		"missing role":   "name: x\nsteps:\n  - action: assign_user_to_role_from_blog_admin_page\n    args: {username: guest}\n",
		"missing count":  "name: x\nsteps:\n  - action: expect_number_of_blog_posts_to_be\n",
		"bad yaml":       "name: [unclosed\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestActionsCoverEveryOperation(t *testing.T) {
	assert.Len(t, Actions(), 24)
	for _, name := range Actions() {
		assert.NotNil(t, steps[name].run, name)
	}
}

func TestLoadPathsAndFilter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(publishScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yml"), []byte(
		"name: tags\ntags: [admin]\nsteps:\n  - action: navigate_to_blog_admin_page\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	scenarios, err := LoadPaths(arbor.NewLogger(), dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "tags", scenarios[0].Name)
	assert.Equal(t, filepath.Join(dir, "b.yaml"), scenarios[1].Path)

	assert.Len(t, Filter(scenarios, nil), 2)
	kept := Filter(scenarios, []string{"publish"})
	require.Len(t, kept, 1)
	assert.Equal(t, "publish and delete", kept[0].Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yaml"), []byte("name: broken\n"), 0644))
	_, err = LoadPaths(arbor.NewLogger(), dir)
	assert.Error(t, err)
}

func newRunner(t *testing.T) (*Runner, *pagetest.BlogApp, string) {
	t.Helper()
	config := common.NewDefaultConfig()
	config.URLs.BlogDashboard = dashboardURL
	config.URLs.BlogAdmin = adminURL
	config.Timing.TransitionDelay = "0s"
	config.Timing.ShortDelay = "0s"

	page := pagetest.New()
	app := pagetest.NewBlogApp(page, dashboardURL, adminURL)
	logger := arbor.NewLogger()
	dir := t.TempDir()
	return NewRunner(actions.New(page, config, logger), report.NewWriter(dir, logger), logger), app, dir
}

func TestRunPasses(t *testing.T) {
	runner, app, dir := newRunner(t)
	sc, err := Parse([]byte(publishScenario))
	require.NoError(t, err)

	result := runner.Run(context.Background(), sc)
	require.NoError(t, result.Err)
	assert.True(t, result.Passed())
	assert.Len(t, result.Steps, 5)
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, app.Published)
	assert.Nil(t, result.Artifacts)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no artifacts for a passing run")
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	runner, app, _ := newRunner(t)
	app.Drafts = []string{"only"}
	sc, err := Parse([]byte(`
name: wrong count
steps:
  - action: navigate_to_blog_dashboard_page
  - action: expect_number_of_blog_posts_to_be
    args: {count: 3}
  - action: delete_draft_blog_post_with_title
    args: {title: only}
`))
	require.NoError(t, err)

	result := runner.Run(context.Background(), sc)
	require.Error(t, result.Err)

	var stepErr *StepError
	require.ErrorAs(t, result.Err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, "expect_number_of_blog_posts_to_be", stepErr.Action)
	assert.True(t, actions.IsAssertion(result.Err))
	assert.Len(t, result.Steps, 2)
	assert.Equal(t, []string{"only"}, app.Drafts, "later steps must not run")

	require.NotNil(t, result.Artifacts)
	assert.FileExists(t, result.Artifacts.HTML)
	assert.FileExists(t, result.Artifacts.Markdown)
	assert.FileExists(t, result.Artifacts.Screenshot)
}

func TestRunRejectsUnvalidatedScenario(t *testing.T) {
	tests := map[string]Step{
		"missing count":  {Action: "expect_number_of_blog_posts_to_be"},
		"unknown action": {Action: "fly_to_the_moon"},
	}
	for name, step := range tests {
		t.Run(name, func(t *testing.T) {
			runner, _, _ := newRunner(t)
			sc := &Scenario{Name: "built in code", Steps: []Step{step}}

			var result *Result
			require.NotPanics(t, func() { result = runner.Run(context.Background(), sc) })
			require.Error(t, result.Err)
			assert.False(t, result.Passed())
			assert.Empty(t, result.Steps)
			assert.Nil(t, result.Artifacts)
		})
	}
}

func TestCountStepRequiresCount(t *testing.T) {
	runner, _, _ := newRunner(t)
	err := steps["expect_number_of_blog_posts_to_be"].run(context.Background(), runner.blog, Args{})
	assert.EqualError(t, err, "count is required")
}

func TestRunAllJoinsFailures(t *testing.T) {
	runner, _, _ := newRunner(t)
	pass, err := Parse([]byte("name: pass\nsteps:\n  - action: navigate_to_blog_admin_page\n"))
	require.NoError(t, err)
	fail, err := Parse([]byte("name: fail\nsteps:\n  - action: navigate_to_blog_admin_page\n" +
		"  - action: expect_tag_to_exist_in_blog_tags\n    args: {tag: missing}\n"))
	require.NoError(t, err)

	results, err := runner.RunAll(context.Background(), []*Scenario{fail, pass})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario "fail"`)
	require.Len(t, results, 2)
	assert.False(t, results[0].Passed())
	assert.True(t, results[1].Passed())
}

func TestSampleScenariosRunAgainstSimulatedApp(t *testing.T) {
	scenarios, err := LoadPaths(arbor.NewLogger(), filepath.Join("..", "..", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	runner, app, _ := newRunner(t)
	results, err := runner.RunAll(context.Background(), scenarios)
	require.NoError(t, err)
	for _, result := range results {
		assert.True(t, result.Passed(), result.Scenario)
	}
	assert.Empty(t, app.Published)
	assert.Contains(t, app.Tags, "Test_Tag")
	assert.Equal(t, "5", app.TagLimit)
}
