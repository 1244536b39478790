package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/blogadmin/internal/common"
	"github.com/ternarybob/blogadmin/internal/interfaces"
	"github.com/ternarybob/blogadmin/internal/pagetest"
)

const (
	dashboardURL = "http://blog.test/blog-dashboard"
	adminURL     = "http://blog.test/blog-admin"
)

func testConfig() *common.Config {
	config := common.NewDefaultConfig()
	config.URLs.BlogDashboard = dashboardURL
	config.URLs.BlogAdmin = adminURL
	config.Timing.TransitionDelay = "0s"
	config.Timing.ShortDelay = "0s"
	config.Timing.WaitTimeout = "1s"
	return config
}

func setup(t *testing.T) (*BlogAdmin, *pagetest.BlogApp, *pagetest.Page) {
	t.Helper()
	page := pagetest.New()
	app := pagetest.NewBlogApp(page, dashboardURL, adminURL)
	return New(page, testConfig(), arbor.NewLogger()), app, page
}

func TestAddUserBioInBlogDashboard(t *testing.T) {
	ctx := context.Background()
	b, app, page := setup(t)

	require.NoError(t, b.NavigateToBlogDashboardPage(ctx))
	require.NoError(t, b.AddUserBioInBlogDashboard(ctx))

	assert.Equal(t, "Dummy-User-Bio", app.Bio)
	assert.True(t, page.Called("Click", "button.e2e-test-save-author-details-button"))
}

func TestCreateDraftBlogPost(t *testing.T) {
	ctx := context.Background()
	b, app, page := setup(t)

	require.NoError(t, b.NavigateToBlogDashboardPage(ctx))
	require.NoError(t, b.CreateDraftBlogPostWithTitle(ctx, "first draft"))

	assert.Equal(t, []string{"first draft"}, app.Drafts)
	assert.Equal(t, "Dummy-User-Bio", app.Bio)
	assert.True(t, page.Called("Type", "div.e2e-test-rte", "test blog post body content"))
	assert.True(t, page.Called("PressKey", interfaces.KeyTab))
	assert.Equal(t, dashboardURL, page.URL(), "should return to the dashboard")

	require.NoError(t, b.ExpectDraftBlogPostWithTitleToBePresent(ctx, "first draft"))
	require.NoError(t, b.ExpectNumberOfBlogPostsToBe(ctx, 1))
}

func TestExpectDraftBlogPostWithTitleToBePresent(t *testing.T) {
	ctx := context.Background()
	b, app, _ := setup(t)
	app.Drafts = []string{"alpha", "beta", "beta"}

	require.NoError(t, b.ExpectDraftBlogPostWithTitleToBePresent(ctx, "alpha"))

	err := b.ExpectDraftBlogPostWithTitleToBePresent(ctx, "gamma")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Equal(t, "Draft blog post with title gamma does not exist!", err.Error())

	err = b.ExpectDraftBlogPostWithTitleToBePresent(ctx, "beta")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPostDuplicated)
	assert.Equal(t, "Draft blog post with title beta exists more than once!", err.Error())

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "2", ae.Actual)
}

func TestDeleteDraftBlogPostWithTitle(t *testing.T) {
	ctx := context.Background()
	b, app, page := setup(t)
	app.Drafts = []string{"keep", "remove", "also keep"}

	require.NoError(t, b.NavigateToBlogDashboardPage(ctx))
	require.NoError(t, b.DeleteDraftBlogPostWithTitle(ctx, "remove"))

	assert.Equal(t, []string{"keep", "also keep"}, app.Drafts)
	assert.True(t, page.Called("ClickWithin", postTile, "1", postTileEditBox))
	assert.True(t, page.Called("ClickText", labelDelete))
	assert.True(t, page.Called("Click", confirmButton))
}

func TestDeleteMissingPostPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("error", func(t *testing.T) {
		b, app, page := setup(t)
		app.Drafts = []string{"keep"}
		require.NoError(t, b.NavigateToBlogDashboardPage(ctx))

		err := b.DeleteDraftBlogPostWithTitle(ctx, "missing")
		assert.ErrorIs(t, err, ErrPostNotFound)
		assert.False(t, page.Called("ClickText", labelDelete))
	})

	t.Run("ignore", func(t *testing.T) {
		page := pagetest.New()
		app := pagetest.NewBlogApp(page, dashboardURL, adminURL)
		app.Drafts = []string{"keep"}
		config := testConfig()
		config.Actions.MissingPostPolicy = common.MissingPostIgnore
		b := New(page, config, arbor.NewLogger())
		require.NoError(t, b.NavigateToBlogDashboardPage(ctx))

		assert.NoError(t, b.DeleteDraftBlogPostWithTitle(ctx, "missing"))
		assert.Equal(t, []string{"keep"}, app.Drafts)
		assert.False(t, page.Called("ClickText", labelDelete))
	})
}

func TestPublishNewBlogPostWithTitle(t *testing.T) {
	ctx := context.Background()
	b, app, page := setup(t)

	require.NoError(t, b.NavigateToBlogDashboardPage(ctx))
	require.NoError(t, b.PublishNewBlogPostWithTitle(ctx, "launch"))

	assert.Equal(t, []string{"launch"}, app.Published)
	assert.Empty(t, app.Drafts)
	assert.Equal(t, []string{"./fixtures/blog-post-thumbnail.svg"}, page.Uploads())

	require.NoError(t, b.ExpectPublishedBlogPostWithTitleToBePresent(ctx, "launch"))

	// Deleting makes the presence check fail
	require.NoError(t, b.DeletePublishedBlogPostWithTitle(ctx, "launch"))
	assert.Empty(t, app.Published)
	err := b.ExpectPublishedBlogPostWithTitleToBePresent(ctx, "launch")
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Equal(t, "Blog post with title launch does not exist!", err.Error())
}

func TestExpectPublishButtonToBeDisabled(t *testing.T) {
	ctx := context.Background()

	page := pagetest.New()
	page.Register(dashboardURL, `<html><body>
		<button class="e2e-test-publish-blog-post-button" disabled>Publish</button>
	</body></html>`)
	b := New(page, testConfig(), arbor.NewLogger())
	require.NoError(t, b.NavigateToBlogDashboardPage(ctx))
	assert.NoError(t, b.ExpectPublishButtonToBeDisabled(ctx))

	require.NoError(t, page.SetHTML(`<html><body>
		<button class="e2e-test-publish-blog-post-button">Publish</button>
	</body></html>`))
	err := b.ExpectPublishButtonToBeDisabled(ctx)
	require.Error(t, err)
	assert.True(t, IsAssertion(err))
	assert.Contains(t, err.Error(), "Published button is not disabled")

	require.NoError(t, page.SetHTML(`<html><body></body></html>`))
	err = b.ExpectPublishButtonToBeDisabled(ctx)
	assert.ErrorIs(t, err, interfaces.ErrTimeout)
	assert.False(t, IsAssertion(err))
}

func TestExpectUserUnableToPublishDuplicateTitle(t *testing.T) {
	ctx := context.Background()
	b, app, _ := setup(t)
	app.Published = []string{"taken"}

	require.NoError(t, b.NavigateToBlogDashboardPage(ctx))
	require.NoError(t, b.CreateNewBlogPostWithTitle(ctx, "taken"))
	require.NoError(t, b.ExpectUserUnableToPublishBlogPost(ctx, pagetest.DuplicateTitleWarning))

	err := b.ExpectUserUnableToPublishBlogPost(ctx, "some other warning")
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "publish_warning", ae.Check)
	assert.Contains(t, err.Error(), "Expected warning: some other warning\n")
	assert.Contains(t, err.Error(), "Displayed warning: "+pagetest.DuplicateTitleWarning)
}

func TestExpectUserUnableToPublishWhenEnabled(t *testing.T) {
	ctx := context.Background()
	page := pagetest.New()
	page.Register(dashboardURL, `<html><body>
		<div class="e2e-test-toast-warning-message">warning</div>
		<button class="e2e-test-publish-blog-post-button">Publish</button>
	</body></html>`)
	b := New(page, testConfig(), arbor.NewLogger())
	require.NoError(t, b.NavigateToBlogDashboardPage(ctx))

	err := b.ExpectUserUnableToPublishBlogPost(ctx, "warning")
	require.Error(t, err)
	assert.Equal(t, "User is able to publish the blog post", err.Error())
}

func TestExpectNumberOfBlogPostsToBe(t *testing.T) {
	ctx := context.Background()
	b, app, _ := setup(t)
	app.Drafts = []string{"a", "b"}
	require.NoError(t, b.NavigateToBlogDashboardPage(ctx))

	assert.NoError(t, b.ExpectNumberOfBlogPostsToBe(ctx, 2))

	err := b.ExpectNumberOfBlogPostsToBe(ctx, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Number of blog posts is not equal to 3")
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "3", ae.Expected)
	assert.Equal(t, "2", ae.Actual)
}

func TestNavigateToPublishTab(t *testing.T) {
	ctx := context.Background()
	b, app, _ := setup(t)
	app.Drafts = []string{"draft"}
	app.Published = []string{"one", "two", "three"}

	require.NoError(t, b.NavigateToPublishTab(ctx))
	assert.NoError(t, b.ExpectNumberOfBlogPostsToBe(ctx, 3))
}

func TestDashboardAccess(t *testing.T) {
	ctx := context.Background()
	b, app, _ := setup(t)
	app.CurrentUser = "guest"

	require.NoError(t, b.ExpectBlogDashboardAccessToBeUnauthorized(ctx))
	err := b.ExpectBlogDashboardAccessToBeAuthorized(ctx)
	require.Error(t, err)
	assert.Equal(t, "User unauthorized to access blog dashboard!", err.Error())
	assert.True(t, IsAssertion(err))

	require.NoError(t, b.AssignUserToRoleFromBlogAdminPage(ctx, "guest", pagetest.RoleBlogEditor))
	assert.Equal(t, pagetest.RoleBlogEditor, app.Roles["guest"])

	require.NoError(t, b.ExpectBlogDashboardAccessToBeAuthorized(ctx))
	err = b.ExpectBlogDashboardAccessToBeUnauthorized(ctx)
	require.Error(t, err)
	assert.Equal(t, "No unauthorization error on accessing the blog dashboard page!", err.Error())

	require.NoError(t, b.RemoveBlogEditorRoleFromUsername(ctx, "guest"))
	assert.NotContains(t, app.Roles, "guest")
	require.NoError(t, b.ExpectBlogDashboardAccessToBeUnauthorized(ctx))
}

// failingPage fails every wait with a driver error that is not a timeout.
type failingPage struct {
	*pagetest.Page
}

func (f failingPage) WaitForSelector(context.Context, string, time.Duration) error {
	return errors.New("target closed")
}

func TestDashboardAccessUnexpectedFailure(t *testing.T) {
	ctx := context.Background()
	page := pagetest.New()
	page.Register(dashboardURL, `<html><body></body></html>`)
	b := New(failingPage{page}, testConfig(), arbor.NewLogger())

	err := b.ExpectBlogDashboardAccessToBeUnauthorized(ctx)
	require.Error(t, err)
	assert.False(t, IsAssertion(err))
	assert.Contains(t, err.Error(), "unexpected failure")
}

func TestAssignUserToUnknownRole(t *testing.T) {
	ctx := context.Background()
	b, app, _ := setup(t)

	err := b.AssignUserToRoleFromBlogAdminPage(ctx, "someone", "NOT_A_ROLE")
	require.Error(t, err)
	assert.NotContains(t, app.Roles, "someone")
}

func TestBlogTags(t *testing.T) {
	ctx := context.Background()
	b, app, _ := setup(t)
	app.Tags = []string{"news"}
	require.NoError(t, b.NavigateToBlogAdminPage(ctx))

	require.NoError(t, b.ExpectTagToNotExistInBlogTags(ctx, "science"))
	require.NoError(t, b.AddNewBlogTag(ctx, "science"))
	assert.Equal(t, []string{"news", "science"}, app.Tags)
	require.NoError(t, b.ExpectTagToExistInBlogTags(ctx, "science"))

	err := b.ExpectTagToNotExistInBlogTags(ctx, "science")
	require.Error(t, err)
	assert.Equal(t, "Tag science already exists in tag list!", err.Error())

	err = b.ExpectTagToExistInBlogTags(ctx, "unused-tag")
	require.Error(t, err)
	assert.Equal(t, "Tag unused-tag does not exist in tag list!", err.Error())
}

func TestMaximumTagLimit(t *testing.T) {
	ctx := context.Background()
	b, app, _ := setup(t)
	require.NoError(t, b.NavigateToBlogAdminPage(ctx))

	require.NoError(t, b.ExpectMaximumTagLimitNotToBe(ctx, "5"))
	require.NoError(t, b.SetMaximumTagLimitTo(ctx, "5"))
	assert.Equal(t, "5", app.TagLimit)

	require.NoError(t, b.ExpectMaximumTagLimitToBe(ctx, "5"))
	err := b.ExpectMaximumTagLimitNotToBe(ctx, "5")
	require.Error(t, err)
	assert.Equal(t, "Maximum tag limit is already 5!", err.Error())

	err = b.ExpectMaximumTagLimitToBe(ctx, "7")
	require.Error(t, err)
	assert.Equal(t, "Maximum tag limit is not 7!", err.Error())
}

func TestMaximumTagLimitMissingField(t *testing.T) {
	ctx := context.Background()
	page := pagetest.New()
	page.Register(adminURL, `<html><body></body></html>`)
	b := New(page, testConfig(), arbor.NewLogger())
	require.NoError(t, b.NavigateToBlogAdminPage(ctx))

	assert.NoError(t, b.ExpectMaximumTagLimitNotToBe(ctx, "5"))
	assert.Error(t, b.ExpectMaximumTagLimitToBe(ctx, "5"))
}

func TestCanceledContextStopsScript(t *testing.T) {
	b, _, page := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.CreateDraftBlogPostWithTitle(ctx, "never")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, page.Calls())
}
