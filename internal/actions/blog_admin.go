// Package actions scripts the blog dashboard and blog admin pages for
// acceptance tests. Each exported method is one user-visible action or check
// and runs as a linear script that stops at the first failure.
package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/blogadmin/internal/common"
	"github.com/ternarybob/blogadmin/internal/interfaces"
)

// BlogAdmin drives a single page as a blog author or blog admin.
type BlogAdmin struct {
	page   interfaces.Page
	config *common.Config
	logger arbor.ILogger

	timeout         time.Duration
	transitionDelay time.Duration
	shortDelay      time.Duration
}

// New creates the actions for page. The page is owned by the caller.
func New(page interfaces.Page, config *common.Config, logger arbor.ILogger) *BlogAdmin {
	return &BlogAdmin{
		page:            page,
		config:          config,
		logger:          logger,
		timeout:         config.Timing.WaitTimeoutDuration(),
		transitionDelay: config.Timing.TransitionDelayDuration(),
		shortDelay:      config.Timing.ShortDelayDuration(),
	}
}

// Page returns the underlying page.
func (b *BlogAdmin) Page() interfaces.Page {
	return b.page
}

// AddUserBioInBlogDashboard fills the author bio and saves the author details.
func (b *BlogAdmin) AddUserBioInBlogDashboard(ctx context.Context) error {
	if err := b.page.Type(ctx, authorBioField, b.config.Actions.AuthorBio); err != nil {
		return err
	}
	if err := b.page.WaitForSelector(ctx, enabled(saveAuthorDetails), b.timeout); err != nil {
		return err
	}
	if err := b.page.Click(ctx, saveAuthorDetails); err != nil {
		return err
	}
	b.logger.Debug().Msg("Author bio saved")
	return nil
}

func (b *BlogAdmin) NavigateToBlogDashboardPage(ctx context.Context) error {
	return b.page.Navigate(ctx, b.config.URLs.BlogDashboard)
}

func (b *BlogAdmin) NavigateToBlogAdminPage(ctx context.Context) error {
	return b.page.Navigate(ctx, b.config.URLs.BlogAdmin)
}

// CreateDraftBlogPostWithTitle creates a post from the dashboard, saves it as a
// draft and returns to the dashboard.
func (b *BlogAdmin) CreateDraftBlogPostWithTitle(ctx context.Context, title string) error {
	if err := b.AddUserBioInBlogDashboard(ctx); err != nil {
		return err
	}
	if err := b.settle(ctx, createNewPostButton, b.transitionDelay); err != nil {
		return err
	}
	if err := b.page.Click(ctx, createNewPostButton); err != nil {
		return err
	}
	if err := b.fillPost(ctx, title, b.config.Actions.PostBody); err != nil {
		return err
	}
	if err := b.settle(ctx, enabled(saveAsDraftButton), b.transitionDelay); err != nil {
		return err
	}
	if err := b.page.Click(ctx, saveAsDraftButton); err != nil {
		return err
	}

	b.logger.Info().Str("title", title).Msg("Successfully created a draft blog post!")
	return b.NavigateToBlogDashboardPage(ctx)
}

// DeleteDraftBlogPostWithTitle deletes the first draft tile titled title.
func (b *BlogAdmin) DeleteDraftBlogPostWithTitle(ctx context.Context, title string) error {
	deleted, err := b.deletePostWithTitle(ctx, title, b.shortDelay)
	if err != nil || !deleted {
		return err
	}
	b.logger.Info().Str("title", title).Msg("Draft blog post with given title deleted successfully!")
	return nil
}

// ExpectPublishButtonToBeDisabled reads the publish button's disabled property.
func (b *BlogAdmin) ExpectPublishButtonToBeDisabled(ctx context.Context) error {
	if err := b.page.WaitForSelector(ctx, publishButton, b.timeout); err != nil {
		return err
	}
	disabled, err := b.page.Disabled(ctx, publishButton)
	if err != nil {
		return err
	}
	if !disabled {
		return &AssertionError{
			Check:    "publish_button_disabled",
			Expected: "true",
			Actual:   "false",
			Message:  "Published button is not disabled when the blog post data is not completely filled",
		}
	}
	b.logger.Info().Msg("Published button is disabled when blog post data is not completely filled")
	return nil
}

// PublishNewBlogPostWithTitle creates and publishes a post, checking that
// publishing stays blocked until every required field is filled.
func (b *BlogAdmin) PublishNewBlogPostWithTitle(ctx context.Context, title string) error {
	if err := b.AddUserBioInBlogDashboard(ctx); err != nil {
		return err
	}
	if err := b.settle(ctx, createNewPostButton, b.transitionDelay); err != nil {
		return err
	}
	if err := b.page.Click(ctx, createNewPostButton); err != nil {
		return err
	}

	if err := b.ExpectPublishButtonToBeDisabled(ctx); err != nil {
		return err
	}
	if err := b.page.Click(ctx, toggleButton); err != nil {
		return err
	}
	if err := b.ExpectPublishButtonToBeDisabled(ctx); err != nil {
		return err
	}
	if err := b.uploadThumbnail(ctx); err != nil {
		return err
	}
	if err := b.ExpectPublishButtonToBeDisabled(ctx); err != nil {
		return err
	}

	if err := b.fillPost(ctx, title, b.config.Actions.PostBody); err != nil {
		return err
	}

	if err := b.page.WaitForSelector(ctx, enabled(publishButton), b.timeout); err != nil {
		return err
	}
	if err := b.page.Click(ctx, publishButton); err != nil {
		return err
	}
	if err := b.page.WaitForSelector(ctx, confirmButton, b.timeout); err != nil {
		return err
	}
	if err := b.page.Click(ctx, confirmButton); err != nil {
		return err
	}
	b.logger.Info().Str("title", title).Msg("Successfully published a blog post!")
	return nil
}

// CreateNewBlogPostWithTitle fills a new post without publishing it, leaving
// the editor open so a following check can inspect the publish state.
func (b *BlogAdmin) CreateNewBlogPostWithTitle(ctx context.Context, title string) error {
	if err := b.page.ClickText(ctx, labelNewPost); err != nil {
		return err
	}
	if err := b.page.Click(ctx, toggleButton); err != nil {
		return err
	}
	if err := b.uploadThumbnail(ctx); err != nil {
		return err
	}
	return b.fillPost(ctx, title, b.config.Actions.DuplicatePostBody)
}

// DeletePublishedBlogPostWithTitle switches to the published tab and deletes
// the first tile titled title.
func (b *BlogAdmin) DeletePublishedBlogPostWithTitle(ctx context.Context, title string) error {
	if err := b.page.ClickText(ctx, labelPublished); err != nil {
		return err
	}
	deleted, err := b.deletePostWithTitle(ctx, title, b.transitionDelay)
	if err != nil || !deleted {
		return err
	}
	b.logger.Info().Str("title", title).Msg("Published blog post with given title deleted successfully!")
	return nil
}

// ExpectUserUnableToPublishBlogPost checks the publish button is disabled and
// the warning toast shows expectedWarning.
func (b *BlogAdmin) ExpectUserUnableToPublishBlogPost(ctx context.Context, expectedWarning string) error {
	warning, err := b.page.Text(ctx, toastWarning)
	if err != nil {
		return fmt.Errorf("failed to read warning toast: %w", err)
	}
	disabled, err := b.page.Disabled(ctx, publishButton)
	if err != nil {
		return err
	}

	if !disabled {
		return &AssertionError{
			Check:    "unable_to_publish",
			Expected: "true",
			Actual:   "false",
			Message:  "User is able to publish the blog post",
		}
	}
	if warning != expectedWarning {
		return &AssertionError{
			Check:    "publish_warning",
			Expected: expectedWarning,
			Actual:   warning,
			Message: "Expected warning message is not same as the actual warning message\n" +
				fmt.Sprintf("Expected warning: %s\n", expectedWarning) +
				fmt.Sprintf("Displayed warning: %s\n", warning),
		}
	}

	b.logger.Info().Msg("User is unable to publish the blog post because " + warning)
	return nil
}

// ExpectNumberOfBlogPostsToBe counts the rendered post tiles.
func (b *BlogAdmin) ExpectNumberOfBlogPostsToBe(ctx context.Context, expected int) error {
	count, err := b.page.Count(ctx, postTile)
	if err != nil {
		return err
	}
	if count != expected {
		return &AssertionError{
			Check:    "post_count",
			Expected: fmt.Sprint(expected),
			Actual:   fmt.Sprint(count),
			Message:  fmt.Sprintf("Number of blog posts is not equal to %d (found %d)", expected, count),
		}
	}
	b.logger.Info().Msgf("Number of blog posts is equal to %d", expected)
	return nil
}

func (b *BlogAdmin) NavigateToPublishTab(ctx context.Context) error {
	if err := b.NavigateToBlogDashboardPage(ctx); err != nil {
		return err
	}
	if err := b.page.ClickText(ctx, labelPublished); err != nil {
		return err
	}
	b.logger.Info().Msg("Navigated to publish tab.")
	return nil
}

// ExpectDraftBlogPostWithTitleToBePresent requires exactly one draft tile titled title.
func (b *BlogAdmin) ExpectDraftBlogPostWithTitleToBePresent(ctx context.Context, title string) error {
	if err := b.NavigateToBlogDashboardPage(ctx); err != nil {
		return err
	}
	if err := b.expectSingleTile(ctx, "draft_post_present", "Draft blog post with title "+title, title); err != nil {
		return err
	}
	b.logger.Info().Msgf("Draft blog post with title %s exists!", title)
	return nil
}

// ExpectPublishedBlogPostWithTitleToBePresent requires exactly one published tile titled title.
func (b *BlogAdmin) ExpectPublishedBlogPostWithTitleToBePresent(ctx context.Context, title string) error {
	if err := b.NavigateToBlogDashboardPage(ctx); err != nil {
		return err
	}
	if err := b.page.ClickText(ctx, labelPublished); err != nil {
		return err
	}
	if err := b.expectSingleTile(ctx, "published_post_present", "Blog post with title "+title, title); err != nil {
		return err
	}
	b.logger.Info().Msgf("Published blog post with title %s exists!", title)
	return nil
}

// ExpectBlogDashboardAccessToBeUnauthorized passes when the dashboard shows
// its error container.
func (b *BlogAdmin) ExpectBlogDashboardAccessToBeUnauthorized(ctx context.Context) error {
	if err := b.NavigateToBlogDashboardPage(ctx); err != nil {
		return err
	}
	err := b.expectPresent(ctx, unauthErrorContainer, &AssertionError{
		Check:    "dashboard_unauthorized",
		Expected: unauthErrorContainer,
		Actual:   "missing",
		Message:  "No unauthorization error on accessing the blog dashboard page!",
	})
	if err != nil {
		return err
	}
	b.logger.Info().Msg("User unauthorized to access blog dashboard!")
	return nil
}

// ExpectBlogDashboardAccessToBeAuthorized passes when the first-visit author
// details dialog opens on the dashboard.
func (b *BlogAdmin) ExpectBlogDashboardAccessToBeAuthorized(ctx context.Context) error {
	if err := b.NavigateToBlogDashboardPage(ctx); err != nil {
		return err
	}
	err := b.expectPresent(ctx, authorDetailsModal, &AssertionError{
		Check:    "dashboard_authorized",
		Expected: authorDetailsModal,
		Actual:   "missing",
		Message:  "User unauthorized to access blog dashboard!",
	})
	if err != nil {
		return err
	}
	b.logger.Info().Msg("User authorized to access blog dashboard!")
	return nil
}

func (b *BlogAdmin) AssignUserToRoleFromBlogAdminPage(ctx context.Context, username, role string) error {
	if err := b.NavigateToBlogAdminPage(ctx); err != nil {
		return err
	}
	if err := b.page.Select(ctx, roleSelect, role); err != nil {
		return err
	}
	if err := b.page.Type(ctx, roleUpdateUsernameInput, username); err != nil {
		return err
	}
	if err := b.page.Click(ctx, updateRoleButton); err != nil {
		return err
	}
	b.logger.Info().Str("username", username).Str("role", role).Msg("Role update submitted")
	return nil
}

func (b *BlogAdmin) RemoveBlogEditorRoleFromUsername(ctx context.Context, username string) error {
	if err := b.NavigateToBlogAdminPage(ctx); err != nil {
		return err
	}
	if err := b.page.Type(ctx, editorUsernameInput, username); err != nil {
		return err
	}
	if err := b.page.Click(ctx, removeEditorButton); err != nil {
		return err
	}
	b.logger.Info().Str("username", username).Msg("Blog editor role removal submitted")
	return nil
}

func (b *BlogAdmin) ExpectTagToNotExistInBlogTags(ctx context.Context, tag string) error {
	found, err := b.hasTag(ctx, tag)
	if err != nil {
		return err
	}
	if found {
		return &AssertionError{
			Check:    "tag_absent",
			Expected: "absent",
			Actual:   "present",
			Message:  fmt.Sprintf("Tag %s already exists in tag list!", tag),
		}
	}
	b.logger.Info().Msgf("Tag with name %s does not exist in tag list!", tag)
	return nil
}

// AddNewBlogTag adds a tag row and fills the last tag input, which is the
// row the admin page appends.
func (b *BlogAdmin) AddNewBlogTag(ctx context.Context, tag string) error {
	if err := b.page.ClickText(ctx, labelAddElement); err != nil {
		return err
	}
	if err := b.settle(ctx, tagInputs, b.shortDelay); err != nil {
		return err
	}
	if err := b.page.SetValue(ctx, tagInputs, -1, tag); err != nil {
		return err
	}
	if err := b.page.ClickText(ctx, labelSave); err != nil {
		return err
	}
	b.logger.Info().Msgf("Tag %s added in tag list successfully!", tag)
	return nil
}

func (b *BlogAdmin) ExpectTagToExistInBlogTags(ctx context.Context, tag string) error {
	found, err := b.hasTag(ctx, tag)
	if err != nil {
		return err
	}
	if !found {
		return &AssertionError{
			Check:    "tag_present",
			Expected: "present",
			Actual:   "absent",
			Message:  fmt.Sprintf("Tag %s does not exist in tag list!", tag),
		}
	}
	b.logger.Info().Msgf("Tag with name %s exists in tag list!", tag)
	return nil
}

func (b *BlogAdmin) SetMaximumTagLimitTo(ctx context.Context, limit string) error {
	if err := b.page.Clear(ctx, maxTagLimitInput); err != nil {
		return err
	}
	if err := b.page.Type(ctx, maxTagLimitInput, limit); err != nil {
		return err
	}
	if err := b.page.ClickText(ctx, labelSave); err != nil {
		return err
	}
	b.logger.Info().Msgf("Successfully updated the tag limit to %s!", limit)
	return nil
}

// ExpectMaximumTagLimitNotToBe passes when the limit differs from limit or
// the limit field is not rendered.
func (b *BlogAdmin) ExpectMaximumTagLimitNotToBe(ctx context.Context, limit string) error {
	current, present, err := b.tagLimit(ctx)
	if err != nil {
		return err
	}
	if present && current == limit {
		return &AssertionError{
			Check:    "tag_limit_not",
			Expected: "not " + limit,
			Actual:   current,
			Message:  fmt.Sprintf("Maximum tag limit is already %s!", limit),
		}
	}
	b.logger.Info().Msgf("Maximum tag limit is not %s!", limit)
	return nil
}

func (b *BlogAdmin) ExpectMaximumTagLimitToBe(ctx context.Context, limit string) error {
	current, present, err := b.tagLimit(ctx)
	if err != nil {
		return err
	}
	if !present || current != limit {
		return &AssertionError{
			Check:    "tag_limit",
			Expected: limit,
			Actual:   current,
			Message:  fmt.Sprintf("Maximum tag limit is not %s!", limit),
		}
	}
	b.logger.Info().Msgf("Maximum tag is currently %s!", limit)
	return nil
}

// fillPost types the title and body into an open editor and closes the body editor.
func (b *BlogAdmin) fillPost(ctx context.Context, title, body string) error {
	if err := b.page.Type(ctx, postTitleInput, title); err != nil {
		return err
	}
	if err := b.page.PressKey(ctx, interfaces.KeyTab); err != nil {
		return err
	}
	if err := b.page.Type(ctx, postBodyInput, body); err != nil {
		return err
	}
	return b.page.Click(ctx, doneButton)
}

func (b *BlogAdmin) uploadThumbnail(ctx context.Context) error {
	if err := b.page.Click(ctx, thumbnailPhotoBox); err != nil {
		return err
	}
	if err := b.page.UploadFile(ctx, thumbnailFileInput, b.config.Fixtures.ThumbnailImage); err != nil {
		return err
	}
	if err := b.page.WaitForSelector(ctx, enabled(addThumbnailButton), b.timeout); err != nil {
		return err
	}
	if err := b.page.Click(ctx, addThumbnailButton); err != nil {
		return err
	}
	return b.settle(ctx, postTitleInput, b.transitionDelay)
}

// deletePostWithTitle opens the editor of the first tile titled title and
// confirms deletion. A missing title is handled by the missing post policy;
// deleted is false when nothing was deleted and no error applies.
func (b *BlogAdmin) deletePostWithTitle(ctx context.Context, title string, delay time.Duration) (bool, error) {
	titles, err := b.page.TextsWithin(ctx, postTile, postTileTitle)
	if err != nil {
		return false, err
	}

	index := -1
	for i, t := range titles {
		if t == title {
			index = i
			break
		}
	}
	if index < 0 {
		if b.config.Actions.MissingPostPolicy == common.MissingPostIgnore {
			b.logger.Warn().Str("title", title).Int("tiles", len(titles)).Msg("No blog post with given title to delete")
			return false, nil
		}
		return false, fmt.Errorf("cannot delete blog post with title %s: %w", title, ErrPostNotFound)
	}

	if err := b.page.ClickWithin(ctx, postTile, index, postTileEditBox); err != nil {
		return false, err
	}
	if err := b.settle(ctx, "", delay); err != nil {
		return false, err
	}
	if err := b.page.ClickText(ctx, labelDelete); err != nil {
		return false, err
	}
	if err := b.page.WaitForSelector(ctx, confirmButton, b.timeout); err != nil {
		return false, err
	}
	if err := b.page.Click(ctx, confirmButton); err != nil {
		return false, err
	}
	return true, nil
}

// expectSingleTile requires exactly one tile whose title equals title.
func (b *BlogAdmin) expectSingleTile(ctx context.Context, check, subject, title string) error {
	titles, err := b.page.TextsWithin(ctx, postTile, postTileTitle)
	if err != nil {
		return err
	}
	count := 0
	for _, t := range titles {
		if t == title {
			count++
		}
	}
	switch {
	case count == 0:
		return &AssertionError{
			Check:    check,
			Expected: "1",
			Actual:   "0",
			Message:  subject + " does not exist!",
			Err:      ErrPostNotFound,
		}
	case count > 1:
		return &AssertionError{
			Check:    check,
			Expected: "1",
			Actual:   fmt.Sprint(count),
			Message:  subject + " exists more than once!",
			Err:      ErrPostDuplicated,
		}
	}
	return nil
}

// expectPresent waits for selector; a timeout becomes failed, anything else is
// reported as an unexpected failure.
func (b *BlogAdmin) expectPresent(ctx context.Context, selector string, failed *AssertionError) error {
	err := b.page.WaitForSelector(ctx, selector, b.timeout)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, interfaces.ErrTimeout):
		failed.Err = err
		return failed
	default:
		return fmt.Errorf("unexpected failure while checking %s: %w", failed.Check, err)
	}
}

func (b *BlogAdmin) hasTag(ctx context.Context, tag string) (bool, error) {
	values, err := b.page.Values(ctx, tagInputs)
	if err != nil {
		return false, err
	}
	for _, v := range values {
		if v == tag {
			return true, nil
		}
	}
	return false, nil
}

func (b *BlogAdmin) tagLimit(ctx context.Context) (string, bool, error) {
	values, err := b.page.Values(ctx, maxTagLimitInput)
	if err != nil {
		return "", false, err
	}
	if len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}
