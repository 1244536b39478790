package actions

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"pgregory.net/rapid"

	"github.com/ternarybob/blogadmin/internal/pagetest"
)

// Lowercase titles never collide with the upper-case page labels.
var titleGen = rapid.StringMatching(`[a-z][a-z0-9 ]{0,15}[a-z0-9]`)

func rapidSetup() (*BlogAdmin, *pagetest.BlogApp) {
	page := pagetest.New()
	app := pagetest.NewBlogApp(page, dashboardURL, adminURL)
	return New(page, testConfig(), arbor.NewLogger()), app
}

func TestDraftTitleUniquenessProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		b, app := rapidSetup()
		title := titleGen.Draw(rt, "title")
		others := rapid.SliceOfN(titleGen.Filter(func(s string) bool { return s != title }), 0, 4).Draw(rt, "others")
		app.Drafts = others

		require.ErrorIs(rt, b.ExpectDraftBlogPostWithTitleToBePresent(ctx, title), ErrPostNotFound)

		require.NoError(rt, b.CreateDraftBlogPostWithTitle(ctx, title))
		require.NoError(rt, b.ExpectDraftBlogPostWithTitleToBePresent(ctx, title))

		app.Drafts = append(app.Drafts, title)
		require.ErrorIs(rt, b.ExpectDraftBlogPostWithTitleToBePresent(ctx, title), ErrPostDuplicated)
	})
}

func TestPublishThenDeleteProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		b, _ := rapidSetup()
		title := titleGen.Draw(rt, "title")

		require.NoError(rt, b.NavigateToBlogDashboardPage(ctx))
		require.NoError(rt, b.PublishNewBlogPostWithTitle(ctx, title))
		require.NoError(rt, b.ExpectPublishedBlogPostWithTitleToBePresent(ctx, title))

		require.NoError(rt, b.DeletePublishedBlogPostWithTitle(ctx, title))
		require.ErrorIs(rt, b.ExpectPublishedBlogPostWithTitleToBePresent(ctx, title), ErrPostNotFound)
	})
}

func TestPostCountProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		b, app := rapidSetup()
		app.Drafts = rapid.SliceOfN(titleGen, 0, 6).Draw(rt, "drafts")
		asserted := rapid.IntRange(0, 8).Draw(rt, "asserted")
		require.NoError(rt, b.NavigateToBlogDashboardPage(ctx))

		err := b.ExpectNumberOfBlogPostsToBe(ctx, asserted)
		if asserted == len(app.Drafts) {
			require.NoError(rt, err)
		} else {
			require.Error(rt, err)
			require.Contains(rt, err.Error(), fmt.Sprintf("Number of blog posts is not equal to %d", asserted))
		}
	})
}

func TestTagLimitAssertionsExclusiveProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		b, _ := rapidSetup()
		limit := fmt.Sprint(rapid.IntRange(1, 99).Draw(rt, "limit"))
		candidate := fmt.Sprint(rapid.IntRange(1, 99).Draw(rt, "candidate"))
		require.NoError(rt, b.NavigateToBlogAdminPage(ctx))

		require.NoError(rt, b.SetMaximumTagLimitTo(ctx, limit))

		is := b.ExpectMaximumTagLimitToBe(ctx, candidate)
		isNot := b.ExpectMaximumTagLimitNotToBe(ctx, candidate)
		require.NotEqual(rt, is == nil, isNot == nil, "exactly one of the limit assertions must pass")
		require.Equal(rt, candidate == limit, is == nil)
	})
}

func TestAddedTagExistsProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		b, app := rapidSetup()
		tag := rapid.StringMatching(`[a-z]{3,10}`).Draw(rt, "tag")
		app.Tags = rapid.SliceOfN(rapid.StringMatching(`[a-z]{3,10}`).Filter(func(s string) bool { return s != tag }), 0, 3).Draw(rt, "existing")
		require.NoError(rt, b.NavigateToBlogAdminPage(ctx))

		require.NoError(rt, b.ExpectTagToNotExistInBlogTags(ctx, tag))
		require.NoError(rt, b.AddNewBlogTag(ctx, tag))
		require.NoError(rt, b.ExpectTagToExistInBlogTags(ctx, tag))
	})
}
