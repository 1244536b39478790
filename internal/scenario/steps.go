package scenario

import (
	"context"
	"errors"
	"sort"

	"github.com/ternarybob/blogadmin/internal/actions"
)

type stepFunc func(ctx context.Context, b *actions.BlogAdmin, a Args) error

type stepDef struct {
	args []string
	run  stepFunc
}

func noArgs(fn func(*actions.BlogAdmin, context.Context) error) stepDef {
	return stepDef{run: func(ctx context.Context, b *actions.BlogAdmin, _ Args) error { return fn(b, ctx) }}
}

func withTitle(fn func(*actions.BlogAdmin, context.Context, string) error) stepDef {
	return stepDef{
		args: []string{"title"},
		run:  func(ctx context.Context, b *actions.BlogAdmin, a Args) error { return fn(b, ctx, a.Title) },
	}
}

func withTag(fn func(*actions.BlogAdmin, context.Context, string) error) stepDef {
	return stepDef{
		args: []string{"tag"},
		run:  func(ctx context.Context, b *actions.BlogAdmin, a Args) error { return fn(b, ctx, a.Tag) },
	}
}

func withLimit(fn func(*actions.BlogAdmin, context.Context, string) error) stepDef {
	return stepDef{
		args: []string{"limit"},
		run:  func(ctx context.Context, b *actions.BlogAdmin, a Args) error { return fn(b, ctx, a.Limit) },
	}
}

// steps maps scenario action names to BlogAdmin operations.
var steps = map[string]stepDef{
	"navigate_to_blog_dashboard_page":                     noArgs((*actions.BlogAdmin).NavigateToBlogDashboardPage),
	"navigate_to_blog_admin_page":                         noArgs((*actions.BlogAdmin).NavigateToBlogAdminPage),
	"navigate_to_publish_tab":                             noArgs((*actions.BlogAdmin).NavigateToPublishTab),
	"add_user_bio_in_blog_dashboard":                      noArgs((*actions.BlogAdmin).AddUserBioInBlogDashboard),
	"create_draft_blog_post_with_title":                   withTitle((*actions.BlogAdmin).CreateDraftBlogPostWithTitle),
	"delete_draft_blog_post_with_title":                   withTitle((*actions.BlogAdmin).DeleteDraftBlogPostWithTitle),
	"expect_publish_button_to_be_disabled":                noArgs((*actions.BlogAdmin).ExpectPublishButtonToBeDisabled),
	"publish_new_blog_post_with_title":                    withTitle((*actions.BlogAdmin).PublishNewBlogPostWithTitle),
	"create_new_blog_post_with_title":                     withTitle((*actions.BlogAdmin).CreateNewBlogPostWithTitle),
	"delete_published_blog_post_with_title":               withTitle((*actions.BlogAdmin).DeletePublishedBlogPostWithTitle),
	"expect_draft_blog_post_with_title_to_be_present":     withTitle((*actions.BlogAdmin).ExpectDraftBlogPostWithTitleToBePresent),
	"expect_published_blog_post_with_title_to_be_present": withTitle((*actions.BlogAdmin).ExpectPublishedBlogPostWithTitleToBePresent),
	"expect_blog_dashboard_access_to_be_unauthorized":     noArgs((*actions.BlogAdmin).ExpectBlogDashboardAccessToBeUnauthorized),
	"expect_blog_dashboard_access_to_be_authorized":       noArgs((*actions.BlogAdmin).ExpectBlogDashboardAccessToBeAuthorized),
	"expect_tag_to_not_exist_in_blog_tags":                withTag((*actions.BlogAdmin).ExpectTagToNotExistInBlogTags),
	"add_new_blog_tag":                                    withTag((*actions.BlogAdmin).AddNewBlogTag),
	"expect_tag_to_exist_in_blog_tags":                    withTag((*actions.BlogAdmin).ExpectTagToExistInBlogTags),
	"set_maximum_tag_limit_to":                            withLimit((*actions.BlogAdmin).SetMaximumTagLimitTo),
	"expect_maximum_tag_limit_not_to_be":                  withLimit((*actions.BlogAdmin).ExpectMaximumTagLimitNotToBe),
	"expect_maximum_tag_limit_to_be":                      withLimit((*actions.BlogAdmin).ExpectMaximumTagLimitToBe),

	"expect_user_unable_to_publish_blog_post": {
		args: []string{"message"},
		run: func(ctx context.Context, b *actions.BlogAdmin, a Args) error {
			return b.ExpectUserUnableToPublishBlogPost(ctx, a.Message)
		},
	},
	"expect_number_of_blog_posts_to_be": {
		args: []string{"count"},
		run: func(ctx context.Context, b *actions.BlogAdmin, a Args) error {
			if a.Count == nil {
				return errors.New("count is required")
			}
			return b.ExpectNumberOfBlogPostsToBe(ctx, *a.Count)
		},
	},
	"assign_user_to_role_from_blog_admin_page": {
		args: []string{"username", "role"},
		run: func(ctx context.Context, b *actions.BlogAdmin, a Args) error {
			return b.AssignUserToRoleFromBlogAdminPage(ctx, a.Username, a.Role)
		},
	},
	"remove_blog_editor_role_from_username": {
		args: []string{"username"},
		run: func(ctx context.Context, b *actions.BlogAdmin, a Args) error {
			return b.RemoveBlogEditorRoleFromUsername(ctx, a.Username)
		},
	},
}

// Actions lists the action names a scenario step may use.
func Actions() []string {
	names := make([]string, 0, len(steps))
	for name := range steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
