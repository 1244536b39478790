package pagetest

import (
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Roles offered by the simulated blog admin page.
const (
	RoleBlogAdmin  = "BLOG_ADMIN"
	RoleBlogEditor = "BLOG_POST_EDITOR"
)

// DuplicateTitleWarning is shown when a post reuses an existing title.
const DuplicateTitleWarning = "Blog Post with the given title exists already. Please use a different title."

// BlogApp simulates the blog dashboard and blog admin pages on a Page.
// State changes only through the same controls a user would operate.
type BlogApp struct {
	DashboardURL string
	AdminURL     string

	// CurrentUser is the signed-in user; dashboard access needs a blog role.
	CurrentUser string
	Roles       map[string]string

	Drafts    []string
	Published []string
	Tags      []string
	TagLimit  string
	Bio       string

	page *Page

	tab          string // drafts or published
	editorOpen   bool
	uploadOpen   bool
	fileChosen   bool
	thumbnail    bool
	title        string
	body         string
	toast        string
	menuIndex    int // tile whose editor menu is open, -1 when closed
	confirmOpen  bool
	confirming   string // publish or delete
	pendingIndex int
}

// NewBlogApp installs the simulated pages on p. The current user starts as a
// blog admin so the dashboard is reachable.
func NewBlogApp(p *Page, dashboardURL, adminURL string) *BlogApp {
	app := &BlogApp{
		DashboardURL: dashboardURL,
		AdminURL:     adminURL,
		CurrentUser:  "author",
		Roles:        map[string]string{"author": RoleBlogAdmin},
		TagLimit:     "10",
		page:         p,
		tab:          "drafts",
		menuIndex:    -1,
	}
	p.Register(dashboardURL, "<html><body></body></html>")
	p.Register(adminURL, "<html><body></body></html>")
	app.install()
	return app
}

// Authorized reports whether the current user may open the dashboard.
func (a *BlogApp) Authorized() bool {
	switch a.Roles[a.CurrentUser] {
	case RoleBlogAdmin, RoleBlogEditor:
		return true
	}
	return false
}

func (a *BlogApp) install() {
	p := a.page
	p.OnNavigate(a.DashboardURL, func(p *Page, _ *goquery.Selection) error {
		a.resetDashboard()
		return a.renderDashboard()
	})
	p.OnNavigate(a.AdminURL, func(p *Page, _ *goquery.Selection) error {
		return a.renderAdmin()
	})

	// Dashboard
	p.OnType("textarea.e2e-test-blog-author-bio-field", a.dashboard(nil))
	p.OnClick("button.e2e-test-save-author-details-button", a.dashboard(func(*goquery.Selection) {}))
	p.OnClick("button.create-new-blog-post-button", a.dashboard(func(*goquery.Selection) { a.openEditor() }))
	p.OnClickText("NEW POST", a.dashboard(func(*goquery.Selection) { a.openEditor() }))
	p.OnClickText("PUBLISHED", a.dashboard(func(*goquery.Selection) {
		a.tab = "published"
		a.menuIndex = -1
	}))
	p.OnClick("button.mat-button-toggle-button", a.dashboard(nil))
	p.OnClick("div.e2e-test-photo-clickable", a.dashboard(func(*goquery.Selection) {
		a.uploadOpen = true
		a.fileChosen = false
	}))
	p.OnUpload("input[type=file]", a.dashboard(func(*goquery.Selection) { a.fileChosen = true }))
	p.OnClick("button.e2e-test-photo-upload-submit", a.dashboard(func(*goquery.Selection) {
		a.thumbnail = true
		a.uploadOpen = false
	}))
	p.OnType("input.e2e-test-blog-post-title-field", a.dashboard(nil))
	p.OnType("div.e2e-test-rte", a.dashboard(nil))
	p.OnClick("button.oppia-save-state-item-button", a.dashboard(func(*goquery.Selection) {
		if a.duplicateTitle(a.title) {
			a.toast = DuplicateTitleWarning
		}
	}))
	p.OnClick("button.e2e-test-save-as-draft-button", a.dashboard(func(*goquery.Selection) {
		a.Drafts = append(a.Drafts, a.title)
		a.closeEditor()
	}))
	p.OnClick("button.e2e-test-publish-blog-post-button", a.dashboard(func(*goquery.Selection) {
		a.confirmOpen = true
		a.confirming = "publish"
	}))
	p.OnClick(".e2e-test-blog-post-edit-box", a.dashboard(func(target *goquery.Selection) {
		tile := target.Closest(".blog-dashboard-tile-content")
		a.menuIndex = a.page.Doc().Find(".blog-dashboard-tile-content").IndexOfSelection(tile)
	}))
	p.OnClickText("Delete", a.dashboard(func(*goquery.Selection) {
		a.confirmOpen = true
		a.confirming = "delete"
		a.pendingIndex = a.menuIndex
	}))
	p.OnClick("button.e2e-test-confirm-button", a.dashboard(func(*goquery.Selection) { a.confirm() }))

	// Admin
	p.OnClick("button.oppia-blog-admin-update-role-button", a.admin(func(doc *goquery.Document) {
		user := doc.Find("input#label-target-update-form-name").AttrOr("value", "")
		role := doc.Find("select#label-target-update-form-role-select").AttrOr("value", "")
		if user != "" && role != "" {
			a.Roles[user] = role
		}
	}))
	p.OnClick("button.oppia-blog-admin-remove-blog-editor-button", a.admin(func(doc *goquery.Document) {
		user := doc.Find("input#label-target-form-reviewer-username").AttrOr("value", "")
		if a.Roles[user] == RoleBlogEditor {
			delete(a.Roles, user)
		}
	}))
	p.OnClickText("Add element", a.admin(func(doc *goquery.Document) {
		a.Tags = append(a.readTags(doc), "")
	}))
	p.OnClickText("Save", a.admin(func(doc *goquery.Document) {
		tags := []string{}
		for _, t := range a.readTags(doc) {
			if t != "" {
				tags = append(tags, t)
			}
		}
		a.Tags = tags
		a.TagLimit = doc.Find("input#mat-input-0").AttrOr("value", "")
	}))
}

// dashboard wraps a state change with a sync from and a render to the document.
func (a *BlogApp) dashboard(change func(target *goquery.Selection)) Hook {
	return func(p *Page, target *goquery.Selection) error {
		if p.URL() != a.DashboardURL {
			return nil
		}
		a.syncDashboard(p.Doc())
		if change != nil {
			change(target)
		}
		return a.renderDashboard()
	}
}

func (a *BlogApp) admin(change func(doc *goquery.Document)) Hook {
	return func(p *Page, _ *goquery.Selection) error {
		if p.URL() != a.AdminURL {
			return nil
		}
		change(p.Doc())
		return a.renderAdmin()
	}
}

func (a *BlogApp) syncDashboard(doc *goquery.Document) {
	if bio := doc.Find("textarea.e2e-test-blog-author-bio-field"); bio.Length() > 0 {
		a.Bio = bio.Text()
	}
	if title := doc.Find("input.e2e-test-blog-post-title-field"); title.Length() > 0 {
		a.title = title.AttrOr("value", "")
	}
	if body := doc.Find("div.e2e-test-rte"); body.Length() > 0 {
		a.body = body.Text()
	}
}

func (a *BlogApp) readTags(doc *goquery.Document) []string {
	tags := []string{}
	doc.Find(".form-control").Each(func(_ int, s *goquery.Selection) {
		tags = append(tags, s.AttrOr("value", ""))
	})
	return tags
}

func (a *BlogApp) resetDashboard() {
	a.tab = "drafts"
	a.menuIndex = -1
	a.confirmOpen = false
	a.closeEditor()
}

func (a *BlogApp) openEditor() {
	a.editorOpen = true
	a.uploadOpen = false
	a.fileChosen = false
	a.thumbnail = false
	a.title = ""
	a.body = ""
	a.toast = ""
}

func (a *BlogApp) closeEditor() {
	a.editorOpen = false
	a.uploadOpen = false
	a.title = ""
	a.body = ""
	a.toast = ""
}

func (a *BlogApp) duplicateTitle(title string) bool {
	return slices.Contains(a.Drafts, title) || slices.Contains(a.Published, title)
}

func (a *BlogApp) canPublish() bool {
	return a.editorOpen && a.thumbnail && a.title != "" && a.body != "" && !a.duplicateTitle(a.title)
}

func (a *BlogApp) confirm() {
	a.confirmOpen = false
	switch a.confirming {
	case "publish":
		if a.canPublish() {
			a.Published = append(a.Published, a.title)
			a.closeEditor()
		}
	case "delete":
		list := &a.Drafts
		if a.tab == "published" {
			list = &a.Published
		}
		if a.pendingIndex >= 0 && a.pendingIndex < len(*list) {
			*list = slices.Delete(*list, a.pendingIndex, a.pendingIndex+1)
		}
		a.menuIndex = -1
	}
	a.confirming = ""
}

func disabledAttr(disabled bool) string {
	if disabled {
		return " disabled"
	}
	return ""
}

func (a *BlogApp) renderDashboard() error {
	var b strings.Builder
	b.WriteString("<html><body>\n")

	if !a.Authorized() {
		b.WriteString(`<div class="e2e-test-error-container">Error 401: unauthorized</div>`)
		b.WriteString("\n</body></html>")
		return a.page.SetHTML(b.String())
	}

	fmt.Fprintf(&b, `<div class="modal-dialog"><textarea class="e2e-test-blog-author-bio-field">%s</textarea>`+
		`<button class="e2e-test-save-author-details-button"%s>Save Details</button></div>`+"\n",
		html.EscapeString(a.Bio), disabledAttr(a.Bio == ""))
	b.WriteString(`<button class="create-new-blog-post-button">Create</button>` + "\n")
	b.WriteString(`<nav><span class="tab">NEW POST</span><span class="tab">DRAFTS</span><span class="tab">PUBLISHED</span></nav>` + "\n")

	posts := a.Drafts
	if a.tab == "published" {
		posts = a.Published
	}
	for i, title := range posts {
		fmt.Fprintf(&b, `<div class="blog-dashboard-tile-content"><span class="e2e-test-blog-post-title">%s</span>`+
			`<button class="e2e-test-blog-post-edit-box">edit</button>`, html.EscapeString(title))
		if i == a.menuIndex {
			b.WriteString(`<ul class="menu"><li>Unpublish</li><li>Delete</li></ul>`)
		}
		b.WriteString("</div>\n")
	}

	if a.editorOpen {
		fmt.Fprintf(&b, `<div class="editor"><input class="e2e-test-blog-post-title-field" value="%s">`+
			`<div class="e2e-test-rte">%s</div><button class="oppia-save-state-item-button">Done</button>`+
			`<button class="mat-button-toggle-button">Tags</button><div class="e2e-test-photo-clickable">thumbnail</div>`,
			html.EscapeString(a.title), html.EscapeString(a.body))
		if a.uploadOpen {
			fmt.Fprintf(&b, `<input type="file"><button class="e2e-test-photo-upload-submit"%s>Add Thumbnail</button>`,
				disabledAttr(!a.fileChosen))
		}
		fmt.Fprintf(&b, `<button class="e2e-test-publish-blog-post-button"%s>Publish</button>`, disabledAttr(!a.canPublish()))
		b.WriteString(`<button class="e2e-test-save-as-draft-button">Save as draft</button>`)
		if a.toast != "" {
			fmt.Fprintf(&b, `<div class="e2e-test-toast-warning-message">%s</div>`, html.EscapeString(a.toast))
		}
		b.WriteString("</div>\n")
	}

	if a.confirmOpen {
		b.WriteString(`<button class="e2e-test-confirm-button">Confirm</button>` + "\n")
	}

	b.WriteString("</body></html>")
	return a.page.SetHTML(b.String())
}

func (a *BlogApp) renderAdmin() error {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	b.WriteString(`<select id="label-target-update-form-role-select">`)
	for _, role := range []string{RoleBlogAdmin, RoleBlogEditor} {
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, role, role)
	}
	b.WriteString(`</select><input id="label-target-update-form-name">` +
		`<button class="oppia-blog-admin-update-role-button">Update Role</button>` + "\n")
	b.WriteString(`<input id="label-target-form-reviewer-username">` +
		`<button class="oppia-blog-admin-remove-blog-editor-button">Remove Role</button>` + "\n")

	b.WriteString(`<div class="tags">`)
	for _, tag := range a.Tags {
		fmt.Fprintf(&b, `<input class="form-control" value="%s">`, html.EscapeString(tag))
	}
	b.WriteString(`<button class="add">Add element</button></div>` + "\n")
	fmt.Fprintf(&b, `<input id="mat-input-0" value="%s">`+"\n", html.EscapeString(a.TagLimit))
	b.WriteString(`<button class="save">Save</button>` + "\n")
	b.WriteString("</body></html>")
	return a.page.SetHTML(b.String())
}
