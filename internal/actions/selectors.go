package actions

// Blog dashboard
const (
	authorBioField       = "textarea.e2e-test-blog-author-bio-field"
	saveAuthorDetails    = "button.e2e-test-save-author-details-button"
	createNewPostButton  = "button.create-new-blog-post-button"
	postTitleInput       = "input.e2e-test-blog-post-title-field"
	postBodyInput        = "div.e2e-test-rte"
	doneButton           = "button.oppia-save-state-item-button"
	saveAsDraftButton    = "button.e2e-test-save-as-draft-button"
	publishButton        = "button.e2e-test-publish-blog-post-button"
	confirmButton        = "button.e2e-test-confirm-button"
	toggleButton         = "button.mat-button-toggle-button"
	thumbnailPhotoBox    = "div.e2e-test-photo-clickable"
	thumbnailFileInput   = "input[type=file]"
	addThumbnailButton   = "button.e2e-test-photo-upload-submit"
	toastWarning         = "div.e2e-test-toast-warning-message"
	unauthErrorContainer = "div.e2e-test-error-container"
	authorDetailsModal   = "div.modal-dialog"
	postTile             = ".blog-dashboard-tile-content"
	postTileTitle        = ".e2e-test-blog-post-title"
	postTileEditBox      = ".e2e-test-blog-post-edit-box"
)

// Blog admin
const (
	roleUpdateUsernameInput = "input#label-target-update-form-name"
	roleSelect              = "select#label-target-update-form-role-select"
	updateRoleButton        = "button.oppia-blog-admin-update-role-button"
	editorUsernameInput     = "input#label-target-form-reviewer-username"
	removeEditorButton      = "button.oppia-blog-admin-remove-blog-editor-button"
	tagInputs               = ".form-control"
	maxTagLimitInput        = "input#mat-input-0"
)

// Visible labels clicked by text
const (
	labelSave       = "Save"
	labelAddElement = "Add element"
	labelDelete     = "Delete"
	labelPublished  = "PUBLISHED"
	labelNewPost    = "NEW POST"
)

func enabled(selector string) string {
	return selector + ":not([disabled])"
}
