package services

import (
	"context"
	"sync"

	"github.com/eliasmukasa/homelift-landing/internal/models"
)

// ProfileForm is one open create or edit form: a draft plus the photo upload
// that belongs to it.
type ProfileForm struct {
	workflow *ProfileWorkflow
	uploader *AvatarUploader

	mu    sync.Mutex
	id    string
	base  models.Profile
	draft models.Draft
}

// NewForm opens a form for a new profile.
func NewForm(workflow *ProfileWorkflow, uploader *AvatarUploader) *ProfileForm {
	return &ProfileForm{workflow: workflow, uploader: uploader}
}

// EditForm opens a form for an existing profile. The draft starts empty so
// only the fields the admin touches are written.
func EditForm(workflow *ProfileWorkflow, profile models.Profile, uploader *AvatarUploader) *ProfileForm {
	return &ProfileForm{
		workflow: workflow,
		uploader: uploader,
		id:       profile.ID,
		base:     profile,
		draft:    models.Draft{ID: profile.ID},
	}
}

// Profile returns the record being edited, or the zero Profile for a new one.
func (f *ProfileForm) Profile() models.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.base
}

// Draft returns a copy of the pending changes.
func (f *ProfileForm) Draft() models.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Set applies edit to the draft patch.
func (f *ProfileForm) Set(edit func(*models.Patch)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	edit(&f.draft.Patch)
}

// Upload picks file, runs the transfer and puts the resulting URL into the
// draft. Nothing is sent unless the session may write. A failed upload leaves
// the draft untouched.
func (f *ProfileForm) Upload(ctx context.Context, file File, onProgress func(UploadEvent)) (string, error) {
	if err := f.workflow.authorize(); err != nil {
		return "", err
	}
	if f.uploader == nil {
		return "", fail(ErrStorageUnavailable)
	}
	if err := f.uploader.Pick(file); err != nil {
		return "", err
	}
	photoURL, err := f.uploader.Run(ctx, onProgress)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	AttachPhoto(&f.draft, photoURL)
	f.mu.Unlock()
	return photoURL, nil
}

// Submit saves the draft and resets the form. It is refused while the photo
// upload runs.
func (f *ProfileForm) Submit(ctx context.Context) (SaveResult, error) {
	if f.uploader != nil && f.uploader.InFlight() {
		return SaveResult{}, fail(ErrUploadInFlight)
	}
	f.mu.Lock()
	draft := f.draft
	f.mu.Unlock()

	res, err := f.workflow.Save(ctx, draft)
	if err != nil {
		return SaveResult{}, err
	}

	f.mu.Lock()
	f.draft = models.Draft{ID: f.id}
	f.mu.Unlock()
	if f.uploader != nil {
		f.uploader.Reset()
	}
	return res, nil
}
