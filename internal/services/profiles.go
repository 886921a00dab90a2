package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/eliasmukasa/homelift-landing/internal/models"
)

// SaveResult reports where a draft was saved.
type SaveResult struct {
	ID      string
	Created bool
}

// ProfileWorkflow lists, saves and deletes HCP profiles. It keeps the last
// successfully fetched list in memory and never mutates it optimistically.
type ProfileWorkflow struct {
	gate       Authorizer
	docs       DocumentStore
	clock      Clock
	collection string
	logger     *slog.Logger

	mu       sync.Mutex
	profiles []models.Profile
	saving   atomic.Bool
	unwatch  func()
}

// NewProfileWorkflow wires the workflow to a gate and store. docs may be nil
// when the backend is not configured. If gate also reports identity changes,
// the cached list is dropped on sign-out.
func NewProfileWorkflow(gate Authorizer, docs DocumentStore, clock Clock, collection string, logger *slog.Logger) *ProfileWorkflow {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if collection == "" {
		collection = "hcpProfiles"
	}
	w := &ProfileWorkflow{
		gate:       gate,
		docs:       docs,
		clock:      clock,
		collection: collection,
		logger:     logger.With("component", "profile_workflow", "collection", collection),
	}
	if watcher, ok := gate.(IdentityWatcher); ok {
		w.unwatch = watcher.OnChange(func(id *Identity) {
			if id == nil {
				w.mu.Lock()
				w.profiles = nil
				w.mu.Unlock()
			}
		})
	}
	return w
}

// Close stops watching the gate.
func (w *ProfileWorkflow) Close() {
	if w.unwatch != nil {
		w.unwatch()
	}
}

func (w *ProfileWorkflow) authorize() error {
	if w.gate == nil {
		return fail(ErrConfigurationMissing)
	}
	if err := w.gate.Authorize(); err != nil {
		return err
	}
	if w.docs == nil {
		return fail(ErrConfigurationMissing)
	}
	return nil
}

// List fetches every profile in store order and replaces the cached list.
func (w *ProfileWorkflow) List(ctx context.Context) ([]models.Profile, error) {
	if err := w.authorize(); err != nil {
		return nil, err
	}
	docs, err := w.docs.List(ctx, w.collection)
	if err != nil {
		w.logger.Error("Failed to list profiles.", "error", err)
		return nil, passThrough(ErrPersistenceFailed, err)
	}
	profiles := make([]models.Profile, 0, len(docs))
	for _, d := range docs {
		profiles = append(profiles, models.ProfileFromFields(d.ID, d.Fields))
	}

	// A sign-out may have cleared the cache while the fetch was running.
	w.mu.Lock()
	if err := w.gate.Authorize(); err != nil {
		w.mu.Unlock()
		w.logger.Info("Discarding profiles fetched across a sign-out.")
		return nil, err
	}
	w.profiles = profiles
	w.mu.Unlock()
	w.logger.Debug("Profiles fetched.", "count", len(profiles))
	return copyProfiles(profiles), nil
}

// Profiles returns the cached list.
func (w *ProfileWorkflow) Profiles() []models.Profile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return copyProfiles(w.profiles)
}

// Find returns the cached profile with id.
func (w *ProfileWorkflow) Find(id string) (models.Profile, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.profiles {
		if p.ID == id {
			return p, true
		}
	}
	return models.Profile{}, false
}

// Save creates the draft when it has no ID and merge-updates it otherwise.
func (w *ProfileWorkflow) Save(ctx context.Context, draft models.Draft) (SaveResult, error) {
	if err := w.authorize(); err != nil {
		return SaveResult{}, err
	}
	if !w.saving.CompareAndSwap(false, true) {
		return SaveResult{}, fail(ErrSaveInFlight)
	}
	defer w.saving.Store(false)

	now := models.FormatTimestamp(w.clock.Now())
	logCtx := w.logger.With("profileId", draft.ID)

	if draft.IsNew() {
		if err := validateCreate(draft.Patch); err != nil {
			return SaveResult{}, err
		}
		fields := draft.Patch.Fields()
		fields[models.FieldDateCreated] = now
		fields[models.FieldInternalStatus] = string(models.StatusPendingReview)
		if _, ok := fields[models.FieldProfilePhotoURL]; !ok {
			fields[models.FieldProfilePhotoURL] = nil
		}
		id, err := w.docs.Create(ctx, w.collection, fields)
		if err != nil {
			logCtx.Error("Failed to create profile.", "error", err)
			return SaveResult{}, passThrough(ErrPersistenceFailed, err)
		}
		w.logger.Info("Profile created.", "profileId", id)
		w.refresh(ctx)
		return SaveResult{ID: id, Created: true}, nil
	}

	if err := validateUpdate(draft.Patch); err != nil {
		return SaveResult{}, err
	}
	fields := draft.Patch.Fields()
	fields[models.FieldLastUpdated] = now
	if err := w.docs.Merge(ctx, w.collection, draft.ID, fields); err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			logCtx.Warn("Profile to update does not exist.")
			return SaveResult{}, &Failure{Kind: ErrProfileNotFound, Message: "profile " + draft.ID + " not found", Err: err}
		}
		logCtx.Error("Failed to update profile.", "error", err)
		return SaveResult{}, passThrough(ErrPersistenceFailed, err)
	}
	logCtx.Info("Profile updated.", "fields", len(fields)-1)
	w.refresh(ctx)
	return SaveResult{ID: draft.ID}, nil
}

// Delete removes a profile permanently once confirm returns true.
func (w *ProfileWorkflow) Delete(ctx context.Context, id string, confirm func() bool) error {
	if err := w.authorize(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return &ValidationError{FieldErrors: map[string]string{"id": "required"}}
	}
	if confirm == nil || !confirm() {
		return fail(ErrDeleteNotConfirmed)
	}
	logCtx := w.logger.With("profileId", id)
	if err := w.docs.Delete(ctx, w.collection, id); err != nil {
		logCtx.Error("Failed to delete profile.", "error", err)
		return passThrough(ErrPersistenceFailed, err)
	}
	logCtx.Info("Profile deleted.")
	w.refresh(ctx)
	return nil
}

// refresh re-fetches after a successful write. A failed re-fetch leaves the
// previous list in place and is not the caller's error.
func (w *ProfileWorkflow) refresh(ctx context.Context) {
	if _, err := w.List(ctx); err != nil {
		w.logger.Warn("Could not refresh profiles after write.", "error", err)
	}
}

// AttachPhoto puts an upload result into the draft.
func AttachPhoto(d *models.Draft, photoURL string) {
	d.Patch.ProfilePhotoURL = models.Some(photoURL)
}

func validateCreate(p models.Patch) error {
	verr := &ValidationError{}
	requireString(verr, models.FieldFullName, p.FullName)
	requireString(verr, models.FieldPrimarySkill, p.PrimarySkill)
	requireString(verr, models.FieldBioSummary, p.BioSummary)
	requireString(verr, models.FieldLocationPreference, p.LocationPreference)
	if !p.ExperienceYears.IsSpecified() || p.ExperienceYears.IsNull() {
		verr.add(models.FieldExperienceYears, "required")
	}
	checkCommon(verr, p)
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func validateUpdate(p models.Patch) error {
	verr := &ValidationError{}
	for field, v := range map[string]models.Optional[string]{
		models.FieldFullName:           p.FullName,
		models.FieldPrimarySkill:       p.PrimarySkill,
		models.FieldBioSummary:         p.BioSummary,
		models.FieldLocationPreference: p.LocationPreference,
	} {
		if v.IsSpecified() {
			requireString(verr, field, v)
		}
	}
	if p.ExperienceYears.IsNull() {
		verr.add(models.FieldExperienceYears, "required")
	}
	if p.InternalStatus.IsSpecified() && !p.InternalStatus.Value().Valid() {
		verr.add(models.FieldInternalStatus, "unknown status")
	}
	checkCommon(verr, p)
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func checkCommon(verr *ValidationError, p models.Patch) {
	if p.ExperienceYears.IsSpecified() && p.ExperienceYears.Value() < 0 {
		verr.add(models.FieldExperienceYears, "must not be negative")
	}
	if p.ProfilePhotoURL.IsSpecified() && !p.ProfilePhotoURL.IsNull() {
		u, err := url.Parse(p.ProfilePhotoURL.Value())
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			verr.add(models.FieldProfilePhotoURL, "must be an http(s) URL")
		}
	}
}

func requireString(verr *ValidationError, field string, v models.Optional[string]) {
	if !v.IsSpecified() || v.IsNull() || strings.TrimSpace(v.Value()) == "" {
		verr.add(field, "required")
	}
}

func copyProfiles(in []models.Profile) []models.Profile {
	if in == nil {
		return nil
	}
	out := make([]models.Profile, len(in))
	copy(out, in)
	return out
}
