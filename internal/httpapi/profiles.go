package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/models"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

const maxProfileBody = 1 << 20

func (s *server) workflow(ctx context.Context) *services.ProfileWorkflow {
	return services.NewProfileWorkflow(gateFromContext(ctx), s.deps.Docs, s.deps.Clock, s.deps.Collection, logging.FromContext(ctx))
}

func (s *server) listProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wf := s.workflow(ctx)
	defer wf.Close()

	profiles, err := wf.List(ctx)
	if err != nil {
		s.resp.handleServiceError(ctx, w, err)
		return
	}
	s.resp.writeJSON(ctx, w, http.StatusOK, models.ProfileListResponse{Profiles: profiles})
}

func (s *server) createProfile(w http.ResponseWriter, r *http.Request) {
	s.saveProfile(w, r, "")
}

func (s *server) updateProfile(w http.ResponseWriter, r *http.Request) {
	s.saveProfile(w, r, chi.URLParam(r, "id"))
}

func (s *server) saveProfile(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	var patch models.Patch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProfileBody)).Decode(&patch); err != nil {
		s.resp.handleServiceError(ctx, w, fmt.Errorf("%w: %v", errBadRequestBody, err))
		return
	}

	wf := s.workflow(ctx)
	defer wf.Close()
	result, err := wf.Save(ctx, models.Draft{ID: id, Patch: patch})
	if err != nil {
		s.resp.handleServiceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	s.resp.writeJSON(ctx, w, status, models.SaveProfileResponse{Status: "success", ID: result.ID, Created: result.Created})
}

// deleteProfile only deletes with ?confirm=true. The SPA asks the admin first.
func (s *server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	confirmed := r.URL.Query().Get("confirm") == "true"

	wf := s.workflow(ctx)
	defer wf.Close()
	if err := wf.Delete(ctx, chi.URLParam(r, "id"), func() bool { return confirmed }); err != nil {
		s.resp.handleServiceError(ctx, w, err)
		return
	}
	s.resp.writeJSON(ctx, w, http.StatusNoContent, nil)
}

// findProfile lists the collection and picks id out of it.
func (s *server) findProfile(ctx context.Context, id string) (models.Profile, error) {
	wf := s.workflow(ctx)
	defer wf.Close()
	if _, err := wf.List(ctx); err != nil {
		return models.Profile{}, err
	}
	p, ok := wf.Find(id)
	if !ok {
		return models.Profile{}, fmt.Errorf("%s: %w", id, services.ErrProfileNotFound)
	}
	return p, nil
}

func (s *server) profileSheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.findProfile(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.resp.handleServiceError(ctx, w, err)
		return
	}

	var buf bytes.Buffer
	if err := services.RenderSheet(&buf, p); err != nil {
		s.resp.handleServiceError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheetFileName(p)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *server) bioDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.findProfile(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.resp.handleServiceError(ctx, w, err)
		return
	}

	bio, err := services.NewBioDrafter(s.deps.Generator, logging.FromContext(ctx)).Draft(ctx, p)
	if err != nil {
		s.resp.handleServiceError(ctx, w, err)
		return
	}
	s.resp.writeJSON(ctx, w, http.StatusOK, models.BioDraftResponse{Status: "success", BioSummary: bio})
}

func sheetFileName(p models.Profile) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		}
		return -1
	}, strings.TrimSpace(p.FullName))
	if name == "" {
		name = p.ID
	}
	return "hcp-" + strings.ToLower(name) + ".pdf"
}
