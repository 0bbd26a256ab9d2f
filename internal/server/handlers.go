package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spigell/job-agent/internal/agent"
	"github.com/spigell/job-agent/internal/contacts"
	"github.com/spigell/job-agent/internal/jobs"
)

type searchRequest struct {
	MaxResults int `json:"max_results" validate:"gte=0,lte=200"`
}

type pipelineRequest struct {
	ProfileID  string   `json:"profile_id" validate:"required"`
	Portals    []string `json:"portals"`
	MaxResults int      `json:"max_results" validate:"gte=0,lte=200"`
}

type composeRequest struct {
	Job       jobs.Posting `json:"job"`
	Contact   *contactInfo `json:"contact"`
	ProfileID string       `json:"profile_id" validate:"required"`
}

type contactInfo struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Company  string `json:"company,omitempty"`
	Title    string `json:"title,omitempty"`
	Found    bool   `json:"found"`
}

type hitsResponse struct {
	Hits []jobs.RankedPosting `json:"hits"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Welcome to AI Job agent application"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"data_dir": s.config.DataDir,
		"filters":  s.agent.Filters(),
	})
}

func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	var in jobs.Profile
	if err := s.decode(r, &in); err != nil {
		s.respondErr(w, err)
		return
	}

	stored, err := s.agent.SaveProfile(r.Context(), &in)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stored)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.agent.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		respondError(w, http.StatusBadRequest, "Upload a PDF resume")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	result, err := s.agent.ImportResume(r.Context(), data)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		*agent.ResumeUpload
	}{OK: true, ResumeUpload: result})
}

func (s *Server) handleSearchJobs(w http.ResponseWriter, r *http.Request) {
	profileID := strings.TrimSpace(r.URL.Query().Get("profile_id"))
	if profileID == "" {
		s.respondErr(w, &ErrValidation{Field: "profile_id", Message: "profile_id is required"})
		return
	}

	req := searchRequest{MaxResults: atoiDefault(r.URL.Query().Get("max_results"), agent.DefaultMaxResults)}
	if err := s.decodeOptional(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	hits, err := s.agent.Search(r.Context(), agent.SearchRequest{ProfileID: profileID, MaxResults: req.MaxResults})
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, hitsResponse{Hits: hits})
}

func (s *Server) handleEnrichContact(w http.ResponseWriter, r *http.Request) {
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	if company == "" {
		s.respondErr(w, &ErrValidation{Field: "company", Message: "company is required"})
		return
	}
	roleHint := r.URL.Query().Get("role_hint")
	if roleHint == "" {
		roleHint = contacts.DefaultRoleHint
	}

	contact, err := s.agent.FindContact(r.Context(), company, roleHint)
	switch {
	case errors.Is(err, contacts.ErrNotFound):
		respondJSON(w, http.StatusOK, contactInfo{Company: company, Found: false})
		return
	case err != nil:
		s.respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, contactInfo{
		Name:     contact.Name,
		Email:    contact.Email,
		LinkedIn: contact.LinkedIn,
		Company:  contact.Company,
		Title:    contact.Title,
		Found:    true,
	})
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	var contact *contacts.Contact
	if req.Contact != nil && req.Contact.Found {
		contact = &contacts.Contact{
			Name:     req.Contact.Name,
			Email:    req.Contact.Email,
			LinkedIn: req.Contact.LinkedIn,
			Company:  req.Contact.Company,
			Title:    req.Contact.Title,
		}
	}

	email, err := s.agent.ComposeEmail(r.Context(), req.ProfileID, req.Job, contact)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, email)
}

func (s *Server) handlePipelineRun(w http.ResponseWriter, r *http.Request) {
	var req pipelineRequest
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	hits, err := s.agent.Search(r.Context(), agent.SearchRequest{
		ProfileID:  req.ProfileID,
		Portals:    req.Portals,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, hitsResponse{Hits: hits})
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON body: " + err.Error()}
	}
	return s.validateStruct(v)
}

// decodeOptional is decode that accepts an empty body.
func (s *Server) decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return s.validateStruct(v)
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return &ErrValidation{Field: "body", Message: "invalid JSON body: " + err.Error()}
	}
	return s.validateStruct(v)
}

func (s *Server) validateStruct(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
