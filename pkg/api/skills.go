package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/skills"
)

// skillResponse is the wire form of skill metadata.
type skillResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	MatchTerms  []string `json:"matchTerms"`
	Version     string   `json:"version,omitempty"`
}

func toSkillResponse(md skills.Metadata) skillResponse {
	return skillResponse{
		ID:          md.ID,
		Name:        md.Name,
		Description: md.Description,
		Tags:        md.Tags,
		MatchTerms:  md.MatchTerms,
		Version:     md.Version,
	}
}

func toSkillResponses(mds []skills.Metadata) []skillResponse {
	out := make([]skillResponse, 0, len(mds))
	for _, md := range mds {
		out = append(out, toSkillResponse(md))
	}
	return out
}

func (s *Server) handleListSkills(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"skills": toSkillResponses(s.orch.Catalog())})
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	md, err := s.orch.Registry().GetMetadata(id)
	if err != nil {
		if errors.Is(err, skills.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toSkillResponse(md))
}

type routeRequest struct {
	Message  string   `json:"message"`
	Limit    int      `json:"limit,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	MinScore float64  `json:"minScore,omitempty"`
}

func (s *Server) handleRouteSkills(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid route request"))
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	routed := s.orch.RouteSkills(req.Message, skills.RouteOptions{
		Limit:    req.Limit,
		Tags:     req.Tags,
		MinScore: req.MinScore,
	})
	writeJSON(w, http.StatusOK, map[string]any{"skills": toSkillResponses(routed)})
}

func (s *Server) handleReloadSkills(w http.ResponseWriter, _ *http.Request) {
	if err := s.orch.ReloadConfig(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"skills": toSkillResponses(s.orch.Catalog()),
	})
}

type createSkillRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	MatchTerms  []string `json:"matchTerms,omitempty"`
	Force       bool     `json:"force,omitempty"`
}

func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	var req createSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid create request"))
		return
	}

	dir, err := skills.CreatePackage(s.orch.Registry().Root(), skills.ScaffoldConfig{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		MatchTerms:  req.MatchTerms,
		Force:       req.Force,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.orch.ReloadConfig(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID, "path": dir})
}
