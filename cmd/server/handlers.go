package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lychee-technology/jsonerd"
	"github.com/lychee-technology/jsonerd/internal"
	"go.uber.org/zap"
)

// analysisResponse is the result of analyzing one document.
type analysisResponse struct {
	Root        string                 `json:"root"`
	Collections *jsonerd.CollectionSet `json:"collections"`
	Relations   []jsonerd.Relation     `json:"relations"`
	Graph       jsonerd.Graph          `json:"graph"`
}

// stateResponse is a decoded share state together with its analysis.
type stateResponse struct {
	State    jsonerd.ShareState `json:"state"`
	Analysis analysisResponse   `json:"analysis"`
}

// shareRequest carries a share state. JSON is kept raw so that a missing
// member can be told apart from an explicit null.
type shareRequest struct {
	JSON       json.RawMessage `json:"json"`
	Collection string          `json:"collection"`
}

type shareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type snapshotResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func newAnalysisResponse(model *jsonerd.Model) analysisResponse {
	return analysisResponse{
		Root:        model.Root,
		Collections: model.Collections,
		Relations:   model.Relations,
		Graph:       internal.BuildGraph(model),
	}
}

// handleAnalyze handles POST /api/v1/analyze?collection=
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	if err := validateCollectionName(collection); err != nil {
		writeErdError(w, err)
		return
	}

	body, err := readBody(w, r, s.config.Server.MaxBodyBytes)
	if err != nil {
		writeErdError(w, err)
		return
	}

	model, err := s.analyzer.AnalyzeJSON(body, collection)
	if err != nil {
		writeErdError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, newAnalysisResponse(model))
}

// handleShareEncode handles POST /api/v1/share
func (s *Server) handleShareEncode(w http.ResponseWriter, r *http.Request) {
	state, err := s.readShareState(w, r)
	if err != nil {
		writeErdError(w, err)
		return
	}

	token, err := s.codec.Encode(state)
	if err != nil {
		writeErdError(w, err)
		return
	}

	link, err := s.codec.ShareURL(s.config.Share.BaseURL, state)
	if err != nil {
		writeErdError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, shareResponse{Token: token, URL: link})
}

// handleShareDecode handles GET /api/v1/share?data=<token>
func (s *Server) handleShareDecode(w http.ResponseWriter, r *http.Request) {
	param := s.config.Share.QueryParam
	token := r.URL.Query().Get(param)
	if token == "" {
		writeErdError(w, jsonerd.NewValidationError(jsonerd.ErrCodeTokenDecodeFailed, param, "share token is required"))
		return
	}

	state, err := s.codec.Decode(token)
	if err != nil {
		writeErdError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, s.describeState(state))
}

// handleJSONSchema handles POST /api/v1/jsonschema?collection=
func (s *Server) handleJSONSchema(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	if err := validateCollectionName(collection); err != nil {
		writeErdError(w, err)
		return
	}

	body, err := readBody(w, r, s.config.Server.MaxBodyBytes)
	if err != nil {
		writeErdError(w, err)
		return
	}

	model, err := s.analyzer.AnalyzeJSON(body, collection)
	if err != nil {
		writeErdError(w, err)
		return
	}

	schema, err := internal.ExportJSONSchema(model)
	if err != nil {
		writeErdError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, schema)
}

// handleSnapshotCreate handles POST /api/v1/snapshots
func (s *Server) handleSnapshotCreate(w http.ResponseWriter, r *http.Request) {
	state, err := s.readShareState(w, r)
	if err != nil {
		writeErdError(w, err)
		return
	}

	id, err := s.store.Save(r.Context(), state)
	if err != nil {
		writeErdError(w, err)
		return
	}

	zap.S().Infow("created snapshot", "id", id, "collection", state.Collection)
	writeSuccess(w, http.StatusCreated, snapshotResponse{ID: id, URL: "/api/v1/snapshots/" + id})
}

// handleSnapshotGet handles GET /api/v1/snapshots/{id}
func (s *Server) handleSnapshotGet(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErdError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, s.describeState(state))
}

// handleSnapshotDelete handles DELETE /api/v1/snapshots/{id}
func (s *Server) handleSnapshotDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErdError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		zap.S().Warnw("health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "snapshot store unavailable")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readShareState(w http.ResponseWriter, r *http.Request) (jsonerd.ShareState, error) {
	body, err := readBody(w, r, s.config.Server.MaxBodyBytes)
	if err != nil {
		return jsonerd.ShareState{}, err
	}

	var req shareRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return jsonerd.ShareState{}, jsonerd.NewInvalidJSONError(err.Error(), 0).WithCause(err)
	}
	if len(req.JSON) == 0 {
		return jsonerd.ShareState{}, jsonerd.NewValidationError(jsonerd.ErrCodeInvalidSharePayload, "json", "json is required")
	}
	if err := validateCollectionName(req.Collection); err != nil {
		return jsonerd.ShareState{}, err
	}

	doc, err := jsonerd.ParseValue(req.JSON)
	if err != nil {
		return jsonerd.ShareState{}, err
	}
	return jsonerd.ShareState{JSON: doc, Collection: req.Collection}, nil
}

func (s *Server) describeState(state jsonerd.ShareState) stateResponse {
	model := s.analyzer.Analyze(state.JSON, state.Collection)
	return stateResponse{State: state, Analysis: newAnalysisResponse(model)}
}
