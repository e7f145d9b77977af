package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"

	"github.com/ICE3BR/IA-Data-Analysis/internal/answer"
	"github.com/ICE3BR/IA-Data-Analysis/internal/logging"
	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

// idLen is how much of the content fingerprint is used as the dataset id.
const idLen = 16

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index", indexPage{})
}

// handleUpload parses the uploaded file and redirects to its dataset page.
// Identical uploads map to the same cached table.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.render(w, http.StatusRequestEntityTooLarge, "index", indexPage{Error: "File too large."})
			return
		}
		s.render(w, http.StatusBadRequest, "index", indexPage{Error: "Invalid upload form."})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.render(w, http.StatusBadRequest, "index", indexPage{Error: "No file provided."})
		return
	}
	defer file.Close()

	t, err := table.Read(header.Filename, file, table.Options{})
	if err != nil {
		logger.Warn("upload rejected", "file", header.Filename, "error", err)
		s.render(w, http.StatusBadRequest, "index", indexPage{Error: "Could not read the file: " + err.Error()})
		return
	}
	id := datasetID(t)
	s.tables.Set(id, t, cache.DefaultExpiration)
	logger.Info("dataset loaded", "id", id, "file", t.Name, "rows", t.Len(), "columns", len(t.Columns))
	http.Redirect(w, r, "/datasets/"+id, http.StatusSeeOther)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	id, t, ok := s.lookup(r)
	if !ok {
		s.render(w, http.StatusNotFound, "notfound", indexPage{Title: "Not found"})
		return
	}
	s.render(w, http.StatusOK, "dataset", s.newDatasetPage(id, t))
}

// handleAsk answers a prompt and renders the dataset page with the outcome.
// The prompt form stays on the page whatever happens.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id, t, ok := s.lookup(r)
	if !ok {
		s.render(w, http.StatusNotFound, "notfound", indexPage{Title: "Not found"})
		return
	}
	page := s.newDatasetPage(id, t)
	prompt := r.FormValue("prompt")
	page.Prompt = prompt
	if strings.TrimSpace(prompt) == "" {
		page.Warning = PromptWarning
		s.render(w, http.StatusOK, "dataset", page)
		return
	}

	resp, err := s.answerer.Answer(r.Context(), t, prompt)
	if err != nil {
		page.Error = viewError(err, t)
		s.render(w, http.StatusOK, "dataset", page)
		return
	}
	page.Result = viewResult(resp.Result)
	page.Diagnostics = resp.Diagnostics
	s.render(w, http.StatusOK, "dataset", page)
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

type askResponse struct {
	Kind        answer.Kind `json:"kind"`
	Text        string      `json:"text,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	Columns     []string    `json:"columns,omitempty"`
	Rows        [][]string  `json:"rows,omitempty"`
	Diagnostics string      `json:"diagnostics,omitempty"`
}

type askError struct {
	Error   string   `json:"error"`
	Columns []string `json:"columns"`
}

func (s *Server) handleAPIAsk(w http.ResponseWriter, r *http.Request) {
	_, t, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, PromptWarning)
		return
	}
	resp, err := s.answerer.Answer(r.Context(), t, req.Prompt)
	if err != nil {
		ev := viewError(err, t)
		writeJSONStatus(w, http.StatusUnprocessableEntity, askError{Error: ev.Message, Columns: ev.Columns})
		return
	}
	v := viewResult(resp.Result)
	writeJSON(w, askResponse{
		Kind:        v.Kind,
		Text:        v.Text,
		ImageURL:    v.ImageURL,
		Columns:     v.Columns,
		Rows:        v.Rows,
		Diagnostics: resp.Diagnostics,
	})
}

// handleChart serves a rendered chart by file name from the chart directory.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if name != filepath.Base(name) || !strings.HasSuffix(name, answer.ImageSuffix) || s.opts.ChartDir == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, filepath.Join(s.opts.ChartDir, name))
}

// lookup resolves the {id} route parameter and refreshes the entry's TTL.
func (s *Server) lookup(r *http.Request) (string, *table.Table, bool) {
	id := chi.URLParam(r, "id")
	v, ok := s.tables.Get(id)
	if !ok {
		return id, nil, false
	}
	t := v.(*table.Table)
	s.tables.Set(id, t, cache.DefaultExpiration)
	return id, t, true
}

func datasetID(t *table.Table) string {
	if len(t.Fingerprint) > idLen {
		return t.Fingerprint[:idLen]
	}
	return t.Fingerprint
}

func viewError(err error, t *table.Table) *errorView {
	var qe *answer.QueryError
	if errors.As(err, &qe) {
		return &errorView{Message: qe.Error(), Columns: qe.Columns}
	}
	return &errorView{Message: err.Error(), Columns: t.ColumnNames()}
}
