package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/validation"
)

const reloadScript = `<script>(function(){` +
	`var proto=location.protocol==="https:"?"wss://":"ws://";` +
	`function connect(){var ws=new WebSocket(proto+location.host+"` + ReloadPath + `");` +
	`ws.onmessage=function(e){var m=JSON.parse(e.data);if(m.type==="reload"||m.type==="build_failed"){location.reload();}};` +
	`ws.onclose=function(){setTimeout(connect,1000);};}` +
	`connect();})();</script>`

type healthResponse struct {
	Status   string `json:"status"`
	BuildID  string `json:"build_id,omitempty"`
	Failures int    `json:"failures"`
	Clients  int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	buildID, failures := s.state()
	resp := healthResponse{
		Status:   "ok",
		BuildID:  buildID,
		Failures: len(failures),
	}
	if len(failures) > 0 {
		resp.Status = "failing"
	}
	if s.hub != nil {
		resp.Clients = s.hub.ClientCount()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode health response")
	}
}

// handleStatic serves files from the output root. Directories resolve to
// their index.html and extension-less paths such as /page2 to the matching
// .html file, mirroring the URLs the generator emits.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if rel == "" {
		rel = "index.html"
	}

	file, err := validation.WithinRoot(s.opts.Root, rel)
	if err != nil {
		s.logger.Warn(r.Context(), err, "Rejected request path", "path", r.URL.Path)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	file, ok := resolveFile(file)
	if !ok {
		s.notFound(w, r)
		return
	}

	if strings.EqualFold(filepath.Ext(file), ".html") {
		s.serveHTML(w, r, file, http.StatusOK)
		return
	}
	http.ServeFile(w, r, file)
}

func resolveFile(file string) (string, bool) {
	info, err := os.Stat(file)
	if err == nil && info.IsDir() {
		file = filepath.Join(file, "index.html")
		info, err = os.Stat(file)
	}
	if err != nil && filepath.Ext(file) == "" {
		file += ".html"
		info, err = os.Stat(file)
	}
	if err != nil || info.IsDir() {
		return "", false
	}
	return file, true
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	custom := filepath.Join(s.opts.Root, "404.html")
	if _, err := os.Stat(custom); err == nil {
		s.serveHTML(w, r, custom, http.StatusNotFound)
		return
	}
	if _, failures := s.state(); len(failures) > 0 {
		s.writeHTML(w, r, []byte("<!DOCTYPE html><html><body></body></html>"), http.StatusNotFound)
		return
	}
	http.NotFound(w, r)
}

func (s *Server) serveHTML(w http.ResponseWriter, r *http.Request, file string, status int) {
	data, err := os.ReadFile(file)
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to read page", "file", file)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeHTML(w, r, data, status)
}

func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, data []byte, status int) {
	var inject strings.Builder
	if _, failures := s.state(); len(failures) > 0 {
		inject.WriteString(errors.ErrorOverlay(failures))
	}
	if s.hub != nil {
		inject.WriteString(reloadScript)
	}
	if inject.Len() > 0 {
		data = InjectBeforeBodyEnd(data, inject.String())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		s.logger.Debug(r.Context(), "Failed to write response", "error", err.Error())
	}
}

// InjectBeforeBodyEnd inserts snippet before the last </body> tag, or
// appends it when the document has none.
func InjectBeforeBodyEnd(page []byte, snippet string) []byte {
	idx := lastIndexFold(page, "</body>")
	if idx < 0 {
		return append(append([]byte{}, page...), snippet...)
	}
	out := make([]byte, 0, len(page)+len(snippet))
	out = append(out, page[:idx]...)
	out = append(out, snippet...)
	out = append(out, page[idx:]...)
	return out
}

func lastIndexFold(s []byte, sep string) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		if bytes.EqualFold(s[i:i+len(sep)], []byte(sep)) {
			return i
		}
	}
	return -1
}
