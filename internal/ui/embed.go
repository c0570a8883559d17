package ui

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

// DistFS returns the embedded dist/ filesystem with the "dist" prefix stripped.
func DistFS() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}

// GateURLs returns the bundled gate reference links keyed by gate identifier.
func GateURLs() (map[string]string, error) {
	data, err := distFS.ReadFile("dist/gate_urls.json")
	if err != nil {
		return nil, err
	}
	var urls map[string]string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("parse gate_urls.json: %w", err)
	}
	return urls, nil
}

// Handler serves the embedded front end. Existing files, gate_urls.json
// included, are served directly; extensionless paths are page routes and get
// index.html; anything else with an extension is a missing asset (404).
func Handler() (http.Handler, error) {
	sub, err := DistFS()
	if err != nil {
		return nil, err
	}
	files := http.FileServerFS(sub)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method "+r.Method+" Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" || isFile(sub, name) {
			files.ServeHTTP(w, r)
			return
		}
		if path.Ext(name) != "" {
			http.NotFound(w, r)
			return
		}

		page := r.Clone(r.Context())
		page.URL.Path = "/"
		files.ServeHTTP(w, page)
	}), nil
}

func isFile(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && !info.IsDir()
}
