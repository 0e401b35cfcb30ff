package util

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"path"
)

//go:embed templates/*.html
var templatesFS embed.FS

// RenderBytes renders a page template inside the layout and returns the body,
// so callers that cache the output can do so before writing it.
func RenderBytes(name string, data any) ([]byte, error) {
	t, err := template.ParseFS(templatesFS,
		path.Join("templates", "layout.html"),
		path.Join("templates", "_post_list.html"),
		path.Join("templates", name))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Render(w http.ResponseWriter, name string, data any) {
	b, err := RenderBytes(name, data)
	if err != nil {
		http.Error(w, "template: "+err.Error(), http.StatusInternalServerError)
		return
	}
	WriteHTML(w, b)
}

func WriteHTML(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(b)
}
