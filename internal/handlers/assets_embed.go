package handlers

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// LoadTemplates parses the embedded HTML templates.
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.tmpl")
}

// StaticFS serves the embedded css/js under /static.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return sub
}
