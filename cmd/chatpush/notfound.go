package main

import (
	"html/template"
	"net/http"

	"chatpush/internal/service"

	"github.com/sirupsen/logrus"
)

var notFoundTemplate = template.Must(template.New("notfound").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>404 - Page not found</title>
</head>
<body>
<main>
<h1>404</h1>
<p>Page not found</p>
<a href="{{.Home}}">Return to Home</a>
</main>
</body>
</html>
`))

type notFoundPage struct {
	Home string
}

// handleNotFound renders the 404 page for every unknown route
func (s *Server) handleNotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.WithFields(logrus.Fields{
			service.LogFieldMethod: r.Method,
			service.LogFieldURL:    r.URL.Path,
		}).Warn("404 Error: User attempted to access non-existent route")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		if err := notFoundTemplate.Execute(w, notFoundPage{Home: "/"}); err != nil {
			s.logger.WithError(err).Error("Failed to render not found page")
		}
	}
}
