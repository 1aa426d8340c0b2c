// Package pages renders the server-side HTML views as templ components.
package pages

import (
	"context"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"
)

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("02 Jan 2006")
	},
	"day": func(t time.Time) string { return t.Format("02 Jan 2006") },
}

const baseLayout = `{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} | CampusStay</title>
<link rel="stylesheet" href="/static/app.css">
</head>
<body>
<nav class="topbar">
  <a href="/" class="brand">CampusStay</a>
  {{if .UserEmail}}<span class="user">{{.UserEmail}}</span>
  <form method="post" action="/auth/logout" class="inline"><button type="submit">Log out</button></form>{{end}}
</nav>
{{if .Breadcrumbs}}<ol class="breadcrumbs">{{range .Breadcrumbs}}<li>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</li>{{end}}</ol>{{end}}
{{range .Flashes}}<div class="flash flash-{{.Level}}">{{.Message}}</div>{{end}}
<main>{{template "content" .}}</main>
</body>
</html>{{end}}`

var base = template.Must(template.New("layout").Funcs(funcs).Parse(baseLayout))

// layoutPage clones the base layout and adds the page's "content" block
func layoutPage(content string) *template.Template {
	t := template.Must(base.Clone())
	return template.Must(t.New("content").Parse(content))
}

// standalonePage is a page that does not use the base layout
func standalonePage(name, body string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(body))
}

func component(t *template.Template, name string, data interface{}) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, name, data)
	})
}
