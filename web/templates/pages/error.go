package pages

import (
	"github.com/a-h/templ"

	"campusstay_echo/web/templates/shared"
)

type ErrorPageProps struct {
	shared.Layout
	ErrorTitle   string
	ErrorMessage string
	BackLink     string
	BackText     string
}

var errorTmpl = layoutPage(`<section class="error">
<h1>{{.ErrorTitle}}</h1>
<p>{{.ErrorMessage}}</p>
{{if .BackLink}}<a href="{{.BackLink}}">{{.BackText}}</a>{{else}}<a href="/">Back to home</a>{{end}}
</section>`)

var publicErrorTmpl = standalonePage("public_error", `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><title>{{.ErrorTitle}} | CampusStay</title></head>
<body class="public"><section class="error">
<h1>{{.ErrorTitle}}</h1>
<p>{{.ErrorMessage}}</p>
<a href="/login">Go to login</a>
</section></body></html>`)

// ErrorPage renders an error inside the signed-in layout
func ErrorPage(props ErrorPageProps) templ.Component {
	return component(errorTmpl, "base", props)
}

// PublicErrorPage renders an error without navigation for signed-out visitors
func PublicErrorPage(props ErrorPageProps) templ.Component {
	return component(publicErrorTmpl, "public_error", props)
}
