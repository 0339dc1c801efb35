package prompts

import (
	_ "embed"
	"text/template"
)

//go:embed comment_user.tmpl
var commentUserSource string

var commentUser = template.Must(template.New("comment_user").Parse(commentUserSource))
