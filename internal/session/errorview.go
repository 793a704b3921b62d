// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"bytes"
	"html/template"
)

var errorViewTemplate = template.Must(template.New("error").Parse(`<div class="pandoc-live-error">
  <h2>Error Rendering Document</h2>
  <pre>{{.}}</pre>
</div>`))

// ErrorView renders message as an HTML fragment shown in place of the
// document when rendering fails. The message is escaped.
func ErrorView(message string) string {
	var b bytes.Buffer
	// Executing a parsed template into a buffer only fails on a template bug.
	_ = errorViewTemplate.Execute(&b, message)
	return b.String()
}
