package scorm

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// MaxAPISearchDepth bounds the parent-frame walk of the runtime bridge.
const MaxAPISearchDepth = 10

//go:embed runtime/*.tmpl
var runtimeFS embed.FS

var (
	scriptTemplates = template.Must(template.ParseFS(runtimeFS,
		"runtime/scorm-bridge.js.tmpl",
		"runtime/player.js.tmpl",
		"runtime/styles.css.tmpl",
	))
	pageTemplate = htmltemplate.Must(htmltemplate.ParseFS(runtimeFS, "runtime/index.html.tmpl"))
)

// BuildBridge renders the runtime bridge script for dialect d.
func BuildBridge(d Dialect) (string, error) {
	lc, err := json.Marshal(d.Lifecycle())
	if err != nil {
		return "", fmt.Errorf("encode lifecycle: %w", err)
	}
	var buf bytes.Buffer
	err = scriptTemplates.ExecuteTemplate(&buf, "scorm-bridge.js.tmpl", struct {
		Lifecycle string
		MaxDepth  int
	}{string(lc), MaxAPISearchDepth})
	if err != nil {
		return "", fmt.Errorf("render bridge: %w", err)
	}
	return buf.String(), nil
}

// buildPlayer renders player.js with the settings of trigger t.
func buildPlayer(t Trigger) (string, error) {
	settings, err := json.Marshal(map[string]any{
		"trigger": t.Kind(),
		"options": t.Settings(),
	})
	if err != nil {
		return "", fmt.Errorf("encode player settings: %w", err)
	}
	var buf bytes.Buffer
	if err := scriptTemplates.ExecuteTemplate(&buf, "player.js.tmpl", struct{ Settings string }{string(settings)}); err != nil {
		return "", fmt.Errorf("render player: %w", err)
	}
	return buf.String(), nil
}
