package qsub

import (
	"embed"
	"io"
	"strings"
	"text/template"
)

//go:embed script.tmpl
var templates embed.FS

var scriptTemplate = template.Must(template.ParseFS(templates, "script.tmpl"))

// ScriptSuffix is appended to the job ID to name the script file.
const ScriptSuffix = ".pbs"

type scriptData struct {
	Command string
}

// ScriptName returns the on-disk name of the job script for jobID. The name
// is never prefixed, unlike JobName.
func ScriptName(jobID string) string {
	return jobID + ScriptSuffix
}

// NormalizeCommand appends a trailing newline unless command already ends
// with one. An empty command becomes a lone newline.
func NormalizeCommand(command string) string {
	if strings.HasSuffix(command, "\n") {
		return command
	}
	return command + "\n"
}

// RenderScript writes the job script for command to w: the fixed PBS
// header, a blank line, then the newline-terminated command verbatim.
func RenderScript(w io.Writer, command string) error {
	return scriptTemplate.Execute(w, scriptData{Command: NormalizeCommand(command)})
}
