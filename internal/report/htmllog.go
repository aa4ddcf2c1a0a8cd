package report

import (
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/edf2cfs/internal/batch"
	"github.com/RyanBlaney/edf2cfs/internal/convert"
	"github.com/RyanBlaney/edf2cfs/pkg/montage"
	"github.com/spf13/afero"
)

// LogTimeLayout names log files after the time the batch started
const LogTimeLayout = "02-Jan-2006-1504"

var logTemplates = template.Must(template.New("log").Parse(`
{{- define "header" -}}
<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>EDF to CFS Log</title>
<meta name="description" content="Conversion Log">
</head>
<body>
<p>Logging Started at: {{.Started}}<br />
{{range .Roles}}{{.Name}} ({{.Description}}) Channel Label: {{.Label}}<br />
{{end}}</p><hr>
{{end}}

{{- define "file" -}}
<p>Filename: {{.Input}}<br />
{{range .Diagnostics}}{{.}}<br />
{{end}}{{if .Success}}Saved {{.Output}} ({{.Size}} bytes)<br />
Processed successfully.{{else}}Could not be converted.{{end}}</p><hr>
{{end}}

{{- define "footer" -}}
<p>{{.Processed}} Files processed in {{.Seconds}} seconds.<br />
{{.Succeeded}} Files converted successfully. {{.Failed}} Files could not be converted.<br />
{{- if .Cancelled}}
{{.Cancelled}} Files were not started.<br />{{end}}</p>
</body>
</html>
{{end}}
`))

type roleLine struct {
	Name        string
	Description string
	Label       string
}

// LogName is the file name of a log started at t
func LogName(t time.Time) string {
	return t.Format(LogTimeLayout) + "_log.html"
}

// LogDir picks the directory for the log: dir when set, otherwise the
// directory of the first input file.
func LogDir(dir, firstInput string) string {
	if dir != "" {
		return dir
	}
	if abs, err := filepath.Abs(firstInput); err == nil {
		return filepath.Dir(abs)
	}
	return filepath.Dir(firstInput)
}

// HTMLLog streams per-file diagnostics to an HTML document
type HTMLLog struct {
	path string
	file afero.File
}

// CreateHTMLLog creates the log in dir and writes its header
func CreateHTMLLog(fs afero.Fs, dir string, started time.Time, roles montage.RoleMap) (*HTMLLog, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, LogName(started))
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	lines := make([]roleLine, 0, len(montage.Roles))
	for _, role := range montage.Roles {
		lines = append(lines, roleLine{Name: role.String(), Description: role.Description(), Label: roles.Label(role)})
	}

	l := &HTMLLog{path: path, file: f}
	if err := logTemplates.ExecuteTemplate(f, "header", map[string]any{
		"Started": started.Format(LogTimeLayout),
		"Roles":   lines,
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}
	return l, nil
}

// Path returns the location of the log file
func (l *HTMLLog) Path() string {
	return l.path
}

// Record appends the section for one file
func (l *HTMLLog) Record(r *convert.FileResult) error {
	return logTemplates.ExecuteTemplate(l.file, "file", r)
}

// Close writes the totals and closes the file
func (l *HTMLLog) Close(s *batch.Summary) error {
	err := logTemplates.ExecuteTemplate(l.file, "footer", map[string]any{
		"Processed": s.Processed,
		"Seconds":   int(s.Elapsed.Seconds()),
		"Succeeded": s.Succeeded,
		"Failed":    s.Failed,
		"Cancelled": s.Cancelled(),
	})
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	return err
}
