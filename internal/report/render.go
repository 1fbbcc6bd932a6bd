package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/ibeckermayer/redditpersona/internal/types"
)

// TimestampFormat is how GeneratedAt appears in rendered reports
const TimestampFormat = "2006-01-02 15:04 UTC"

const permalinkHost = "https://reddit.com"

// Renderer turns Reports into HTML pages
type Renderer struct {
	raw      bool
	template *template.Template
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRawHTML interpolates user text verbatim instead of escaping it.
// Only for reproducing legacy output; hostile comments can inject markup.
func WithRawHTML(raw bool) RendererOption {
	return func(r *Renderer) {
		r.raw = raw
	}
}

// NewRenderer creates a new report renderer
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}

	tmpl, err := template.New("persona").Funcs(template.FuncMap{
		"user": r.userText,
		"link": r.permalink,
	}).Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	r.template = tmpl
	return r, nil
}

// ReportData is the template data structure
type ReportData struct {
	Username    string
	Generated   string
	Year        int
	Locations   string
	Tone        types.Tone
	Sentiment   int
	Communities []types.CommunityCount
	Complaints  []types.Excerpt
	Samples     []types.Excerpt
}

func newReportData(r types.Report) ReportData {
	locations := "Not found"
	if len(r.Locations) > 0 {
		locations = strings.Join(r.Locations, ", ")
	}
	return ReportData{
		Username:    r.Username,
		Generated:   r.GeneratedAt.UTC().Format(TimestampFormat),
		Year:        r.GeneratedAt.UTC().Year(),
		Locations:   locations,
		Tone:        r.Tone,
		Sentiment:   r.Signals.Sentiment,
		Communities: r.Signals.Communities,
		Complaints:  r.Complaints,
		Samples:     r.Samples,
	}
}

// Render produces the HTML page for r. The same Report always renders to the
// same bytes.
func (r *Renderer) Render(rep types.Report) (string, error) {
	var buf bytes.Buffer
	if err := r.template.Execute(&buf, newReportData(rep)); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// PlainText renders a short text summary of r, used as the plain part of
// notification emails.
func PlainText(rep types.Report) string {
	data := newReportData(rep)

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Reddit persona for u/%s\nGenerated %s\n\n", data.Username, data.Generated))
	buf.WriteString(fmt.Sprintf("Location clues: %s\n", data.Locations))
	buf.WriteString(fmt.Sprintf("Overall tone: %s (sentiment %d)\n", data.Tone, data.Sentiment))

	if len(data.Communities) > 0 {
		names := make([]string, len(data.Communities))
		for i, c := range data.Communities {
			names[i] = "r/" + c.Name
		}
		buf.WriteString(fmt.Sprintf("Most active in: %s\n", strings.Join(names, ", ")))
	}

	if len(data.Complaints) > 0 {
		buf.WriteString("\nComplaints:\n")
		for i, c := range data.Complaints {
			buf.WriteString(fmt.Sprintf("%d. %s\n   %s%s\n", i+1, c.Text, permalinkHost, c.Permalink))
		}
	}

	return buf.String()
}

// userText marks user-supplied text as safe when raw output is requested.
func (r *Renderer) userText(s string) any {
	if r.raw {
		return template.HTML(s)
	}
	return s
}

func (r *Renderer) permalink(path string) any {
	if r.raw {
		return template.URL(permalinkHost + path)
	}
	return permalinkHost + path
}

const defaultTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Reddit Persona - u/{{.Username}}</title>
    <style>
        body {
            font-family: 'Segoe UI', sans-serif;
            max-width: 900px;
            margin: 40px auto;
            padding: 20px;
            line-height: 1.6;
            background: #fff8f3;
            color: #333;
            border: 2px solid #ef8a42;
            border-radius: 16px;
        }
        h1, h2 {
            color: #d35400;
            border-bottom: 2px solid #ef8a42;
            padding-bottom: 4px;
        }
        .persona-section { margin-bottom: 32px; }
        blockquote {
            margin: 8px 0;
            padding-left: 12px;
            border-left: 4px solid #ef8a42;
            color: #555;
        }
        a { color: #e67e22; }
    </style>
</head>
<body>
    <h1>👤 Reddit User Persona: u/{{user .Username}}</h1>
    <p><strong>Generated:</strong> {{.Generated}}</p>

    <div class="persona-section">
        <h2>🧾 Basic Info</h2>
        <p><strong>Username:</strong> u/{{user .Username}}</p>
        <p><strong>Location clues:</strong> {{user .Locations}}</p>
        <p><strong>Overall tone:</strong> {{.Tone}}</p>
    </div>

    <div class="persona-section">
        <h2>🧠 Personality Snapshot</h2>
        <p>Sentiment Score: {{.Sentiment}}</p>
        <p>Most active subreddits:</p>
        <ul>
            {{range .Communities}}<li>r/{{user .Name}}</li>{{end}}
        </ul>
    </div>

    <div class="persona-section">
        <h2>😤 Complaints / Rants</h2>
        {{range .Complaints}}<blockquote>{{user .Text}}<br><a href="{{link .Permalink}}">View</a></blockquote>
        {{end}}
    </div>

    <div class="persona-section">
        <h2>🔗 Sample Comments</h2>
        {{range .Samples}}<blockquote>{{user .Text}}<br><a href="{{link .Permalink}}">View</a></blockquote>
        {{end}}
    </div>

    <footer style="text-align:center; margin-top:40px; font-size: 0.9em;">
        <p>Reddit persona builder • {{.Year}}</p>
    </footer>
</body>
</html>
`
