package notify

import (
	"html"
	"io"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	subjectPrefix = "Subject:"
	wrapperOpen   = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`
	wrapperClose  = `</div>`
)

// Values are the placeholder substitutions for a notification template.
type Values struct {
	PostTitle   string
	AuthorName  string
	AuthorEmail string
	PreviewLink string
	ApproveLink string
	RejectLink  string
	AdminLink   string
}

type placeholder struct {
	text  string
	href  string
	label string
}

func (v Values) placeholders() map[string]placeholder {
	return map[string]placeholder{
		"post_title":   {text: v.PostTitle},
		"author_name":  {text: v.AuthorName},
		"author_email": {text: v.AuthorEmail},
		"preview_link": {href: v.PreviewLink, label: "Preview Post"},
		"approve_link": {href: v.ApproveLink, label: "Approve"},
		"reject_link":  {href: v.RejectLink, label: "Reject"},
		"admin_link":   {href: v.AdminLink, label: "Edit in Admin"},
	}
}

func (p placeholder) plain() string {
	if p.href != "" || p.label != "" {
		return p.label
	}
	return p.text
}

func (p placeholder) markup() string {
	if p.href != "" || p.label != "" {
		return `<a href="` + html.EscapeString(p.href) + `">` + p.label + `</a>`
	}
	return html.EscapeString(p.text)
}

// RenderTemplate splits tmpl into subject and body and substitutes values.
// A template whose first line starts with "Subject:" yields that line as the
// subject; otherwise the subject is empty and the whole template is the body.
// The subject receives plain text. The body receives escaped text and anchor
// tags, has newlines converted to <br />, and is wrapped in a container div.
func RenderTemplate(tmpl string, v Values) (subject, body string) {
	tmpl = strings.ReplaceAll(tmpl, "\r\n", "\n")
	body = tmpl
	if first, rest, ok := strings.Cut(tmpl, "\n"); ok && strings.HasPrefix(first, subjectPrefix) {
		subject = strings.TrimSpace(strings.TrimPrefix(first, subjectPrefix))
		body = strings.TrimLeft(rest, "\n")
	}

	ph := v.placeholders()
	subject = substitute(subject, ph, placeholder.plain)
	body = substitute(body, ph, placeholder.markup)

	return subject, wrap(body)
}

// wrap converts newlines to <br /> and adds the container div.
func wrap(body string) string {
	return wrapperOpen + strings.ReplaceAll(body, "\n", "<br />\n") + wrapperClose
}

// substitute replaces known {tags}; unknown tags and stray braces are kept verbatim.
func substitute(s string, ph map[string]placeholder, render func(placeholder) string) string {
	out, err := fasttemplate.ExecuteFuncStringWithErr(s, "{", "}", func(w io.Writer, tag string) (int, error) {
		prefix := "{"
		// "{ a {post_title}" reaches here as one tag; only the innermost part can be a placeholder
		if i := strings.LastIndex(tag, "{"); i >= 0 {
			prefix, tag = "{"+tag[:i+1], tag[i+1:]
		}
		if p, ok := ph[tag]; ok {
			return w.Write([]byte(prefix[:len(prefix)-1] + render(p)))
		}
		return w.Write([]byte(prefix + tag + "}"))
	})
	if err == nil {
		return out
	}
	// unbalanced braces: fall back to plain replacement
	pairs := make([]string, 0, 2*len(ph))
	for tag, p := range ph {
		pairs = append(pairs, "{"+tag+"}", render(p))
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
