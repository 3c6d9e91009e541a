package render

import (
	"fmt"
	"strings"

	"github.com/issuelens/backend/internal/record"
)

// Renderer formats records and hit lists as markdown-flavored text
// blocks. It never touches the store and never reorders its input: the
// incoming hit order IS the relevance ranking.
type Renderer struct {
	linkBase string
}

func New(linkBase string) *Renderer {
	return &Renderer{linkBase: linkBase}
}

// Reference formats the reference record header line.
func (r *Renderer) Reference(rec *record.Record) string {
	if rec == nil {
		return ""
	}

	subject := rec.Subject()
	if subject == "" {
		subject = "No Subject"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Subject**: %s  \n", subject)
	fmt.Fprintf(&b, "**ID**: %s  \n", rec.ID)
	fmt.Fprintf(&b, "**Link**: %s", r.Permalink(rec.ID))
	if status := rec.Text("status"); status != "" {
		fmt.Fprintf(&b, "  \n**Status**: %s", status)
	}
	return b.String()
}

// ExtraField names a hit field appended to each rendered block under
// a display label.
type ExtraField struct {
	Name  string
	Label string
}

// Hits formats one block per hit, in input order: rank, id, status,
// score, subject and permalink. Hits whose id is in highlight get an
// elevated heading so confirmed-related results stand out. Present
// extra fields are appended to each block in the given order.
func (r *Renderer) Hits(hits []record.Hit, extraFields []ExtraField, highlight map[string]struct{}) string {
	if len(hits) == 0 {
		return "No similar records found.\n"
	}

	var b strings.Builder
	for i, hit := range hits {
		_, related := highlight[record.NormalizeID(hit.ID)]

		subject := extractText(hit, "subject")
		if subject == "" {
			subject = "No Subject"
		}

		status := ""
		if s := extractText(hit, "status"); s != "" {
			status = ", Status=" + s
		}

		if related {
			fmt.Fprintf(&b, "### ✔ %d) ID: %s%s, Score=%g\n", i+1, hit.ID, status, hit.Score)
		} else {
			fmt.Fprintf(&b, "%d) ID: %s%s, Score=%g\n", i+1, hit.ID, status, hit.Score)
		}
		fmt.Fprintf(&b, "Subject: %s\n", subject)
		fmt.Fprintf(&b, "Link: %s\n", r.Permalink(hit.ID))

		for _, extra := range extraFields {
			value := extractText(hit, extra.Name)
			if value == "" {
				continue
			}
			label := extra.Label
			if label == "" {
				label = extra.Name
			}
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}

		b.WriteString("\n")
	}

	return b.String()
}

// Permalink builds the external tracker URL for an identifier.
func (r *Renderer) Permalink(id string) string {
	return r.linkBase + id
}

func extractText(hit record.Hit, field string) string {
	rec := record.Record{ID: hit.ID, Source: hit.Source}
	return rec.Text(field)
}
