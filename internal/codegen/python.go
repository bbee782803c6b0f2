// Package codegen generates scripts that redraw a drill with external
// plotting frameworks.
package codegen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/geo"
	"github.com/courtlab/drillboard/pkg/core"
)

// DefaultCourtTitle is the title passed to the court constructor.
const DefaultCourtTitle = "Exported Drill"

// DefaultOutput is the image the generated script saves.
const DefaultOutput = "drill.png"

var nonWord = regexp.MustCompile(`\W`)

// PythonOptions allows overriding the header and output of the script.
type PythonOptions struct {
	Title  string
	Output string
}

// GeneratePython generates a court_framework script for the document.
// Entities come first, then relations, each in draw order. The output only
// depends on the document state.
func GeneratePython(doc *document.Document, frame geo.Frame, opts PythonOptions) string {
	if opts.Title == "" {
		opts.Title = DefaultCourtTitle
	}
	if opts.Output == "" {
		opts.Output = DefaultOutput
	}

	var sb strings.Builder
	sb.WriteString("from court_framework import VolleyballCourt\n\n")
	sb.WriteString("def draw_custom_drill():\n")
	sb.WriteString(fmt.Sprintf("    court = VolleyballCourt(%s)\n\n", quote(opts.Title)))

	vars := make(map[string]string)
	for _, e := range doc.Entities() {
		line, ok := entityLine(e, frame)
		if !ok {
			continue
		}
		name := varName(e)
		vars[e.ID] = name
		sb.WriteString(fmt.Sprintf("    %s = %s\n", name, line))
	}

	sb.WriteString("\n")
	for _, r := range doc.Relations() {
		from, okFrom := vars[r.FromID]
		to, okTo := vars[r.ToID]
		if !okFrom || !okTo {
			sb.WriteString(fmt.Sprintf("    # arrow %s skipped: missing endpoint\n", r.ID))
			continue
		}
		sb.WriteString(fmt.Sprintf("    court.add_arrow(%s, %s, curved=%s, rad=%s, no=%s, line_color=%s, color=%s, style='%s')\n",
			from, to,
			pyBool(r.Curvature != 0),
			strconv.FormatFloat(r.Curvature, 'f', -1, 64),
			pyLabel(r.Label),
			quote(r.LineColor),
			quote(r.LabelColor),
			r.StrokeStyle.Token(),
		))
	}

	sb.WriteString(fmt.Sprintf("\n    court.save(%s)", quote(opts.Output)))
	return sb.String()
}

func entityLine(e core.Entity, frame geo.Frame) (string, bool) {
	m := frame.ToMeters(e.Position)
	xy := fmt.Sprintf("%.2f, %.2f", geo.Round2(m.X), geo.Round2(m.Y))
	switch e.Kind {
	case core.KindPlayer:
		return fmt.Sprintf("court.add_player(%s, %s)", quote(e.Name), xy), true
	case core.KindTarget:
		return fmt.Sprintf(`court.add_target("T", %s)`, xy), true
	case core.KindCone:
		return fmt.Sprintf(`court.add_cone("C", %s)`, xy), true
	case core.KindPoint:
		return fmt.Sprintf(`court.add_point("C", %s)`, xy), true
	case core.KindText:
		return fmt.Sprintf("court.add_text(%s, %s)", quote(e.Name), xy), true
	case core.KindBall:
		return fmt.Sprintf("court.add_ball(%s)", xy), true
	}
	return "", false
}

// varName builds <kind>_<id> with every non-word character stripped.
func varName(e core.Entity) string {
	return string(e.Kind) + "_" + nonWord.ReplaceAllString(e.ID, "")
}

func quote(s string) string {
	return strconv.Quote(s)
}

func pyLabel(s string) string {
	if s == "" {
		return "None"
	}
	return quote(s)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
