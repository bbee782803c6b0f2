package path

import (
	"strconv"
	"strings"

	"github.com/courtlab/drillboard/pkg/core"
)

// String renders the path as SVG path data. The arrowhead is a separate
// sub-path: "M tip L h1 M tip L h2".
func (pa Path) String() string {
	var sb strings.Builder
	writeCmd(&sb, "M", pa.Start)
	if pa.Degenerate {
		return sb.String()
	}

	switch pa.Style {
	case core.PathWavy, core.PathLightning:
		for _, pt := range pa.Body {
			sb.WriteByte(' ')
			writeCmd(&sb, "L", pt)
		}
	default:
		sb.WriteString(" Q ")
		writePoint(&sb, pa.Control)
		sb.WriteByte(' ')
		writePoint(&sb, pa.End)
	}

	for _, h := range pa.Head {
		sb.WriteByte(' ')
		writeCmd(&sb, "M", pa.End)
		sb.WriteByte(' ')
		writeCmd(&sb, "L", h)
	}
	return sb.String()
}

func writeCmd(sb *strings.Builder, cmd string, p core.Position2D) {
	sb.WriteString(cmd)
	sb.WriteByte(' ')
	writePoint(sb, p)
}

func writePoint(sb *strings.Builder, p core.Position2D) {
	sb.WriteString(formatNum(p.X))
	sb.WriteByte(' ')
	sb.WriteString(formatNum(p.Y))
}

func formatNum(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
