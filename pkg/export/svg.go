package export

import (
	"fmt"
	"io"
	"os"

	svg "github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/specdeck/pkg/model"
	"github.com/vanderheijden86/specdeck/pkg/vtree"
)

// Row geometry for the rendered diagram. These are drawing units, not
// tied to the viewport row height used by the TUI.
const (
	svgRowHeight  = 34
	svgRowGap     = 6
	svgIndentStep = 28
	svgBoxWidth   = 360
	svgMargin     = 20
)

var typeFill = map[model.NodeType]string{
	model.TypeEpic:      "#bd93f9",
	model.TypeFeature:   "#8be9fd",
	model.TypeUserStory: "#50fa7b",
	model.TypeTask:      "#f1fa8c",
}

// WriteSVG renders the fully expanded tree as an indented box diagram.
func WriteSVG(w io.Writer, s *model.Store, title string) error {
	nodes := vtree.BuildNodes(s)
	rows := vtree.Flatten(nodes, allExpanded(nodes))

	width := svgMargin*2 + svgBoxWidth + 3*svgIndentStep
	height := svgMargin*2 + 40 + len(rows)*(svgRowHeight+svgRowGap)

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#282a36")
	canvas.Text(svgMargin, svgMargin+16, title, "fill:#f8f8f2;font-size:18px;font-family:sans-serif;font-weight:bold")

	y := svgMargin + 40
	for _, row := range rows {
		x := svgMargin + row.Depth*svgIndentStep
		fill, ok := typeFill[row.Type]
		if !ok {
			fill = "#6272a4"
		}
		canvas.Rect(x, y, svgBoxWidth, svgRowHeight,
			fmt.Sprintf("fill:%s;rx:4;stroke:#44475a;stroke-width:1", fill))
		canvas.Text(x+10, y+svgRowHeight/2+5, truncateLabel(row.Label, 46),
			"fill:#282a36;font-size:13px;font-family:sans-serif")
		if row.Depth > 0 {
			// Elbow connector back to the parent's indent column.
			px := svgMargin + (row.Depth-1)*svgIndentStep + svgIndentStep/2
			canvas.Line(px, y-svgRowGap, px, y+svgRowHeight/2, "stroke:#6272a4;stroke-width:1")
			canvas.Line(px, y+svgRowHeight/2, x, y+svgRowHeight/2, "stroke:#6272a4;stroke-width:1")
		}
		y += svgRowHeight + svgRowGap
	}

	canvas.End()
	return nil
}

// SaveSVGToFile renders the diagram directly to a file.
func SaveSVGToFile(s *model.Store, title, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create svg file: %w", err)
	}
	defer f.Close()
	return WriteSVG(f, s, title)
}

// allExpanded builds an expansion set covering every non-leaf node so
// exports always show the complete tree.
func allExpanded(nodes []*vtree.Node) map[string]bool {
	expanded := make(map[string]bool)
	var walk func(ns []*vtree.Node)
	walk = func(ns []*vtree.Node) {
		for _, n := range ns {
			if len(n.Children) > 0 {
				expanded[n.ID] = true
				walk(n.Children)
			}
		}
	}
	walk(nodes)
	return expanded
}

// truncateLabel shortens by display width so multibyte titles never get
// cut mid-rune.
func truncateLabel(label string, max int) string {
	return runewidth.Truncate(label, max, "...")
}
