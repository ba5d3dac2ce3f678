package export

import (
	"fmt"
	"image/color"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/specdeck/pkg/model"
	"github.com/vanderheijden86/specdeck/pkg/vtree"
)

var typeColor = map[model.NodeType]color.RGBA{
	model.TypeEpic:      {0xbd, 0x93, 0xf9, 0xff},
	model.TypeFeature:   {0x8b, 0xe9, 0xfd, 0xff},
	model.TypeUserStory: {0x50, 0xfa, 0x7b, 0xff},
	model.TypeTask:      {0xf1, 0xfa, 0x8c, 0xff},
}

// SavePNGToFile rasterizes the fully expanded tree to a PNG file using
// the same layout as the SVG export.
func SavePNGToFile(s *model.Store, title, filename string) error {
	nodes := vtree.BuildNodes(s)
	rows := vtree.Flatten(nodes, allExpanded(nodes))

	width := svgMargin*2 + svgBoxWidth + 3*svgIndentStep
	height := svgMargin*2 + 40 + len(rows)*(svgRowHeight+svgRowGap)

	dc := gg.NewContext(width, height)
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetRGB255(0x28, 0x2a, 0x36)
	dc.Clear()

	dc.SetRGB255(0xf8, 0xf8, 0xf2)
	dc.DrawString(title, float64(svgMargin), float64(svgMargin+16))

	y := svgMargin + 40
	for _, row := range rows {
		x := svgMargin + row.Depth*svgIndentStep
		fill, ok := typeColor[row.Type]
		if !ok {
			fill = color.RGBA{0x62, 0x72, 0xa4, 0xff}
		}

		if row.Depth > 0 {
			px := float64(svgMargin + (row.Depth-1)*svgIndentStep + svgIndentStep/2)
			mid := float64(y + svgRowHeight/2)
			dc.SetRGB255(0x62, 0x72, 0xa4)
			dc.SetLineWidth(1)
			dc.DrawLine(px, float64(y-svgRowGap), px, mid)
			dc.DrawLine(px, mid, float64(x), mid)
			dc.Stroke()
		}

		dc.SetColor(fill)
		dc.DrawRoundedRectangle(float64(x), float64(y), svgBoxWidth, svgRowHeight, 4)
		dc.Fill()

		dc.SetRGB255(0x28, 0x2a, 0x36)
		dc.DrawString(truncateLabel(row.Label, 46), float64(x+10), float64(y+svgRowHeight/2+4))

		y += svgRowHeight + svgRowGap
	}

	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	return nil
}
