package detection

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table renders detections as a text table, one row per detection in
// result order, numbered from 1.
func Table(detections []Detection) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Color", "Pixel", "Area", "Shape"})
	for i, d := range detections {
		t.AppendRow(table.Row{
			i + 1,
			d.Color,
			fmt.Sprintf("(%d, %d)", d.Centroid.X, d.Centroid.Y),
			fmt.Sprintf("%.1f", d.Area),
			d.Shape,
		})
	}
	return t.Render()
}
