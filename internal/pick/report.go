package pick

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ironsheep/pickplace/internal/detection"
	"github.com/ironsheep/pickplace/internal/workspace"
)

// Outcome is one issued move.
type Outcome struct {
	Detection detection.Detection `json:"detection"`
	Pose      workspace.Pose      `json:"pose"`
	Response  string              `json:"response"` // raw controller reply
}

// Report describes what a Run did.
type Report struct {
	// Detection is the full detection pass the run acted on.
	Detection detection.Result `json:"detection"`

	// NothingFound is set when detection returned no objects; the robot was
	// not contacted.
	NothingFound bool `json:"nothing_found"`

	EnableResponse string `json:"enable_response,omitempty"`
	ClearResponse  string `json:"clear_response,omitempty"`

	// Moves holds one entry per move that got a reply, in visiting order.
	Moves []Outcome `json:"moves"`
}

// Table renders the moves as a text table, one row per move. The replies
// to EnableRobot and ClearError are printed below it.
func (r *Report) Table() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Color", "Shape", "Pixel", "Robot pose", "Response"})
	for i, m := range r.Moves {
		t.AppendRow(table.Row{
			i + 1,
			m.Detection.Color,
			m.Detection.Shape,
			fmt.Sprintf("(%d, %d)", m.Detection.Centroid.X, m.Detection.Centroid.Y),
			m.Pose.String(),
			strings.TrimSpace(m.Response),
		})
	}
	if r.EnableResponse != "" || r.ClearResponse != "" {
		t.SetCaption("EnableRobot() -> %s\nClearError()  -> %s",
			strings.TrimSpace(r.EnableResponse), strings.TrimSpace(r.ClearResponse))
	}
	return t.Render()
}
