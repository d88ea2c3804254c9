package simviewer

import (
	"fmt"
	"io"
)

func yn(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// ReportSettings prints the current state of the viewer.
func (v *Viewer) ReportSettings(w io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	t := v.registry.Toggles()
	c := v.registry.Counts()
	sc := v.scene

	fmt.Fprintln(w, "------------- SimViewer's current status: -------------")
	fmt.Fprintf(w, "garbage collect.: %-6t \ttickCounter            : %d\n", v.garbageCollecting, v.registry.Tick())
	fmt.Fprintf(w, "scene lights    : %-6s \tlights intensity       : %.2f\n", v.lights.State(), v.lights.Intensity())
	fmt.Fprintf(w, "scene offset    : %v,%v,%v microns\n", sc.Offset.X(), sc.Offset.Y(), sc.Offset.Z())
	fmt.Fprintf(w, "scene size      : %v,%v,%v microns\n", sc.Size.X(), sc.Size.Y(), sc.Size.Z())
	fmt.Fprintf(w, "visibility      : 'g' 'G'\t'g' mode   (cell debug): %t\n", t.CellDebug)
	fmt.Fprintf(w, "         points :  %s   %s \t'G' mode (global debug): %t\n", yn(t.Points.OwnedVisible), yn(t.Points.GeneralVisible), t.GeneralDebug)
	fmt.Fprintf(w, "         lines  :  %s   %s \tvector elongation      : %vx\n", yn(t.Lines.OwnedVisible), yn(t.Lines.GeneralVisible), v.registry.VectorStretch())
	fmt.Fprintf(w, "         vectors:  %s   %s \tfront faces culling    : %t\n", yn(t.Vectors.OwnedVisible), yn(t.Vectors.GeneralVisible), v.palette.Culling() == CullFront)
	fmt.Fprintf(w, "number of points: %d\t  lines: %d\t  vectors: %d\n", c.Points, c.Lines, c.Vectors)
}
