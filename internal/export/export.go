// Package export renders fields to CSV and SVG for offline inspection.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/reactsim/reactsim/internal/grid"
)

// FieldCSV writes one row per cell: i, j, x, y, u, v.
func FieldCSV(w io.Writer, f grid.Field, g grid.Grid) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"i", "j", "x", "y", "u", "v"}); err != nil {
		return err
	}

	for i := 0; i < f.N; i++ {
		for j := 0; j < f.N; j++ {
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(j),
				strconv.FormatFloat(g.Coord(i), 'f', 6, 64),
				strconv.FormatFloat(g.Coord(j), 'f', 6, 64),
				strconv.FormatFloat(f.U(i, j), 'g', 12, 64),
				strconv.FormatFloat(f.V(i, j), 'g', 12, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	return cw.Error()
}

// HeatmapSVG renders one component of the field as a grid of colored
// cells, blue at the minimum through red at the maximum.
func HeatmapSVG(f grid.Field, component int, cellSize int) string {
	if f.N == 0 {
		return ""
	}
	if cellSize <= 0 {
		cellSize = 12
	}

	value := f.U
	if component == 1 {
		value = f.V
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < f.N; i++ {
		for j := 0; j < f.N; j++ {
			v := value(i, j)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	size := f.N * cellSize

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size))

	for i := 0; i < f.N; i++ {
		for j := 0; j < f.N; j++ {
			frac := (value(i, j) - lo) / span
			// SVG y grows downward; put j=0 at the bottom.
			px := i * cellSize
			py := (f.N - 1 - j) * cellSize
			sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>
`, px, py, cellSize, cellSize, heatColor(frac)))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// heatColor maps [0,1] onto a blue-to-red ramp through purple.
func heatColor(frac float64) string {
	frac = math.Max(0, math.Min(1, frac))
	r := int(255 * frac)
	b := int(255 * (1 - frac))
	g := int(64 * (1 - math.Abs(2*frac-1)))
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
