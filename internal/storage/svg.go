package storage

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
)

var trackColours = []string{"#ffd75f", "#7fd4ff", "#ff9f6b", "#9fff7f", "#d78fff", "#ff6b9f", "#6bffd7", "#ffffff"}

// WriteSVG draws the tracks of data as a top-down ecliptic plot with equal
// axis scales. Each body gets a path and a dot at its last sample.
func WriteSVG(w io.Writer, data *ExportData, size int) error {
	if size <= 0 {
		size = 800
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, t := range data.Tracks {
		for _, s := range t.Samples {
			p := s.State.Pos
			if math.IsNaN(p.X) || math.IsNaN(p.Y) {
				continue
			}
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 0) {
		return fmt.Errorf("storage: run %s has no samples to draw", data.Meta.ID)
	}

	span := math.Max(maxX-minX, maxY-minY) * 1.1
	if span == 0 {
		span = 1
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	scale := float64(size) / span
	px := func(x, y float64) (float64, float64) {
		return float64(size)/2 + (x-cx)*scale, float64(size)/2 - (y-cy)*scale
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a14"/>
`, size, size, size, size)
	fmt.Fprintf(bw, "<text x=\"8\" y=\"18\" fill=\"#888899\" font-family=\"monospace\" font-size=\"12\">%s  %s  %.1f d</text>\n",
		data.Meta.Catalog, data.Meta.Epoch, data.Meta.Duration/86400)

	for i, t := range data.Tracks {
		if len(t.Samples) == 0 {
			continue
		}
		colour := trackColours[i%len(trackColours)]

		if len(t.Samples) > 1 {
			fmt.Fprintf(bw, `<path fill="none" stroke="%s" stroke-width="1" stroke-opacity="0.7" d="`, colour)
			for j, s := range t.Samples {
				x, y := px(s.State.Pos.X, s.State.Pos.Y)
				if j == 0 {
					fmt.Fprintf(bw, "M%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(bw, " L%.1f,%.1f", x, y)
				}
			}
			bw.WriteString("\"/>\n")
		}

		last := t.Samples[len(t.Samples)-1].State.Pos
		x, y := px(last.X, last.Y)
		fmt.Fprintf(bw, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n", x, y, colour)
		fmt.Fprintf(bw, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\" font-family=\"monospace\" font-size=\"11\">%s</text>\n", x+5, y-5, colour, t.Body)
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// ExportSVGFile draws a stored run to path.
func (s *Store) ExportSVGFile(path, runID string, size int) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSVG(file, data, size); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
