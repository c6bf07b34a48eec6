// Label coverage statistics for a mask
package metrics

import (
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"
)

// LabelStats holds how many pixels carry each label id
type LabelStats struct {
	Counts []int
	Total  int
}

// Coverage returns the fraction of pixels (0..1) carrying label
func (s LabelStats) Coverage(label int) float64 {
	if s.Total == 0 || label < 0 || label >= len(s.Counts) {
		return 0
	}
	return float64(s.Counts[label]) / float64(s.Total)
}

// String summarizes the non-background labels, e.g. "1: 12.5%, 2: 0.3%"
func (s LabelStats) String() string {
	parts := make([]string, 0, len(s.Counts))
	for label := 1; label < len(s.Counts); label++ {
		parts = append(parts, fmt.Sprintf("%d: %.1f%%", label, 100*s.Coverage(label)))
	}
	return strings.Join(parts, ", ")
}

// Calculate counts the pixels of each label 0..labelCount-1 in labels.
func Calculate(labels *image.Gray, labelCount int) (LabelStats, error) {
	b := labels.Bounds()
	stats := LabelStats{Counts: make([]int, labelCount), Total: b.Dx() * b.Dy()}
	if stats.Total == 0 {
		return stats, nil
	}

	pix := labels.Pix
	if labels.Stride != b.Dx() {
		pix = make([]byte, 0, stats.Total)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			pix = append(pix, labels.Pix[labels.PixOffset(b.Min.X, y):labels.PixOffset(b.Max.X, y)]...)
		}
	}

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return stats, fmt.Errorf("label stats: %w", err)
	}
	defer mat.Close()

	selected := gocv.NewMat()
	defer selected.Close()
	for label := 0; label < labelCount; label++ {
		v := float64(label)
		if err := gocv.InRangeWithScalar(mat, gocv.NewScalar(v, 0, 0, 0), gocv.NewScalar(v, 0, 0, 0), &selected); err != nil {
			return stats, fmt.Errorf("label stats: select label %d: %w", label, err)
		}
		stats.Counts[label] = gocv.CountNonZero(selected)
	}
	return stats, nil
}
