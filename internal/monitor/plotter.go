package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ooju-data/videosync/internal/motion"
)

// AlignmentPlotter records match sequences for visualization. Each run
// is recorded under a label, accumulating series that can be plotted
// after processing finishes.
type AlignmentPlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string

	// series holds per-run match sequences keyed by label.
	series map[string][]motion.FrameMatch
}

// NewAlignmentPlotter creates a plotter with no output directory; call
// Start before recording.
func NewAlignmentPlotter() *AlignmentPlotter {
	return &AlignmentPlotter{
		series: make(map[string][]motion.FrameMatch),
	}
}

// Start initializes the plotter for a new run.
// outputDir should be a timestamped directory (e.g., "plots/session-001/20260830_141500").
func (ap *AlignmentPlotter) Start(outputDir string) error {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	ap.outputDir = outputDir
	ap.enabled = true
	ap.series = make(map[string][]motion.FrameMatch)
	return nil
}

// Stop disables recording. Call GeneratePlots() to produce output files.
func (ap *AlignmentPlotter) Stop() {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	ap.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (ap *AlignmentPlotter) IsEnabled() bool {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return ap.enabled
}

// Record captures a match sequence under the given label. Matches
// recorded under the same label replace the earlier sequence.
func (ap *AlignmentPlotter) Record(label string, matches []motion.FrameMatch) {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	if !ap.enabled || len(matches) == 0 {
		return
	}
	ap.series[label] = matches
}

// SampleCount returns the total number of recorded matches.
func (ap *AlignmentPlotter) SampleCount() int {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	count := 0
	for _, matches := range ap.series {
		count += len(matches)
	}
	return count
}

// OutputDir returns the current output directory for plots.
func (ap *AlignmentPlotter) OutputDir() string {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return ap.outputDir
}

// GeneratePlots creates PNG files showing interpolation weights and
// bracket intervals over the frame sequence, one line per recorded run.
// Returns the number of plots generated and any error.
func (ap *AlignmentPlotter) GeneratePlots() (int, error) {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	if ap.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}

	if len(ap.series) == 0 {
		return 0, nil
	}

	pWeight := plot.New()
	pWeight.Title.Text = "Interpolation Weight"
	pWeight.X.Label.Text = "Frame"
	pWeight.Y.Label.Text = "Weight"
	pWeight.Y.Min = -0.05
	pWeight.Y.Max = 1.05

	pInterval := plot.New()
	pInterval.Title.Text = "Bracket Interval"
	pInterval.X.Label.Text = "Frame"
	pInterval.Y.Label.Text = "Interval (s)"

	// Sort labels for a consistent legend order
	var labels []string
	for label := range ap.series {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	colors := generateColors(len(labels))

	for i, label := range labels {
		matches := ap.series[label]

		weightPts := make(plotter.XYs, 0, len(matches))
		intervalPts := make(plotter.XYs, 0, len(matches))
		gapPts := make(plotter.XYs, 0)
		for frame, m := range matches {
			weightPts = append(weightPts, plotter.XY{X: float64(frame), Y: m.Weight})

			if m.Prev == nil || m.Next == nil {
				continue
			}
			interval := m.Next.Timestamp - m.Prev.Timestamp
			intervalPts = append(intervalPts, plotter.XY{X: float64(frame), Y: interval})
			if m.Gapped {
				gapPts = append(gapPts, plotter.XY{X: float64(frame), Y: interval})
			}
		}

		if len(weightPts) > 0 {
			weightLine, err := plotter.NewLine(weightPts)
			if err != nil {
				return 0, err
			}
			weightLine.Color = colors[i]
			weightLine.Width = vg.Points(1)
			pWeight.Add(weightLine)
			pWeight.Legend.Add(label, weightLine)
		}

		if len(intervalPts) > 0 {
			intervalLine, err := plotter.NewLine(intervalPts)
			if err != nil {
				return 0, err
			}
			intervalLine.Color = colors[i]
			intervalLine.Width = vg.Points(1)
			pInterval.Add(intervalLine)
			pInterval.Legend.Add(label, intervalLine)
		}

		// Mark gapped frames with scatter points on the interval plot
		if len(gapPts) > 0 {
			gapScatter, err := plotter.NewScatter(gapPts)
			if err != nil {
				return 0, err
			}
			gapScatter.Color = color.RGBA{R: 220, G: 60, B: 60, A: 255}
			gapScatter.Radius = vg.Points(2)
			pInterval.Add(gapScatter)
			pInterval.Legend.Add(label+" gaps", gapScatter)
		}
	}

	pWeight.Legend.Top = true
	pWeight.Legend.Left = false
	pWeight.Legend.XOffs = -10
	pWeight.Legend.YOffs = -10

	pInterval.Legend.Top = true
	pInterval.Legend.Left = false
	pInterval.Legend.XOffs = -10
	pInterval.Legend.YOffs = -10

	weightFile := filepath.Join(ap.outputDir, "weights.png")
	if err := pWeight.Save(14*vg.Inch, 6*vg.Inch, weightFile); err != nil {
		return 0, fmt.Errorf("save weight plot: %w", err)
	}

	intervalFile := filepath.Join(ap.outputDir, "intervals.png")
	if err := pInterval.Save(14*vg.Inch, 6*vg.Inch, intervalFile); err != nil {
		return 1, fmt.Errorf("save interval plot: %w", err)
	}

	return 2, nil
}

// generateColors creates a palette of distinct colors for run lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir creates a timestamped output directory path for
// plots: plots/<session_basename>/<timestamp>.
func MakePlotOutputDir(baseDir, sessionPath string) string {
	ts := FormatTimestamp(time.Now())
	if sessionPath != "" {
		return filepath.Join(baseDir, filepath.Base(filepath.Clean(sessionPath)), ts)
	}
	return filepath.Join(baseDir, "run_"+ts)
}
