package main

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const echoLogCapacity = 5

var errNoFeatureData = errors.New("analysis result carries no feature data")

// renderedBar is one row of the importance chart, derived per result
// and never cached across results.
type renderedBar struct {
	label         string
	importancePct float64
	widthPct      float64
}

// buildBars sorts features by importance and normalizes widths against
// the maximum, so the top bar always spans the full chart. An empty
// feature set is a precondition violation and fails explicitly.
func buildBars(features []featureImportance) ([]renderedBar, error) {
	if len(features) == 0 {
		return nil, errNoFeatureData
	}
	ordered := make([]featureImportance, len(features))
	copy(ordered, features)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Importance > ordered[j].Importance
	})
	top := ordered[0].Importance
	bars := make([]renderedBar, 0, len(ordered))
	for _, feat := range ordered {
		width := 0.0
		if top > 0 {
			width = feat.Importance / top * 100
		}
		bars = append(bars, renderedBar{
			label:         cleanFeatureName(feat.Name),
			importancePct: math.Round(feat.Importance*1000) / 10,
			widthPct:      width,
		})
	}
	return bars, nil
}

// cleanFeatureName turns wire feature names into display labels:
// underscores become spaces, the "avg daily " prefix and the literal
// "score" suffix carry no information on screen.
func cleanFeatureName(name string) string {
	clean := strings.ReplaceAll(name, "_", " ")
	clean = strings.TrimPrefix(clean, "avg daily ")
	clean = strings.ReplaceAll(clean, "score", "")
	return strings.TrimSpace(clean)
}

// riskClass maps a risk level to its visual class. The mapping is a
// closed three-way switch: anything unrecognized is shown as high
// severity on purpose.
func riskClass(level string) string {
	switch level {
	case "Low":
		return "text-low"
	case "Moderate":
		return "text-mod"
	default:
		return "text-high"
	}
}

func formatConfidence(confidence float64) string {
	return fmt.Sprintf("%.0f%%", confidence*100)
}

// formatEchoSummary renders one line from the positional input echo
// [screen, night, diversity, typing, sleep, social]. Echoes shorter
// than the fixed tuple are ignored.
func formatEchoSummary(echo []float64) (string, bool) {
	if len(echo) < 6 {
		return "", false
	}
	return fmt.Sprintf(
		"screen %.1fh · night %d%% · sleep %.2f",
		echo[0],
		int(math.Round(echo[1]*100)),
		echo[4],
	), true
}

// echoLog is the bounded rolling log of auto-mode input summaries,
// newest first.
type echoLog struct {
	entries []string
}

func (l *echoLog) push(summary string) {
	l.entries = append([]string{summary}, l.entries...)
	if len(l.entries) > echoLogCapacity {
		l.entries = l.entries[:echoLogCapacity]
	}
}

func (l *echoLog) clear() {
	l.entries = nil
}

// barCells converts a width percentage into filled cell count for a
// chart of the given total width.
func barCells(widthPct float64, width int) int {
	if width <= 0 {
		return 0
	}
	if widthPct < 0 {
		widthPct = 0
	}
	if widthPct > 100 {
		widthPct = 100
	}
	cells := int(widthPct / 100 * float64(width))
	if cells > width {
		cells = width
	}
	return cells
}
