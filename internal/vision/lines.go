package vision

import (
	"math"
	"sort"
	"strings"

	visionapi "google.golang.org/api/vision/v1"
)

type word struct {
	text    string
	x       int64
	centerY float64
	height  float64
}

type line struct {
	centerY float64
	words   []word
}

// ReconstructLines rebuilds reading-order lines from word annotations. The
// first annotation carries the whole text block and is skipped. A word joins
// a line when its vertical centre lies within half the median word height of
// the line's centre.
func ReconstructLines(annotations []*visionapi.EntityAnnotation) []string {
	if len(annotations) < 2 {
		return nil
	}
	words := make([]word, 0, len(annotations)-1)
	for _, a := range annotations[1:] {
		if a == nil || a.BoundingPoly == nil || len(a.BoundingPoly.Vertices) == 0 {
			continue
		}
		if t := strings.TrimSpace(a.Description); t != "" {
			words = append(words, toWord(t, a.BoundingPoly.Vertices))
		}
	}
	if len(words) == 0 {
		return nil
	}

	tolerance := medianHeight(words) / 2
	sort.SliceStable(words, func(i, j int) bool { return words[i].centerY < words[j].centerY })

	var lines []*line
	for _, w := range words {
		var cur *line
		if n := len(lines); n > 0 {
			cur = lines[n-1]
		}
		if cur != nil && math.Abs(w.centerY-cur.centerY) <= tolerance {
			cur.words = append(cur.words, w)
			cur.centerY += (w.centerY - cur.centerY) / float64(len(cur.words))
			continue
		}
		lines = append(lines, &line{centerY: w.centerY, words: []word{w}})
	}

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		sort.SliceStable(l.words, func(i, j int) bool { return l.words[i].x < l.words[j].x })
		parts := make([]string, len(l.words))
		for i, w := range l.words {
			parts[i] = w.text
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out
}

func toWord(text string, vs []*visionapi.Vertex) word {
	var minX, minY, maxY int64
	seen := false
	for _, v := range vs {
		if v == nil {
			continue
		}
		if !seen {
			minX, minY, maxY, seen = v.X, v.Y, v.Y, true
			continue
		}
		minX = min(minX, v.X)
		minY = min(minY, v.Y)
		maxY = max(maxY, v.Y)
	}
	return word{
		text:    text,
		x:       minX,
		centerY: float64(minY+maxY) / 2,
		height:  float64(maxY - minY),
	}
}

func medianHeight(words []word) float64 {
	hs := make([]float64, len(words))
	for i, w := range words {
		hs[i] = w.height
	}
	sort.Float64s(hs)
	m := hs[len(hs)/2]
	if len(hs)%2 == 0 {
		m = (hs[len(hs)/2-1] + hs[len(hs)/2]) / 2
	}
	if m <= 0 {
		m = 1
	}
	return m
}
