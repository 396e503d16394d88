// Package textmetrics measures label text for the layout engine.
//
// The engine never touches fonts directly; it receives a [Provider] and
// asks it for line widths and heights. Two providers ship with the
// package:
//
//   - [TrueType] measures exact glyph advances from a system font located
//     with go-findfont and parsed with freetype. Results are cached per
//     provider in a sharded store that is safe for concurrent renders.
//   - [Approx] is the fast path used when the fastText flag is set: a
//     per-character width table tuned against common sans-serif metrics.
//
// Both providers are deterministic for a fixed font file. Layout output is
// keyed on the provider's [Provider.Version] so fingerprints change when
// the underlying font does.
package textmetrics

import (
	"math"
	"strings"
)

// Provider measures text for size resolution.
//
// Width returns the advance width of a single line at the given size in
// pixels. LineHeight returns the vertical extent of one line including
// leading. Version identifies the metric source (font file, table
// revision) and participates in layout fingerprints.
type Provider interface {
	Width(text string, size float64) float64
	LineHeight(size float64) float64
	Version() string
}

// Measure splits text on newlines and returns the block extent using p.
// Widths are rounded up to whole pixels so downstream arithmetic stays
// integral.
func Measure(p Provider, text string, size float64) (w, h float64) {
	if text == "" {
		return 0, 0
	}
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		w = math.Max(w, math.Ceil(p.Width(line, size)))
	}
	h = math.Ceil(p.LineHeight(size)) * float64(len(lines))
	return w, h
}

// Approx is the character-class approximation provider. It needs no font
// files, which makes it the right default for CI pipelines and tests.
type Approx struct{}

// approxNarrow and approxWide hold characters that deviate notably from
// the average advance in common UI fonts.
const (
	approxNarrow = "iIl1j.,:;'|!tf()[]{} "
	approxWide   = "mwMW@%"
)

// Width returns an approximate advance: 0.30em for narrow characters,
// 0.85em for wide ones, 0.58em otherwise. Multi-byte runes count as wide.
func (Approx) Width(text string, size float64) float64 {
	var em float64
	for _, r := range text {
		switch {
		case strings.ContainsRune(approxNarrow, r):
			em += 0.30
		case strings.ContainsRune(approxWide, r) || r > 0x2000:
			em += 0.85
		default:
			em += 0.58
		}
	}
	return em * size
}

// LineHeight returns 1.35em, the line box the reference renderer assumes
// for single-line labels.
func (Approx) LineHeight(size float64) float64 { return size * 1.35 }

// Version identifies the approximation table revision.
func (Approx) Version() string { return "approx/1" }
