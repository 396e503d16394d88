package textmetrics

import (
	"fmt"
	"hash/fnv"
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// widthCacheShards keeps lock contention low when several renders measure
// concurrently. Writes are idempotent (equal keys produce equal widths),
// so last-writer-wins is safe.
const widthCacheShards = 16

type widthShard struct {
	mu sync.RWMutex
	m  map[widthKey]float64
}

type widthKey struct {
	text string
	size float64
}

// TrueType measures text with exact glyph advances from a parsed font.
// Create one with [LoadTrueType] or [NewTrueType]; the zero value is not
// usable. A TrueType provider is safe for concurrent use.
type TrueType struct {
	font    *truetype.Font
	name    string
	version string
	shards  [widthCacheShards]*widthShard

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewTrueType wraps an already-parsed font. The name is used only for
// Version reporting.
func NewTrueType(f *truetype.Font, name string) *TrueType {
	t := &TrueType{
		font:    f,
		name:    name,
		version: fmt.Sprintf("truetype/%s", name),
		faces:   make(map[float64]font.Face),
	}
	for i := range t.shards {
		t.shards[i] = &widthShard{m: make(map[widthKey]float64)}
	}
	return t
}

// LoadTrueType locates fontName with go-findfont, reads and parses it.
// Pass a family file name such as "DejaVuSans.ttf" or "Arial.ttf".
func LoadTrueType(fontName string) (*TrueType, error) {
	path, err := findfont.Find(fontName)
	if err != nil {
		return nil, fmt.Errorf("locate font %q: %w", fontName, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %q: %w", path, err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", path, err)
	}
	return NewTrueType(f, fontName), nil
}

// Width returns the advance of a single line of text, caching per
// (text, size). The cache is sharded by an FNV hash of the text.
func (t *TrueType) Width(text string, size float64) float64 {
	if text == "" {
		return 0
	}
	key := widthKey{text, size}
	shard := t.shards[shardFor(text)]

	shard.mu.RLock()
	w, ok := shard.m[key]
	shard.mu.RUnlock()
	if ok {
		return w
	}

	w = t.measure(text, size)
	shard.mu.Lock()
	shard.m[key] = w
	shard.mu.Unlock()
	return w
}

func (t *TrueType) measure(text string, size float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	face := t.face(size)
	var adv fixed.Int26_6
	prev := rune(-1)
	for _, r := range text {
		if prev >= 0 {
			adv += face.Kern(prev, r)
		}
		a, ok := face.GlyphAdvance(r)
		if !ok {
			// Missing glyph: fall back to the space glyph's advance.
			a, _ = face.GlyphAdvance(' ')
		}
		adv += a
		prev = r
	}
	return float64(adv) / 64
}

// LineHeight returns the face's full line metric at the given size.
func (t *TrueType) LineHeight(size float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.face(size).Metrics()
	return float64(m.Height) / 64
}

// Version identifies the font backing this provider.
func (t *TrueType) Version() string { return t.version }

// face returns a cached font.Face for the size. Faces are not safe for
// concurrent glyph queries, so callers must hold t.mu for the duration
// of any measurement against the returned face.
func (t *TrueType) face(size float64) font.Face {
	if f, ok := t.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(t.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	t.faces[size] = f
	return f
}

func shardFor(text string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	return h.Sum32() % widthCacheShards
}
