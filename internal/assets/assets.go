// Package assets resolves still images referenced by scene elements.
package assets

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/ivlev/framereel/internal/analyzer"
)

// ErrMissing is returned when an asset file does not exist.
var ErrMissing = errors.New("asset not found")

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Resolver maps asset references to files under Dir and caches decoded
// images. It is safe for concurrent use.
type Resolver struct {
	Dir string

	group   singleflight.Group
	mu      sync.RWMutex
	images  map[string]image.Image
	missing map[string]bool
	focus   map[string]image.Point
}

// New creates a resolver rooted at dir.
func New(dir string) *Resolver {
	return &Resolver{
		Dir:     dir,
		images:  make(map[string]image.Image),
		missing: make(map[string]bool),
		focus:   make(map[string]image.Point),
	}
}

// Path returns the file a reference points to. Absolute references are used
// as is.
func (r *Resolver) Path(ref string) string {
	if filepath.IsAbs(ref) || r.Dir == "" {
		return filepath.Clean(ref)
	}
	return filepath.Join(r.Dir, filepath.FromSlash(ref))
}

// Exists reports whether ref names a regular file.
func (r *Resolver) Exists(ref string) bool {
	fi, err := os.Stat(r.Path(ref))
	return err == nil && !fi.IsDir()
}

// Image decodes ref once and returns the cached image afterwards. A missing
// file is logged the first time and reported as ErrMissing.
func (r *Resolver) Image(ref string) (image.Image, error) {
	r.mu.RLock()
	img, ok := r.images[ref]
	gone := r.missing[ref]
	r.mu.RUnlock()
	if ok {
		return img, nil
	}
	if gone {
		return nil, fmt.Errorf("%w: %s", ErrMissing, ref)
	}

	v, err, _ := r.group.Do(ref, func() (interface{}, error) {
		img, err := r.decode(ref)
		r.mu.Lock()
		defer r.mu.Unlock()
		switch {
		case err == nil:
			r.images[ref] = img
		case errors.Is(err, ErrMissing):
			if !r.missing[ref] {
				log.Warn().Str("asset", ref).Str("path", r.Path(ref)).Msg("asset missing, skipping")
			}
			r.missing[ref] = true
		}
		return img, err
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (r *Resolver) decode(ref string) (image.Image, error) {
	f, err := os.Open(r.Path(ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, ref)
		}
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	return img, nil
}

// Focus returns the point in ref's image bounds a crop should centre on, found
// with the contrast detector and cached per reference.
func (r *Resolver) Focus(ref string) (image.Point, error) {
	r.mu.RLock()
	p, ok := r.focus[ref]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}
	img, err := r.Image(ref)
	if err != nil {
		return image.Point{}, err
	}
	v, err, _ := r.group.Do("focus:"+ref, func() (interface{}, error) {
		blocks, err := analyzer.NewContrastDetector().Detect(img)
		if err != nil {
			return image.Point{}, err
		}
		p := analyzer.Focus(blocks, img.Bounds())
		log.Debug().Str("asset", ref).Int("blocks", len(blocks)).Int("x", p.X).Int("y", p.Y).Msg("focus point")
		r.mu.Lock()
		r.focus[ref] = p
		r.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return image.Point{}, err
	}
	return v.(image.Point), nil
}

// Dimensions reads only the image header.
func (r *Resolver) Dimensions(ref string) (width, height int, err error) {
	f, err := os.Open(r.Path(ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, 0, fmt.Errorf("%w: %s", ErrMissing, ref)
		}
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", ref, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Missing returns the references that do not resolve to a file, sorted and
// without duplicates.
func (r *Resolver) Missing(refs ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ref := range refs {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		if !r.Exists(ref) {
			out = append(out, ref)
		}
	}
	sort.Strings(out)
	return out
}

// List returns the image files in Dir (not recursive), sorted by name.
func (r *Resolver) List() ([]string, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return nil, err
	}
	var refs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			refs = append(refs, e.Name())
		}
	}
	sort.Strings(refs)
	return refs, nil
}
