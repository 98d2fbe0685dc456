package system

import (
	"image"
	"sync"
)

// ImagePool recycles frame buffers so long renders do not churn the garbage
// collector. Buffers are pooled per size. Images handed out may hold pixels
// from an earlier frame.
type ImagePool struct {
	mu    sync.RWMutex
	pools map[image.Point]*sync.Pool
}

// NewImagePool creates an empty pool.
func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Point]*sync.Pool)}
}

var frames = NewImagePool()

// GetImage takes a buffer of the given size from the shared pool.
func GetImage(rect image.Rectangle) *image.RGBA {
	return frames.Get(rect)
}

// PutImage returns a buffer to the shared pool.
func PutImage(img *image.RGBA) {
	frames.Put(img)
}

// Get returns a buffer covering rect.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	pool := p.pool(rect.Size())
	img := pool.Get().(*image.RGBA)
	img.Rect = rect
	return img
}

func (p *ImagePool) pool(size image.Point) *sync.Pool {
	p.mu.RLock()
	pool, ok := p.pools[size]
	p.mu.RUnlock()
	if ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok = p.pools[size]; ok {
		return pool
	}
	pool = &sync.Pool{
		New: func() interface{} {
			return image.NewRGBA(image.Rectangle{Max: size})
		},
	}
	p.pools[size] = pool
	return pool
}

// Put recycles img. Images of a size the pool never handed out are dropped.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, ok := p.pools[img.Rect.Size()]
	p.mu.RUnlock()
	if ok {
		pool.Put(img)
	}
}
