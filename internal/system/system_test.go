package system

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImagePool(t *testing.T) {
	p := NewImagePool()
	img := p.Get(image.Rect(0, 0, 4, 2))
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	assert.Len(t, img.Pix, 4*2*4)
	p.Put(img)

	other := p.Get(image.Rect(0, 0, 3, 3))
	assert.Equal(t, image.Rect(0, 0, 3, 3), other.Bounds())

	p.Put(image.NewRGBA(image.Rect(0, 0, 7, 7)))
	p.Put(nil)
	assert.Len(t, p.pools, 2)
}

func TestWorkers(t *testing.T) {
	frame := 1920 * 1080 * 4

	assert.Equal(t, 8, Resources{CPUs: 8}.Workers(frame))
	assert.Equal(t, 8, Resources{CPUs: 8, Available: 16 << 30}.Workers(frame))
	// 400 MiB available: 100 MiB budget, ~24 MiB per worker.
	assert.Equal(t, 4, Resources{CPUs: 8, Available: 400 << 20}.Workers(frame))
	assert.Equal(t, 1, Resources{CPUs: 8, Available: 1 << 20}.Workers(frame))
	assert.Equal(t, 1, Resources{}.Workers(frame))
}

func TestPickH264Encoder(t *testing.T) {
	out := `Encoders:
 V..... = Video
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 V....D h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
`
	assert.Equal(t, "h264_nvenc", PickH264Encoder(out))
	assert.Equal(t, "libx264", PickH264Encoder(" A....D aac  AAC\n"))
	assert.Equal(t, "libx264", PickH264Encoder(""))
}
