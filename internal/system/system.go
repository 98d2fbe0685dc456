// Package system probes the host: worker sizing, file limits and the ffmpeg
// toolchain.
package system

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open file limit to 2048 (or the hard limit).
func InitResourceLimits() {
	var rl syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rl); err != nil {
		log.Warn().Err(err).Msg("could not read open file limit")
		return
	}
	want := uint64(2048)
	if want > rl.Max {
		want = rl.Max
	}
	if rl.Cur >= want {
		return
	}
	rl.Cur = want
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rl); err != nil {
		log.Warn().Err(err).Msg("could not raise open file limit")
		return
	}
	log.Debug().Uint64("limit", rl.Cur).Msg("open file limit raised")
}

// Resources is a snapshot of what the host can give a render.
type Resources struct {
	CPUs      int
	Available uint64 // bytes of memory available
}

// Probe reads the logical CPU count and available memory. Values that cannot
// be read fall back to runtime.NumCPU and zero (unknown).
func Probe() Resources {
	r := Resources{CPUs: runtime.NumCPU()}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		r.CPUs = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		r.Available = vm.Available
	}
	return r
}

// framesPerWorker is how many buffers one worker can hold at once: the frame
// it draws plus its share of the reorder window.
const framesPerWorker = 3

// Workers sizes the pool: one worker per CPU unless a quarter of available
// memory cannot hold their frame buffers.
func (r Resources) Workers(frameBytes int) int {
	n := r.CPUs
	if n < 1 {
		n = 1
	}
	if r.Available > 0 && frameBytes > 0 {
		fit := int(r.Available / 4 / uint64(frameBytes*framesPerWorker))
		if fit < n {
			n = fit
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// RecommendedWorkers sizes a worker pool for width x height RGBA frames.
func RecommendedWorkers(width, height int) int {
	return Probe().Workers(width * height * 4)
}

// h264Preference lists hardware encoders first, libx264 last.
var h264Preference = []string{"h264_videotoolbox", "h264_nvenc", "h264_qsv", "libx264"}

// PickH264Encoder chooses the best encoder named in `ffmpeg -encoders`
// output.
func PickH264Encoder(encoders string) string {
	available := make(map[string]bool)
	sc := bufio.NewScanner(strings.NewReader(encoders))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		// " V....D libx264  libx264 H.264 / AVC ..."
		if len(fields) >= 2 && len(fields[0]) == 6 {
			available[fields[1]] = true
		}
	}
	for _, name := range h264Preference {
		if available[name] {
			return name
		}
	}
	return "libx264"
}

// BestH264Encoder asks ffmpeg which encoders it was built with.
func BestH264Encoder(ctx context.Context, ffmpeg string) string {
	out, err := exec.CommandContext(ctx, ffmpeg, "-hide_banner", "-encoders").Output()
	if err != nil {
		log.Warn().Err(err).Str("ffmpeg", ffmpeg).Msg("could not list encoders, using libx264")
		return "libx264"
	}
	return PickH264Encoder(string(out))
}

// MediaDuration returns the length of a media file in seconds using ffprobe.
func MediaDuration(ctx context.Context, ffprobe, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return d, nil
}
