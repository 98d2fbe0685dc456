package director

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const stampLayout = "2006-01-02_15-04-05"

// GenerateScenarioPath creates a timestamped scenario filename in dir.
func GenerateScenarioPath(dir, name string) string {
	return ScenarioPathAt(dir, name, time.Now())
}

// ScenarioPathAt is GenerateScenarioPath with an explicit time.
func ScenarioPathAt(dir, name string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.yaml", slug(name), at.Format(stampLayout)))
}

// slug lowercases name and turns every run of other characters into one dash.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "scenario"
	}
	return s
}

// FindLatestScenario returns the most recently modified .yaml, .yml or .cue
// file in dir. Ties go to the later name.
func FindLatestScenario(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read scenarios: %w", err)
	}

	var (
		best    string
		bestMod time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".cue":
		default:
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime()
		if best == "" || mod.After(bestMod) || (mod.Equal(bestMod) && entry.Name() > filepath.Base(best)) {
			best, bestMod = filepath.Join(dir, entry.Name()), mod
		}
	}
	if best == "" {
		return "", fmt.Errorf("no scenario files found in %s", dir)
	}
	return best, nil
}
