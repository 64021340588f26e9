// Package nowplaying reads the currently playing song title from files kept
// up to date by external players.
package nowplaying

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Known source identifiers.
const (
	SourceFB2K    = "fb2k"
	SourceYouTube = "youtube"
)

var sourceLabels = map[string]string{
	SourceFB2K:    "FB2K",
	SourceYouTube: "YouTube",
}

// Source selects between player title files and reads the active one on
// demand. The file is re-read per request so song changes show up without
// restarts.
type Source struct {
	mu      sync.Mutex
	current string
	paths   map[string]string
}

func New(fb2kPath, youtubePath string) *Source {
	return &Source{
		current: SourceFB2K,
		paths: map[string]string{
			SourceFB2K:    fb2kPath,
			SourceYouTube: youtubePath,
		},
	}
}

// SetSource switches the active player. Unknown names are rejected.
func (s *Source) SetSource(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := sourceLabels[name]; !ok {
		return fmt.Errorf("unknown music source %q", name)
	}
	s.mu.Lock()
	s.current = name
	s.mu.Unlock()
	return nil
}

// Label returns the display name of the active source.
func (s *Source) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sourceLabels[s.current]
}

// Current reads the active source's title file.
func (s *Source) Current() (string, error) {
	s.mu.Lock()
	path := s.paths[s.current]
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read title file: %w", err)
	}
	title := strings.TrimSpace(string(data))
	if title == "" {
		return "", fmt.Errorf("title file %s is empty", path)
	}
	return title, nil
}
