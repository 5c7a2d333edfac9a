package source

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bandradar/bandradar/internal/core"
)

const famousID = "famous"

//go:embed famous_artists.yaml
var famousArtistsYAML []byte

type famousEntry struct {
	Name   string   `yaml:"name"`
	Artist string   `yaml:"artist"`
	Genres []string `yaml:"genres"`
}

type famousList struct {
	Artists []famousEntry `yaml:"artists"`
	Songs   []famousEntry `yaml:"songs"`
}

// Famous matches names against the embedded well-known artist and song
// list. Constant time, no network, reliability 1.0: a hit here is
// definitive and short-circuits live catalog calls entirely.
type Famous struct {
	bands map[string]famousEntry
	songs map[string]famousEntry
}

// NewFamous parses the embedded list. The list ships with the binary,
// so a parse failure is a build defect.
func NewFamous() (*Famous, error) {
	var list famousList
	if err := yaml.Unmarshal(famousArtistsYAML, &list); err != nil {
		return nil, fmt.Errorf("parse famous artist list: %w", err)
	}

	f := &Famous{
		bands: make(map[string]famousEntry, len(list.Artists)),
		songs: make(map[string]famousEntry, len(list.Songs)),
	}
	for _, entry := range list.Artists {
		f.bands[core.NormalizeName(entry.Name)] = entry
	}
	for _, entry := range list.Songs {
		f.songs[core.NormalizeName(entry.Name)] = entry
	}
	return f, nil
}

// ID returns the source identifier.
func (f *Famous) ID() string {
	return famousID
}

// Reliability returns the static evidence weight.
func (f *Famous) Reliability() float64 {
	return 1.0
}

// Lookup reports whether the name is on the famous list for its type.
func (f *Famous) Lookup(name string, nameType core.NameType) (core.PlatformMatch, bool) {
	table := f.bands
	if nameType == core.NameTypeSong {
		table = f.songs
	}

	entry, ok := table[core.NormalizeName(name)]
	if !ok {
		return core.PlatformMatch{}, false
	}

	return core.PlatformMatch{
		Name:               entry.Name,
		Artist:             entry.Artist,
		Popularity:         100,
		Genres:             entry.Genres,
		Similarity:         1,
		PhoneticSimilarity: 1,
		IsExactMatch:       true,
		MatchType:          core.MatchExact,
		SourceID:           famousID,
	}, true
}

// Verify implements Adapter for the famous list.
func (f *Famous) Verify(ctx context.Context, name string, nameType core.NameType) (*core.PlatformEvidence, error) {
	started := time.Now().UTC()

	evidence := &core.PlatformEvidence{
		SourceID:      famousID,
		Available:     true,
		Reliability:   1.0,
		SearchQuality: 1.0,
	}

	if match, ok := f.Lookup(name, nameType); ok {
		evidence.Available = false
		evidence.Matches = []core.PlatformMatch{match}
		evidence.ExactMatches = []core.PlatformMatch{match}
		evidence.TotalResults = 1
	}

	evidence.ResponseTimeMs = time.Since(started).Milliseconds()
	return evidence, nil
}
