package identify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/hbollon/go-edlib"
	ptn "github.com/razsteinmetz/go-ptn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"skipintro/internal/logging"
)

// ErrNoMetadata reports that neither player metadata nor the file name
// identified an episode.
var ErrNoMetadata = errors.New("no episode metadata")

// Episode identifies one episode of a show.
type Episode struct {
	Title   string
	Season  int
	Episode int
}

// Label renders the episode as "Title S01E02".
func (e Episode) Label() string {
	return fmt.Sprintf("%s S%02dE%02d", e.Title, e.Season, e.Episode)
}

// Valid reports whether every field is set.
func (e Episode) Valid() bool {
	return strings.TrimSpace(e.Title) != "" && e.Season >= 0 && e.Episode > 0
}

// TitleLister returns the show titles already known to the store.
type TitleLister interface {
	Titles(ctx context.Context) ([]string, error)
}

// Identifier resolves episodes and canonicalizes their titles.
type Identifier struct {
	titles    TitleLister
	threshold float64
	logger    *slog.Logger
}

// New builds an Identifier. titles may be nil, which disables
// canonicalization. threshold is the minimum Jaro-Winkler similarity.
func New(titles TitleLister, threshold float64, logger *slog.Logger) *Identifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Identifier{titles: titles, threshold: threshold, logger: logger}
}

// Identify returns the playing episode from metadata tags or file.
func (i *Identifier) Identify(ctx context.Context, file string, tags map[string]string) (Episode, error) {
	ep, how := FromMetadata(tags), "metadata"
	if !ep.Valid() {
		var ok bool
		ep, ok = ParseFilename(file)
		if !ok {
			return Episode{}, fmt.Errorf("identify %q: %w", filepath.Base(file), ErrNoMetadata)
		}
		how = "filename"
	}

	if i.titles != nil && i.threshold > 0 {
		known, err := i.titles.Titles(ctx)
		if err != nil {
			logging.WarnWithContext(i.logger, "show titles unavailable; using parsed title",
				"title_lookup",
				logging.String(logging.FieldErrorHint, "check the database path"),
				logging.Error(err),
			)
		} else if match, score, ok := Canonicalize(ep.Title, known, i.threshold); ok && match != ep.Title {
			logging.Decision(i.logger, "show title canonicalized", "title_match", "matched", "similar stored title",
				logging.String("parsed", ep.Title),
				logging.String("stored", match),
				logging.Float64("score", score),
			)
			ep.Title = match
		}
	}

	i.logger.DebugContext(ctx, "episode identified",
		logging.String(logging.FieldEpisodeLabel, ep.Label()),
		logging.String("method", how),
	)
	return ep, nil
}

// FromMetadata reads show, season and episode tags, matching keys without
// regard to case. The zero Episode is returned when any field is missing.
func FromMetadata(tags map[string]string) Episode {
	if len(tags) == 0 {
		return Episode{}
	}
	lookup := func(keys ...string) string {
		for k, v := range tags {
			for _, want := range keys {
				if strings.EqualFold(k, want) {
					if v = strings.TrimSpace(v); v != "" {
						return v
					}
				}
			}
		}
		return ""
	}
	title := lookup("show", "tvshowtitle", "series")
	season, errS := strconv.Atoi(lookup("season", "season_number"))
	episode, errE := strconv.Atoi(lookup("episode", "episode_id", "episode_sort"))
	if title == "" || errS != nil || errE != nil {
		return Episode{}
	}
	return Episode{Title: title, Season: season, Episode: episode}
}

var episodePattern = regexp.MustCompile(`(?i)^(.*?)(?:s(\d{1,2})e(\d{1,2})|(\d{1,2})x(\d{1,2}))`)

// ParseFilename extracts an episode from the base name of path.
func ParseFilename(path string) (Episode, bool) {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return Episode{}, false
	}
	if info, err := ptn.Parse(base); err == nil && info != nil && info.Episode > 0 {
		if title := cleanTitle(info.Title); title != "" {
			return Episode{Title: title, Season: info.Season, Episode: info.Episode}, true
		}
	}

	m := episodePattern.FindStringSubmatch(base)
	if m == nil {
		return Episode{}, false
	}
	title := cleanTitle(m[1])
	if title == "" {
		return Episode{}, false
	}
	season, episode := m[2], m[3]
	if season == "" {
		season, episode = m[4], m[5]
	}
	s, _ := strconv.Atoi(season)
	e, _ := strconv.Atoi(episode)
	return Episode{Title: title, Season: s, Episode: e}, e > 0
}

// cleanTitle turns separators into spaces and collapses whitespace.
func cleanTitle(raw string) string {
	raw = strings.NewReplacer(".", " ", "_", " ").Replace(raw)
	raw = strings.Trim(strings.Join(strings.Fields(raw), " "), " -")
	return raw
}

// Canonicalize returns the known title most similar to title when its
// Jaro-Winkler similarity reaches threshold. Titles compare in title case.
func Canonicalize(title string, known []string, threshold float64) (string, float64, bool) {
	caser := cases.Title(language.Und)
	normalized := caser.String(cleanTitle(title))
	best, bestScore := "", 0.0
	for _, candidate := range known {
		if candidate == title {
			return candidate, 1, true
		}
		score := float64(edlib.JaroWinklerSimilarity(normalized, caser.String(cleanTitle(candidate))))
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if best == "" || bestScore < threshold {
		return "", bestScore, false
	}
	return best, bestScore, true
}
