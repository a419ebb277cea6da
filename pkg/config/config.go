package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/autobrr/feedbot/pkg/apperrors"
	"github.com/autobrr/feedbot/pkg/logger"
	"github.com/autobrr/feedbot/pkg/stringutils"
)

// Configuration is the decoded configuration tree. It is loaded once at
// startup and is immutable for the life of the process.
type Configuration struct {
	Feeds         []FeedSpec          `koanf:"feeds"`
	QBittorrent   ClientAuth          `koanf:"qbittorrent"`
	Notifications NotificationsConfig `koanf:"notifications"`
	HTTP          HTTPConfig          `koanf:"http"`
	Metrics       MetricsConfig       `koanf:"metrics"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// LoggingConfig controls the process-wide logger (pkg/logger). The zero
// value logs human-readable text to stdout at info level.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	JSON   bool   `koanf:"json"`
	Path   string `koanf:"path"`
	MaxMB  int    `koanf:"max_mb"`
	Backup int    `koanf:"backup"`
}

// FeedSpec describes one RSS feed and the rules used to decide what gets
// downloaded from it.
type FeedSpec struct {
	URL            string      `koanf:"url"`
	UpdateInterval int         `koanf:"update_interval"`
	Matcher        []MatchRule `koanf:"matcher"`
}

// Matcher is an AND-of-OR-groups: the outer slice is ANDed, each inner
// slice is a set of alternatives ORed together. An empty/absent matcher
// is vacuously satisfied.
type Matcher [][]string

// MatchRule is one rule within a feed's matcher list. The first rule that
// evaluates true for an announcement becomes its bound rule.
type MatchRule struct {
	TitleWanted Matcher `koanf:"title_wanted"`
	TitleBanned Matcher `koanf:"title_banned"`
	TagsWanted  Matcher `koanf:"tags_wanted"`
	TagsBanned  Matcher `koanf:"tags_banned"`
	SaveFolder  string  `koanf:"save_folder"`
	StartPaused bool    `koanf:"start_paused"`
}

// ClientAuth describes how to reach qBittorrent and the policies the
// reconciler enforces against it.
type ClientAuth struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Address  string `koanf:"address"`

	// Trackers is the allow-list: a completed torrent is kept seeding iff
	// one of its tracker URLs contains one of these substrings.
	Trackers []string `koanf:"trackers"`

	// TitleBans quarantines AUTO_DL torrents whose name contains one of
	// these substrings.
	TitleBans []string `koanf:"title_bans"`

	// FileBans is reserved: decoded and retained, but no step consumes
	// it. Do not infer an algorithm for it.
	FileBans []string `koanf:"file_bans"`
}

type HTTPConfig struct {
	TimeoutSeconds int `koanf:"timeout_seconds"`
	RatePerSecond  int `koanf:"rate_per_second"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Address string `koanf:"address"`
}

const (
	Delimiter        = "."
	EnvPrefix        = "TQMFEED__"
	ReservedAutoDL   = "AUTO_DL"
	ReservedTitleBan = "TITLE_BAN"
)

var log = logger.GetLogger("cfg")

// Load probes each candidate path in order and decodes the first one that
// exists and is readable. Every literal inside a matcher, the tracker
// allow-list and the title-ban list is lowercased after decoding so that
// all downstream string comparisons are case-insensitive by construction.
func Load(candidates []string) (*Configuration, error) {
	path, err := firstReadable(candidates)
	if err != nil {
		return nil, err
	}

	k := koanf.New(Delimiter)

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, Delimiter, func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", Delimiter, -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("%w: load env: %v", apperrors.ErrConfigInvalid, err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", apperrors.ErrConfigInvalid, err)
	}

	normalize(&cfg)

	log.Infof("Using %s = %q", stringutils.LeftJust("CONFIG", " ", 10), path)

	return &cfg, nil
}

func firstReadable(candidates []string) (string, error) {
	for _, p := range candidates {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		_ = f.Close()
		return p, nil
	}
	return "", apperrors.ErrConfigMissing
}

// normalize lowercases every literal used in case-insensitive comparisons:
// rule matchers, the tracker allow-list and the title-ban list.
func normalize(cfg *Configuration) {
	for i := range cfg.Feeds {
		for j := range cfg.Feeds[i].Matcher {
			m := &cfg.Feeds[i].Matcher[j]
			m.TitleWanted = Matcher(stringutils.LowerAllGroups(m.TitleWanted))
			m.TitleBanned = Matcher(stringutils.LowerAllGroups(m.TitleBanned))
			m.TagsWanted = Matcher(stringutils.LowerAllGroups(m.TagsWanted))
			m.TagsBanned = Matcher(stringutils.LowerAllGroups(m.TagsBanned))
		}
	}

	cfg.QBittorrent.Trackers = stringutils.LowerAll(cfg.QBittorrent.Trackers)
	cfg.QBittorrent.TitleBans = stringutils.LowerAll(cfg.QBittorrent.TitleBans)
	cfg.QBittorrent.FileBans = stringutils.LowerAll(cfg.QBittorrent.FileBans)
}
