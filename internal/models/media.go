package models

import "fmt"

// Kind tags a media record. Movies and episodes are actionable targets,
// shows are only listed to reach their episodes.
type Kind int

const (
	KindMovie Kind = iota
	KindEpisode
	KindShow
)

// String returns the value used as the "type" field of an action request.
func (k Kind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindEpisode:
		return "episode"
	case KindShow:
		return "show"
	default:
		return "unknown"
	}
}

// Plural returns a human label for collections of this kind.
func (k Kind) Plural() string {
	switch k {
	case KindMovie:
		return "movies"
	case KindEpisode:
		return "episodes"
	case KindShow:
		return "tv shows"
	default:
		return "records"
	}
}

// ParseKind converts a CLI/table name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "movie", "movies":
		return KindMovie, nil
	case "episode", "episodes":
		return KindEpisode, nil
	case "show", "shows", "series", "tv-shows":
		return KindShow, nil
	default:
		return 0, fmt.Errorf("unknown media kind %q", s)
	}
}

// Record is the kind-tagged view of a movie or episode that the pipeline works on.
// Dispatch and the dedup store branch on Kind once instead of per field.
type Record struct {
	Kind      Kind
	ID        int
	Title     string
	Subtitles []Subtitle
}

// Movie mirrors an entry of the remote movies listing.
type Movie struct {
	RadarrID  int        `json:"radarrId"`
	Title     string     `json:"title"`
	Year      string     `json:"year,omitempty"`
	Path      string     `json:"path,omitempty"`
	Monitored bool       `json:"monitored"`
	Subtitles []Subtitle `json:"subtitles"`
}

// Record converts the movie to its tagged record.
func (m Movie) Record() Record {
	return Record{Kind: KindMovie, ID: m.RadarrID, Title: m.Title, Subtitles: m.Subtitles}
}

// Show mirrors an entry of the remote series listing.
type Show struct {
	SonarrSeriesID      int    `json:"sonarrSeriesId"`
	Title               string `json:"title"`
	Year                string `json:"year,omitempty"`
	EpisodeFileCount    int    `json:"episodeFileCount"`
	EpisodeMissingCount int    `json:"episodeMissingCount"`
	SeriesType          string `json:"seriesType,omitempty"`
	Monitored           bool   `json:"monitored"`
}

// Episode mirrors an entry of the remote episodes listing.
type Episode struct {
	SonarrEpisodeID int        `json:"sonarrEpisodeId"`
	SonarrSeriesID  int        `json:"sonarrSeriesId"`
	Title           string     `json:"title"`
	Season          int        `json:"season"`
	Episode         int        `json:"episode"`
	Monitored       bool       `json:"monitored"`
	Path            string     `json:"path,omitempty"`
	Subtitles       []Subtitle `json:"subtitles"`
}

// Record converts the episode to its tagged record. The title is prefixed
// with the series title and the SxxEyy marker when the series is known.
func (e Episode) Record(seriesTitle string) Record {
	title := e.Title
	if seriesTitle != "" {
		title = fmt.Sprintf("%s - S%02dE%02d - %s", seriesTitle, e.Season, e.Episode, e.Title)
	}
	return Record{Kind: KindEpisode, ID: e.SonarrEpisodeID, Title: title, Subtitles: e.Subtitles}
}

// ListResponse is the envelope returned by the remote list endpoints.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// SystemStatus is the subset of the system status payload we care about.
type SystemStatus struct {
	Version string `json:"bazarr_version"`
}
