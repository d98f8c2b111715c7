package models

// Subtitle is one subtitle file attached to a movie or episode.
// Path and Code2 are nil when the remote service has not materialised the file
// or cannot tell its language.
type Subtitle struct {
	Path     *string `json:"path"`
	Code2    *string `json:"code2"`
	Code3    string  `json:"code3,omitempty"`
	Name     string  `json:"name"`
	Forced   bool    `json:"forced"`
	HI       bool    `json:"hi"`
	FileSize *int64  `json:"file_size,omitempty"`
}

// Valid reports whether the subtitle can be acted on: it needs both a path and a language code.
func (s Subtitle) Valid() bool {
	return s.Path != nil && *s.Path != "" && s.Code2 != nil && *s.Code2 != ""
}

// LanguageCode returns the two-letter code or "" when absent.
func (s Subtitle) LanguageCode() string {
	if s.Code2 == nil {
		return ""
	}
	return *s.Code2
}

// FilePath returns the path or "" when absent.
func (s Subtitle) FilePath() string {
	if s.Path == nil {
		return ""
	}
	return *s.Path
}
