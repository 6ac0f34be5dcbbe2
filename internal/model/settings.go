package model

import "strings"

// DefaultAuthorName pre-fills the options form when no settings exist yet.
const DefaultAuthorName = "LiveChat"

type Settings struct {
	APIURL      string `json:"apiUrl"`
	IngestToken string `json:"ingestToken"`
	GuildID     string `json:"guildId"`
	AuthorName  string `json:"authorName"`
}

// Complete reports whether the settings can back an ingest request.
// AuthorName is cosmetic and not required.
func (s *Settings) Complete() bool {
	if s == nil {
		return false
	}
	return strings.TrimSpace(s.APIURL) != "" &&
		strings.TrimSpace(s.IngestToken) != "" &&
		strings.TrimSpace(s.GuildID) != ""
}
