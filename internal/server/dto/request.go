package dto

import (
	"strings"
	"unicode/utf8"
)

// MaxQueryLength bounds an assistant question.
const MaxQueryLength = 2000

// MaxHistory bounds the history limit parameter.
const MaxHistory = 1000

// EmptyRequest is used by endpoints without parameters.
type EmptyRequest struct{}

// Validate is a no-op.
func (r *EmptyRequest) Validate() error {
	return nil
}

// --- Auth ---

// LoginRequest is a request to log in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate validates the login request fields.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	f := map[string][]string{}
	if r.Username == "" {
		f["username"] = []string{"Username is required."}
	}
	if r.Password == "" {
		f["password"] = []string{"Password is required."}
	}
	if len(f) != 0 {
		return ValidationFailed(f)
	}
	return nil
}

// --- Table views ---

// ListParams are the table view query parameters shared by list endpoints.
type ListParams struct {
	Query string `query:"q"`
	Sort  string `query:"sort"`
	Dir   string `query:"dir"`
	Page  int    `query:"page"`
	Size  int    `query:"size"`
}

// Validate checks the parameters that don't depend on the listed columns.
func (p *ListParams) Validate() error {
	switch strings.ToLower(p.Dir) {
	case "", "asc", "desc":
	default:
		return InvalidFormat("dir must be asc or desc.")
	}
	if p.Page < 0 {
		return InvalidFormat("page must be positive.")
	}
	if p.Size < 0 {
		return InvalidFormat("size must be positive.")
	}
	if p.Dir != "" && p.Sort == "" {
		return MissingField("sort")
	}
	return nil
}

// ListSongsRequest lists the library.
type ListSongsRequest struct {
	ListParams
}

// ListShowsRequest lists the shows.
type ListShowsRequest struct {
	ListParams
}

// SetlistRequest lists the joined setlist of a show.
type SetlistRequest struct {
	ID string `path:"id"`
	ListParams
}

// Validate validates the setlist request fields.
func (r *SetlistRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	return r.ListParams.Validate()
}

// --- Songs ---

// SongRequest creates or replaces a song.
type SongRequest struct {
	ID            string `path:"id"`
	Name          string `json:"name"`
	Singer        string `json:"singer"`
	Lyricist      string `json:"lyricist"`
	Movie         string `json:"movie"`
	Actor         string `json:"actor"`
	Director      string `json:"director"`
	Category      string `json:"category"`
	OriginalScale string `json:"originalScale"`
	MyScale       string `json:"myScale"`
	YoutubeLink   string `json:"youtubeLink"`
	Notes         string `json:"notes"`
}

// Validate leaves field validation to the catalog, which reports every
// field at once.
func (r *SongRequest) Validate() error {
	return nil
}

// IDRequest addresses one resource by path.
type IDRequest struct {
	ID string `path:"id"`
}

// Validate validates the ID.
func (r *IDRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// --- Shows ---

// ShowRequest creates or updates a show.
type ShowRequest struct {
	ID    string `path:"id"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Venue string `json:"venue"`
}

// Validate leaves field validation to the catalog.
func (r *ShowRequest) Validate() error {
	return nil
}

// AddShowSongRequest appends a song to a setlist.
type AddShowSongRequest struct {
	ShowID        string `path:"id"`
	SongID        string `json:"songId"`
	Performer     string `json:"performer"`
	AdjustedScale string `json:"adjustedScale"`
}

// Validate validates the show ID.
func (r *AddShowSongRequest) Validate() error {
	if r.ShowID == "" {
		return MissingField("id")
	}
	return nil
}

// EditShowSongRequest changes a setlist entry. Absent fields are unchanged.
type EditShowSongRequest struct {
	ShowID        string  `path:"id"`
	ShowSongID    string  `path:"showSongID"`
	SongID        *string `json:"songId"`
	Performer     *string `json:"performer"`
	AdjustedScale *string `json:"adjustedScale"`
}

// Validate validates the path.
func (r *EditShowSongRequest) Validate() error {
	if r.ShowID == "" {
		return MissingField("id")
	}
	if r.ShowSongID == "" {
		return MissingField("showSongID")
	}
	return nil
}

// RemoveShowSongRequest removes a setlist entry.
type RemoveShowSongRequest struct {
	ShowID     string `path:"id"`
	ShowSongID string `path:"showSongID"`
}

// Validate validates the path.
func (r *RemoveShowSongRequest) Validate() error {
	if r.ShowID == "" {
		return MissingField("id")
	}
	if r.ShowSongID == "" {
		return MissingField("showSongID")
	}
	return nil
}

// --- Assistant ---

// AssistantRequest asks the music and cinema assistant a question.
type AssistantRequest struct {
	Query string `json:"query"`
}

// Validate validates the question.
func (r *AssistantRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return ValidationFailed(map[string][]string{"query": {"Please enter a question."}})
	}
	if utf8.RuneCountInString(r.Query) > MaxQueryLength {
		return ValidationFailed(map[string][]string{"query": {"Your question is too long."}})
	}
	return nil
}

// --- History ---

// HistoryRequest lists data changes.
type HistoryRequest struct {
	Limit int    `query:"limit"`
	Table string `query:"table"`
}

// Validate validates the history request fields.
func (r *HistoryRequest) Validate() error {
	if r.Limit < 0 || r.Limit > MaxHistory {
		return InvalidFormat("limit must be between 0 and 1000.")
	}
	switch r.Table {
	case "", "songs", "shows":
	default:
		return InvalidFormat("table must be songs or shows.")
	}
	return nil
}
