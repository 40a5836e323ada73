package dto

import (
	"net/http"
	"time"

	"github.com/stagehand/stagehand/internal/tableview"
)

// DataResponse is the body of every successful response. Mutations return
// the outcome message as Data and the affected resource in ID.
type DataResponse[T any] struct {
	Data T      `json:"data"`
	ID   string `json:"id,omitempty"`

	cookies []*http.Cookie
}

// Message returns a mutation outcome.
func Message(msg, id string) *DataResponse[string] {
	return &DataResponse[string]{Data: msg, ID: id}
}

// Data wraps v.
func Data[T any](v T) *DataResponse[T] {
	return &DataResponse[T]{Data: v}
}

// WithCookie attaches a cookie to set on the response.
func (r *DataResponse[T]) WithCookie(c *http.Cookie) *DataResponse[T] {
	r.cookies = append(r.cookies, c)
	return r
}

// ResponseCookies implements CookieSetter.
func (r *DataResponse[T]) ResponseCookies() []*http.Cookie {
	return r.cookies
}

// CookieSetter is implemented by responses that set cookies.
type CookieSetter interface {
	ResponseCookies() []*http.Cookie
}

// --- Health ---

// HealthResponse reports the server status.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Store     string `json:"store"`
	Assistant bool   `json:"assistant"`
}

// --- Auth ---

// SessionResponse describes the logged in performer.
type SessionResponse struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
	Country   string    `json:"country,omitempty"`
}

// --- Catalog ---

// Song is a song of the library.
type Song struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Singer        string    `json:"singer"`
	Lyricist      string    `json:"lyricist"`
	Movie         string    `json:"movie,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	Director      string    `json:"director,omitempty"`
	Category      string    `json:"category"`
	OriginalScale string    `json:"originalScale"`
	MyScale       string    `json:"myScale"`
	YoutubeLink   string    `json:"youtubeLink,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Created       time.Time `json:"created"`
	Modified      time.Time `json:"modified"`
}

// ShowSummary is a show in a list.
type ShowSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Venue     string `json:"venue,omitempty"`
	SongCount int    `json:"songCount"`
}

// SetlistRow is a setlist entry with the display fields of its song. The
// song fields are null when the song was deleted.
type SetlistRow struct {
	ID            string  `json:"id"`
	SongID        string  `json:"songId"`
	Performer     string  `json:"performer"`
	AdjustedScale string  `json:"adjustedScale"`
	Order         int     `json:"order"`
	Name          *string `json:"name"`
	Singer        *string `json:"singer"`
	Lyricist      *string `json:"lyricist"`
	Movie         *string `json:"movie"`
	Category      *string `json:"category"`
	YoutubeLink   *string `json:"youtubeLink"`
	MyScale       *string `json:"myScale"`
}

// Show is a show with its joined setlist.
type Show struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Date     string       `json:"date"`
	Venue    string       `json:"venue,omitempty"`
	Rev      int64        `json:"rev"`
	Created  time.Time    `json:"created"`
	Modified time.Time    `json:"modified"`
	Songs    []SetlistRow `json:"songs"`
}

// Table is one page of a table view.
type Table[T any] struct {
	Items []T `json:"items"`
	tableview.View
}

// --- History ---

// Commit is one recorded data change.
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	When    time.Time `json:"when"`
	Files   []string  `json:"files,omitempty"`
}

// --- Assistant ---

// AssistantResponse is the assistant's Markdown answer.
type AssistantResponse struct {
	Answer string `json:"answer"`
}
