package catalog

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

// Kind classifies a catalog failure.
type Kind int

// Failure kinds.
const (
	// KindValidation means the input failed field validation; see Error.Fields.
	KindValidation Kind = iota + 1
	// KindInvalid means an identifier is malformed. The store was not called.
	KindInvalid
	// KindNotFound means a referenced show, song or setlist entry is absent,
	// or an edit changed nothing.
	KindNotFound
	// KindStore means the store failed. The cause is logged, the caller only
	// sees the operation's generic message.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error is returned by every catalog operation.
type Error struct {
	Kind    Kind
	Message string
	// Fields maps field names to messages for KindValidation.
	Fields map[string][]string
	err    error
}

func (e *Error) Error() string {
	if e.Kind == KindValidation && len(e.Fields) != 0 {
		var parts []string
		for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
			parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
		}
		return "validation failed: " + strings.Join(parts, "; ")
	}
	return e.Message
}

// Unwrap returns the store error behind a KindStore failure.
func (e *Error) Unwrap() error {
	return e.err
}

// KindOf returns the Kind of err, or 0 if err is not a catalog error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func invalid(msg string) *Error {
	return &Error{Kind: KindInvalid, Message: msg}
}

func notFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func storeFailure(msg string, err error) *Error {
	return &Error{Kind: KindStore, Message: msg, err: err}
}

// FieldErrors accumulates per-field validation messages.
type FieldErrors map[string][]string

// Add records msg for field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Err returns a KindValidation error, or nil if nothing was recorded.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: "Validation failed.", Fields: f}
}

// User facing messages.
const (
	msgInvalidID          = "Invalid ID format."
	msgShowNotFound       = "Show not found."
	msgSongNotFound       = "Song not found."
	msgEntryNotFound      = "Song not found in this show."
	msgNoChange           = "Song not found in this show or no changes were made."
	msgSongAdded          = "Song added successfully."
	msgSongAddFailed      = "Failed to add song to the database."
	msgSongUpdated        = "Song updated successfully."
	msgSongUpdateFailed   = "Failed to update song in the database."
	msgSongDeleted        = "Song deleted successfully."
	msgSongDeleteFailed   = "Failed to delete song."
	msgSongsLoadFailed    = "Failed to load songs."
	msgShowAdded          = "Show added successfully."
	msgShowAddFailed      = "Failed to add show to the database."
	msgShowUpdated        = "Show updated successfully."
	msgShowUpdateFailed   = "Failed to update show in the database."
	msgShowDeleted        = "Show deleted successfully."
	msgShowDeleteFailed   = "Failed to delete show."
	msgShowsLoadFailed    = "Failed to load shows."
	msgEntryAdded         = "Song added to show successfully."
	msgEntryAddFailed     = "Failed to add song to the show."
	msgEntryUpdated       = "Song in show updated successfully."
	msgEntryUpdateFailed  = "Failed to update the song in the show."
	msgEntryRemoved       = "Song removed successfully."
	msgEntryRemoveFailed  = "Failed to remove song from the show."
	msgSetlistLoadFailed  = "Failed to load the setlist."
	msgSongNameRequired   = "Song name is required."
	msgSingerRequired     = "Singer is required."
	msgLyricistRequired   = "Lyricist is required."
	msgCategoryInvalid    = "Please select a valid category."
	msgOrigScaleRequired  = "Original scale is required."
	msgMyScaleRequired    = "Your scale is required."
	msgYoutubeLinkInvalid = "Invalid url"
	msgShowNameRequired   = "Show name is required."
	msgShowDateRequired   = "Show date is required."
	msgShowDateInvalid    = "Show date must be a date like 2006-01-02."
	msgSelectSong         = "Please select a song."
	msgPerformerRequired  = "Performer is required."
)
