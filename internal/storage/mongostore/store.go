// Package mongostore implements storage.Store on a MongoDB database.
//
// Documents keep the ksid identifiers in their string form as _id so the
// collections stay readable from the mongo shell.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage"
	"github.com/stagehand/stagehand/internal/storage/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	songsCollection = "songs"
	showsCollection = "shows"
)

// Store talks to MongoDB.
type Store struct {
	client *mongo.Client
	songs  *mongo.Collection
	shows  *mongo.Collection
}

var _ storage.Store = (*Store)(nil)

// Open connects to uri and uses database db.
func Open(ctx context.Context, uri, db string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("stagehand"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	d := client.Database(db)
	return &Store{
		client: client,
		songs:  d.Collection(songsCollection),
		shows:  d.Collection(showsCollection),
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop deletes both collections. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.songs.Drop(ctx); err != nil {
		return err
	}
	return s.shows.Drop(ctx)
}

type songDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Singer        string    `bson:"singer"`
	Lyricist      string    `bson:"lyricist"`
	Movie         string    `bson:"movie,omitempty"`
	Actor         string    `bson:"actor,omitempty"`
	Director      string    `bson:"director,omitempty"`
	Category      string    `bson:"category"`
	OriginalScale string    `bson:"original_scale"`
	MyScale       string    `bson:"my_scale"`
	YoutubeLink   string    `bson:"youtube_link,omitempty"`
	Notes         string    `bson:"notes,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

type showSongDoc struct {
	ID            string `bson:"id"`
	SongID        string `bson:"song_id"`
	Performer     string `bson:"performer"`
	AdjustedScale string `bson:"adjusted_scale"`
	Order         int    `bson:"order"`
}

type showDoc struct {
	ID        string        `bson:"_id"`
	Name      string        `bson:"name"`
	Date      time.Time     `bson:"date"`
	Venue     string        `bson:"venue,omitempty"`
	Songs     []showSongDoc `bson:"songs"`
	Rev       int64         `bson:"rev"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

func fromSong(s *entity.Song) *songDoc {
	return &songDoc{
		ID:            s.ID.String(),
		Name:          s.Name,
		Singer:        s.Singer,
		Lyricist:      s.Lyricist,
		Movie:         s.Movie,
		Actor:         s.Actor,
		Director:      s.Director,
		Category:      string(s.Category),
		OriginalScale: s.OriginalScale,
		MyScale:       s.MyScale,
		YoutubeLink:   s.YoutubeLink,
		Notes:         s.Notes,
		CreatedAt:     s.Created,
		UpdatedAt:     s.Modified,
	}
}

func (d *songDoc) toEntity() (*entity.Song, error) {
	id, err := ksid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("song %q: %w", d.ID, err)
	}
	return &entity.Song{
		ID:            id,
		Name:          d.Name,
		Singer:        d.Singer,
		Lyricist:      d.Lyricist,
		Movie:         d.Movie,
		Actor:         d.Actor,
		Director:      d.Director,
		Category:      entity.Category(d.Category),
		OriginalScale: d.OriginalScale,
		MyScale:       d.MyScale,
		YoutubeLink:   d.YoutubeLink,
		Notes:         d.Notes,
		Created:       d.CreatedAt.UTC(),
		Modified:      d.UpdatedAt.UTC(),
	}, nil
}

func fromShowSongs(songs []entity.ShowSong) []showSongDoc {
	out := make([]showSongDoc, 0, len(songs))
	for _, e := range songs {
		out = append(out, showSongDoc{
			ID:            e.ID.String(),
			SongID:        e.SongID.String(),
			Performer:     e.Performer,
			AdjustedScale: e.AdjustedScale,
			Order:         e.Order,
		})
	}
	return out
}

func fromShow(s *entity.Show) *showDoc {
	return &showDoc{
		ID:        s.ID.String(),
		Name:      s.Name,
		Date:      s.Date,
		Venue:     s.Venue,
		Songs:     fromShowSongs(s.Songs),
		Rev:       s.Rev,
		CreatedAt: s.Created,
		UpdatedAt: s.Modified,
	}
}

func (d *showDoc) toEntity() (*entity.Show, error) {
	id, err := ksid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("show %q: %w", d.ID, err)
	}
	songs := make([]entity.ShowSong, 0, len(d.Songs))
	for _, e := range d.Songs {
		eid, err := ksid.Parse(e.ID)
		if err != nil {
			return nil, fmt.Errorf("show %q entry %q: %w", d.ID, e.ID, err)
		}
		sid, err := ksid.Parse(e.SongID)
		if err != nil {
			return nil, fmt.Errorf("show %q entry %q song: %w", d.ID, e.ID, err)
		}
		songs = append(songs, entity.ShowSong{
			ID:            eid,
			SongID:        sid,
			Performer:     e.Performer,
			AdjustedScale: e.AdjustedScale,
			Order:         e.Order,
		})
	}
	return &entity.Show{
		ID:       id,
		Name:     d.Name,
		Date:     d.Date.UTC(),
		Venue:    d.Venue,
		Songs:    songs,
		Rev:      d.Rev,
		Created:  d.CreatedAt.UTC(),
		Modified: d.UpdatedAt.UTC(),
	}, nil
}

// GetSong implements storage.SongStore.
func (s *Store) GetSong(ctx context.Context, id ksid.ID) (*entity.Song, error) {
	var d songDoc
	if err := s.songs.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("song %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load song %s: %w", id, err)
	}
	return d.toEntity()
}

// ListSongs implements storage.SongStore.
func (s *Store) ListSongs(ctx context.Context) ([]*entity.Song, error) {
	cur, err := s.songs.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	var docs []songDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode songs: %w", err)
	}
	out := make([]*entity.Song, 0, len(docs))
	for i := range docs {
		song, err := docs[i].toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, song)
	}
	return out, nil
}

// InsertSong implements storage.SongStore.
func (s *Store) InsertSong(ctx context.Context, song *entity.Song) error {
	if err := song.Validate(); err != nil {
		return err
	}
	if _, err := s.songs.InsertOne(ctx, fromSong(song)); err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

// UpdateSong implements storage.SongStore.
func (s *Store) UpdateSong(ctx context.Context, song *entity.Song) error {
	if err := song.Validate(); err != nil {
		return err
	}
	res, err := s.songs.ReplaceOne(ctx, bson.M{"_id": song.ID.String()}, fromSong(song))
	if err != nil {
		return fmt.Errorf("failed to update song %s: %w", song.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("song %s: %w", song.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteSong implements storage.SongStore.
func (s *Store) DeleteSong(ctx context.Context, id ksid.ID) error {
	res, err := s.songs.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete song %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("song %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// GetShow implements storage.ShowStore.
func (s *Store) GetShow(ctx context.Context, id ksid.ID) (*entity.Show, error) {
	var d showDoc
	if err := s.shows.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("show %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load show %s: %w", id, err)
	}
	return d.toEntity()
}

// ListShows implements storage.ShowStore.
func (s *Store) ListShows(ctx context.Context) ([]*entity.Show, error) {
	cur, err := s.shows.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}
	var docs []showDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode shows: %w", err)
	}
	out := make([]*entity.Show, 0, len(docs))
	for i := range docs {
		show, err := docs[i].toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, show)
	}
	return out, nil
}

// InsertShow implements storage.ShowStore.
func (s *Store) InsertShow(ctx context.Context, show *entity.Show) error {
	if err := show.Validate(); err != nil {
		return err
	}
	if _, err := s.shows.InsertOne(ctx, fromShow(show)); err != nil {
		return fmt.Errorf("failed to insert show: %w", err)
	}
	return nil
}

// UpdateShowInfo implements storage.ShowStore.
func (s *Store) UpdateShowInfo(ctx context.Context, show *entity.Show) error {
	set := bson.M{
		"name":       show.Name,
		"date":       show.Date,
		"venue":      show.Venue,
		"updated_at": show.Modified,
	}
	res, err := s.shows.UpdateOne(ctx, bson.M{"_id": show.ID.String()}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update show %s: %w", show.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("show %s: %w", show.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteShow implements storage.ShowStore.
func (s *Store) DeleteShow(ctx context.Context, id ksid.ID) error {
	res, err := s.shows.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete show %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("show %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ReplaceSetlist implements storage.ShowStore.
//
// The revision is part of the filter, so a concurrent writer makes the
// update match nothing. A second lookup tells a missing show from a lost race.
func (s *Store) ReplaceSetlist(ctx context.Context, showID ksid.ID, rev int64, songs []entity.ShowSong) error {
	if err := entity.CheckDense(songs); err != nil {
		return err
	}
	filter := bson.M{"_id": showID.String(), "rev": rev}
	update := bson.M{
		"$set": bson.M{"songs": fromShowSongs(songs), "updated_at": time.Now().UTC()},
		"$inc": bson.M{"rev": 1},
	}
	res, err := s.shows.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to write setlist of show %s: %w", showID, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := s.shows.CountDocuments(ctx, bson.M{"_id": showID.String()})
	if err != nil {
		return fmt.Errorf("failed to check show %s: %w", showID, err)
	}
	if n == 0 {
		return fmt.Errorf("show %s: %w", showID, storage.ErrNotFound)
	}
	return fmt.Errorf("show %s moved past rev %d: %w", showID, rev, storage.ErrConflict)
}
