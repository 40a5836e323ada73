// Applies table view query parameters to list endpoints.

package handlers

import (
	"github.com/stagehand/stagehand/internal/catalog"
	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/storage/entity"
	"github.com/stagehand/stagehand/internal/tableview"
)

// table builds an engine over rows and applies the request parameters.
// Search and sort reset the page, so the requested page is applied last.
func table[T any, Out any](rows []T, opts tableview.Options[T], p *dto.ListParams, conv func(T) Out) (*dto.Table[Out], error) {
	if p.Size != 0 {
		opts.PageSize = p.Size
	}
	e, err := tableview.New(rows, opts)
	if err != nil {
		return nil, apiError(err)
	}
	if p.Sort != "" {
		dir, err := tableview.ParseDirection(p.Dir)
		if err != nil {
			return nil, dto.InvalidFormat("dir must be asc or desc.")
		}
		if err := e.SetSort(p.Sort, dir); err != nil {
			return nil, apiError(err)
		}
	}
	e.Search(p.Query)
	if p.Page > 0 {
		e.SetPage(p.Page)
	}
	page := e.Page()
	out := &dto.Table[Out]{Items: make([]Out, 0, len(page)), View: e.Snapshot()}
	for _, r := range page {
		out.Items = append(out.Items, conv(r))
	}
	return out, nil
}

// optional maps an empty optional field to nil so it sorts last.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

var songColumns = map[string]tableview.Accessor[*entity.Song]{
	"name":          func(s *entity.Song) any { return s.Name },
	"singer":        func(s *entity.Song) any { return s.Singer },
	"lyricist":      func(s *entity.Song) any { return s.Lyricist },
	"movie":         func(s *entity.Song) any { return optional(s.Movie) },
	"actor":         func(s *entity.Song) any { return optional(s.Actor) },
	"director":      func(s *entity.Song) any { return optional(s.Director) },
	"category":      func(s *entity.Song) any { return string(s.Category) },
	"originalScale": func(s *entity.Song) any { return s.OriginalScale },
	"myScale":       func(s *entity.Song) any { return s.MyScale },
	"created":       func(s *entity.Song) any { return s.Created },
	"modified":      func(s *entity.Song) any { return s.Modified },
}

func songOptions() tableview.Options[*entity.Song] {
	return tableview.Options[*entity.Song]{
		Columns:    songColumns,
		Searchable: []string{"name", "singer", "lyricist", "movie", "category"},
		Sort:       &tableview.Sort{Key: "name", Dir: tableview.Ascending},
	}
}

var showColumns = map[string]tableview.Accessor[*entity.Show]{
	"name":      func(s *entity.Show) any { return s.Name },
	"date":      func(s *entity.Show) any { return s.Date },
	"venue":     func(s *entity.Show) any { return optional(s.Venue) },
	"songCount": func(s *entity.Show) any { return len(s.Songs) },
}

// showOptions keeps the store order, newest show first, until a sort is
// requested.
func showOptions() tableview.Options[*entity.Show] {
	return tableview.Options[*entity.Show]{
		Columns:    showColumns,
		Searchable: []string{"name", "venue"},
	}
}

var setlistColumns = map[string]tableview.Accessor[*catalog.SetlistRow]{
	"order":         func(r *catalog.SetlistRow) any { return r.Order },
	"performer":     func(r *catalog.SetlistRow) any { return r.Performer },
	"adjustedScale": func(r *catalog.SetlistRow) any { return optional(r.AdjustedScale) },
	"name":          func(r *catalog.SetlistRow) any { return deref(r.Name) },
	"singer":        func(r *catalog.SetlistRow) any { return deref(r.Singer) },
	"lyricist":      func(r *catalog.SetlistRow) any { return deref(r.Lyricist) },
	"movie":         setlistMovie,
	"myScale":       func(r *catalog.SetlistRow) any { return deref(r.MyScale) },
	"category":      setlistCategory,
}

func setlistMovie(r *catalog.SetlistRow) any {
	if r.Movie == nil {
		return nil
	}
	return optional(*r.Movie)
}

func setlistCategory(r *catalog.SetlistRow) any {
	if r.Category == nil {
		return nil
	}
	return string(*r.Category)
}

func setlistOptions() tableview.Options[*catalog.SetlistRow] {
	return tableview.Options[*catalog.SetlistRow]{
		Columns:    setlistColumns,
		Searchable: []string{"name", "performer", "singer"},
		Sort:       &tableview.Sort{Key: "order", Dir: tableview.Ascending},
	}
}
