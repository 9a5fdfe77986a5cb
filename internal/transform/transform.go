// Package transform builds the star-schema row-sets from the four source
// datasets. Builders are pure: they read source row-sets, never touch the
// store, and report what they dropped through Stats.
//
// A required source column that is absent fails the run with
// rowset.ErrSourceContract. Individual rows or nested entries that are
// malformed are skipped and counted instead.
package transform

import (
	"fmt"

	"go.uber.org/zap"

	"nbaetl/internal/model"
	"nbaetl/internal/rowset"
)

// Sources holds the extracted datasets.
type Sources struct {
	Players    *rowset.RowSet
	Schedule   *rowset.RowSet
	Boxscore   *rowset.RowSet
	PlayByPlay *rowset.RowSet
}

// Dataset returns the source row-set registered under a dataset name.
func (s Sources) Dataset(name string) *rowset.RowSet {
	switch name {
	case DatasetPlayers:
		return s.Players
	case DatasetSchedule:
		return s.Schedule
	case DatasetBoxscore:
		return s.Boxscore
	case DatasetPlayByPlay:
		return s.PlayByPlay
	}
	return nil
}

// Tables holds one target row-set per star-schema table.
type Tables struct {
	Teams           *rowset.RowSet
	Players         *rowset.RowSet
	Arenas          *rowset.RowSet
	Dates           *rowset.RowSet
	Roster          *rowset.RowSet
	Games           *rowset.RowSet
	TeamGameStats   *rowset.RowSet
	PlayerGameStats *rowset.RowSet
	PlayByPlay      *rowset.RowSet
	GameLeaders     *rowset.RowSet
}

// Table returns the row-set for a target table name.
func (t *Tables) Table(name string) *rowset.RowSet {
	switch name {
	case model.TableTeams:
		return t.Teams
	case model.TablePlayers:
		return t.Players
	case model.TableArenas:
		return t.Arenas
	case model.TableDates:
		return t.Dates
	case model.TableRoster:
		return t.Roster
	case model.TableGames:
		return t.Games
	case model.TableTeamGameStats:
		return t.TeamGameStats
	case model.TablePlayerGameStats:
		return t.PlayerGameStats
	case model.TablePlayByPlay:
		return t.PlayByPlay
	case model.TableGameLeaders:
		return t.GameLeaders
	}
	return nil
}

// Stats counts what one builder read, produced and dropped.
type Stats struct {
	Table string
	In    int
	Out   int

	// Invalid rows lacked a value for a NOT NULL column.
	Invalid int
	// Skipped nested entries were malformed or had no id.
	Skipped int
	// Excluded roster rows had no season.
	Excluded int
	// Unmatched games had no arena row to join.
	Unmatched int
	// Duplicates were dropped by key, keeping the first.
	Duplicates int
	// Unexpected starter values were read as false.
	Unexpected int
	// EmptyGames had no usable player entries.
	EmptyGames int
	// Orphaned rows belonged to a game that fact_games did not keep.
	Orphaned int
}

func (s Stats) fields() []zap.Field {
	fs := []zap.Field{zap.String("table", s.Table), zap.Int("in", s.In), zap.Int("rows", s.Out)}
	add := func(key string, n int) {
		if n > 0 {
			fs = append(fs, zap.Int(key, n))
		}
	}
	add("invalid", s.Invalid)
	add("skipped", s.Skipped)
	add("excluded", s.Excluded)
	add("unmatched", s.Unmatched)
	add("duplicates", s.Duplicates)
	add("unexpected_starter", s.Unexpected)
	add("empty_games", s.EmptyGames)
	add("orphaned", s.Orphaned)
	return fs
}

// Report collects the Stats of every builder in build order.
type Report struct {
	Stats []Stats
}

// For returns the Stats recorded for table.
func (r *Report) For(table string) (Stats, bool) {
	for _, s := range r.Stats {
		if s.Table == table {
			return s, true
		}
	}
	return Stats{}, false
}

type builder func() (*rowset.RowSet, Stats, error)

// All checks the source contract and runs every builder. Games are joined
// to the arenas built in the same call, and game-scoped facts are limited to
// the games that were kept.
func All(src Sources, log *zap.Logger) (*Tables, *Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := CheckContract(src); err != nil {
		return nil, nil, fmt.Errorf("transform: %w", err)
	}

	out := &Tables{}
	rep := &Report{}
	run := func(dst **rowset.RowSet, b builder, perGame bool) error {
		rs, st, err := b()
		if err != nil {
			return fmt.Errorf("transform: %s: %w", st.Table, err)
		}
		if perGame {
			if rs, err = keepGames(rs, out.Games, &st); err != nil {
				return fmt.Errorf("transform: %s: %w", st.Table, err)
			}
		}
		*dst = rs
		rep.Stats = append(rep.Stats, st)
		warn(log, st)
		return nil
	}

	steps := []struct {
		dst     **rowset.RowSet
		b       builder
		perGame bool
	}{
		{&out.Teams, func() (*rowset.RowSet, Stats, error) { return BuildTeams(src.Players, src.Schedule) }, false},
		{&out.Players, func() (*rowset.RowSet, Stats, error) { return BuildPlayers(src.Players) }, false},
		{&out.Arenas, func() (*rowset.RowSet, Stats, error) { return BuildArenas(src.Schedule) }, false},
		{&out.Dates, func() (*rowset.RowSet, Stats, error) { return BuildDates(src.Schedule) }, false},
		{&out.Roster, func() (*rowset.RowSet, Stats, error) { return BuildRoster(src.Players) }, false},
		{&out.Games, func() (*rowset.RowSet, Stats, error) { return BuildGames(src.Schedule, out.Arenas) }, false},
		{&out.TeamGameStats, func() (*rowset.RowSet, Stats, error) { return BuildTeamGameStats(src.Boxscore) }, true},
		{&out.PlayerGameStats, func() (*rowset.RowSet, Stats, error) { return BuildPlayerGameStats(src.Boxscore) }, true},
		{&out.PlayByPlay, func() (*rowset.RowSet, Stats, error) { return BuildPlayByPlay(src.PlayByPlay) }, true},
		{&out.GameLeaders, func() (*rowset.RowSet, Stats, error) { return BuildGameLeaders(src.Schedule) }, true},
	}
	for _, s := range steps {
		if err := run(s.dst, s.b, s.perGame); err != nil {
			return nil, nil, err
		}
	}
	return out, rep, nil
}

// keepGames drops the rows of rs whose game_id is not a row of games. A
// game dropped by BuildGames would otherwise fail its children's foreign
// keys at commit.
func keepGames(rs, games *rowset.RowSet, st *Stats) (*rowset.RowSet, error) {
	ids, err := games.Column("game_id")
	if err != nil {
		return nil, err
	}
	kept := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if s, ok := toString(id); ok {
			kept[s] = struct{}{}
		}
	}
	out := rs.Filter(func(r rowset.Row) bool {
		id, _ := toString(r.Get("game_id"))
		_, ok := kept[id]
		return ok
	})
	st.Orphaned += rs.Len() - out.Len()
	st.Out = out.Len()
	return out, nil
}

func warn(log *zap.Logger, st Stats) {
	log.Info("built table", st.fields()...)
	switch {
	case st.Unmatched > 0:
		log.Warn("games dropped: no matching arena", zap.Int("games", st.Unmatched))
	case st.Table == model.TablePlayerGameStats && st.Out == 0 && st.In > 0:
		log.Warn("no player stats found, check the boxscore players format")
	}
	if st.Excluded > 0 {
		log.Info("roster rows without season excluded", zap.Int("rows", st.Excluded))
	}
	if st.Invalid > 0 {
		log.Warn("rows missing required values skipped", zap.String("table", st.Table), zap.Int("rows", st.Invalid))
	}
	if st.Skipped > 0 {
		log.Warn("malformed nested entries skipped", zap.String("table", st.Table), zap.Int("entries", st.Skipped))
	}
	if st.Unexpected > 0 {
		log.Warn("unexpected starter values read as false", zap.Int("entries", st.Unexpected))
	}
	if st.EmptyGames > 0 {
		log.Warn("games had no player stats", zap.Int("games", st.EmptyGames))
	}
	if st.Orphaned > 0 {
		log.Warn("rows for games not loaded dropped", zap.String("table", st.Table), zap.Int("rows", st.Orphaned))
	}
}
