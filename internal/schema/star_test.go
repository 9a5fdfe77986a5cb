package schema

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"nbaetl/internal/ddl"
	"nbaetl/internal/model"
	"nbaetl/internal/storage"
	"nbaetl/internal/storage/sqlite"
)

var memSeq atomic.Int64

func openStore(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := storage.New(context.Background(), storage.Config{
		Kind: sqlite.Kind,
		DSN:  fmt.Sprintf("file:schema_test_%d?mode=memory", memSeq.Add(1)),
	})
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func TestStarMatchesRecordColumns(t *testing.T) {
	t.Parallel()

	want := map[string][]string{
		model.TableTeams:           model.TeamColumns,
		model.TablePlayers:         model.PlayerColumns,
		model.TableArenas:          model.ArenaColumns,
		model.TableDates:           model.DateColumns,
		model.TableRoster:          model.RosterColumns,
		model.TableGames:           model.GameColumns,
		model.TableTeamGameStats:   model.TeamGameStatsColumns,
		model.TablePlayerGameStats: model.PlayerGameStatsColumns,
		model.TablePlayByPlay:      model.PlayByPlayColumns,
		model.TableGameLeaders:     model.GameLeaderColumns,
	}

	tables := Star()
	require.Len(t, tables, len(model.LoadOrder))
	for i, tbl := range tables {
		require.Equal(t, model.LoadOrder[i], tbl.FQN, "table %d out of load order", i)
		require.Equal(t, want[tbl.FQN], tbl.ColumnNames(), "columns of %s", tbl.FQN)
		require.NoError(t, ddl.Validate(tbl))
	}
	require.NoError(t, ddl.CheckOrder(tables))
}

func TestStarIndexes(t *testing.T) {
	t.Parallel()

	var names []string
	for _, tbl := range Star() {
		for _, ix := range tbl.Indexes {
			names = append(names, ix.Name)
		}
	}
	require.ElementsMatch(t, []string{
		"idx_teams_tricode", "idx_players_name",
		"idx_games_date", "idx_games_home_team", "idx_games_away_team",
		"idx_roster_team_season", "idx_player_stats_player",
		"idx_pbp_period", "idx_pbp_player", "idx_leaders_player_stat",
	}, names)
}

func TestPrimaryKeys(t *testing.T) {
	t.Parallel()

	m, err := NewManager(sqlite.Kind, nil)
	require.NoError(t, err)

	tests := []struct {
		table string
		want  []string
	}{
		{model.TableTeams, []string{"team_id"}},
		{model.TableRoster, []string{"player_id", "team_id", "season"}},
		{model.TableTeamGameStats, []string{"game_id", "team_id"}},
		{model.TablePlayByPlay, []string{"game_id", "action_number"}},
		{model.TableGameLeaders, []string{"game_id", "team_id", "player_id", "stat_type"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.table, func(t *testing.T) {
			t.Parallel()

			got, err := m.PrimaryKey(tt.table)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err = m.PrimaryKey("nope")
	require.Error(t, err)
}

func TestNewManagerUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := NewManager("oracle", nil)
	require.Error(t, err)
}

func TestEnsureIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openStore(t)
	m, err := NewManager(sqlite.Kind, nil)
	require.NoError(t, err)

	require.NoError(t, m.Ensure(ctx, repo))
	require.NoError(t, repo.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.Insert(ctx, model.TableTeams, model.TeamColumns,
			[][]any{{int64(1610612737), "Hawks", "Atlanta", "ATL", "hawks", false}})
		return err
	}))

	// A second pass must keep the data and not fail on existing objects.
	require.NoError(t, m.Ensure(ctx, repo))
	n, err := repo.Count(ctx, model.TableTeams)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	var indexes int64
	require.NoError(t, repo.Query(ctx, func(v []any) error {
		indexes = v[0].(int64)
		return nil
	}, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_%'`))
	require.EqualValues(t, 10, indexes)
}

func TestDropRemovesEveryTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openStore(t)
	m, err := NewManager(sqlite.Kind, nil)
	require.NoError(t, err)

	require.NoError(t, m.Ensure(ctx, repo))
	require.NoError(t, m.Drop(ctx, repo))
	// Dropping an absent schema is a no-op.
	require.NoError(t, m.Drop(ctx, repo))

	var tables int64
	require.NoError(t, repo.Query(ctx, func(v []any) error {
		tables = v[0].(int64)
		return nil
	}, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'`))
	require.Zero(t, tables)
}

func TestForeignKeysEnforcedAtCommit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openStore(t)
	m, err := NewManager(sqlite.Kind, nil)
	require.NoError(t, err)
	require.NoError(t, m.Ensure(ctx, repo))

	err = repo.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.Insert(ctx, model.TableRoster, model.RosterColumns,
			[][]any{{int64(1), int64(2), "2024-25", int64(1), int64(2020), int64(2025), nil, nil, nil, nil}})
		return err
	})
	require.Error(t, err)

	n, err := repo.Count(ctx, model.TableRoster)
	require.NoError(t, err)
	require.Zero(t, n)
}
