package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"nbaetl/internal/config"
	"nbaetl/internal/extract"
	"nbaetl/internal/load"
	"nbaetl/internal/metrics"
	"nbaetl/internal/model"
	"nbaetl/internal/rowset"
	"nbaetl/internal/storage"
	_ "nbaetl/internal/storage/sqlite"
	"nbaetl/internal/transform"
	"nbaetl/internal/verify"
)

// source builds a dataset carrying every required column; cells not named
// in a row are nil.
func source(t *testing.T, dataset string, rows ...map[string]any) *rowset.RowSet {
	t.Helper()
	cols := transform.RequiredColumns(dataset)
	rs := rowset.New(dataset, cols...)
	for _, r := range rows {
		vals := make([]any, len(cols))
		for i, c := range cols {
			vals[i] = r[c]
		}
		require.NoError(t, rs.Append(vals...))
	}
	return rs
}

func player(id, team int64, first, last string) map[string]any {
	return map[string]any{
		"playerId": id, "firstName": first, "lastName": last, "playerSlug": strings.ToLower(first + "-" + last),
		"teamId": team, "teamName": "Team", "teamCity": "City", "teamAbbreviation": "TM",
		"teamIsDefunct": int64(0), "season": "2024-25", "rosterStatus": int64(1),
		"fromYear": int64(2019), "toYear": int64(2024), "jerseyNum": "1",
	}
}

func schedule(gameID string, home, away, homeScore, awayScore int64) map[string]any {
	r := map[string]any{
		"gameId": gameID, "gameCode": "20241022/NYKBOS", "gameDateEst": "2024-10-22T00:00:00Z",
		"gameDateTimeEst": "2024-10-22T19:30:00Z", "gameDateTimeUTC": "2024-10-22T23:30:00Z",
		"seasonType": "Regular Season", "gameStatus": int64(3), "gameStatusText": "Final",
		"gameSequence": int64(1), "arenaName": "TD Garden", "arenaCity": "Boston", "arenaState": "MA",
		"isNeutral": false,
		"pointsLeaders": []any{map[string]any{"personId": int64(7), "teamId": home, "points": float64(homeScore)}},
	}
	for prefix, side := range map[string][2]int64{"homeTeam.": {home, homeScore}, "awayTeam.": {away, awayScore}} {
		r[prefix+"teamId"] = side[0]
		r[prefix+"teamName"] = "Team"
		r[prefix+"teamCity"] = "City"
		r[prefix+"teamTricode"] = "TM"
		r[prefix+"teamSlug"] = "team"
		r[prefix+"score"] = side[1]
		r[prefix+"wins"] = int64(1)
		r[prefix+"losses"] = int64(0)
	}
	return r
}

func boxscore(gameID string, home, away, homePoints, awayPoints int64) map[string]any {
	r := map[string]any{
		"gameId": gameID, "homeTeam_teamId": home, "awayTeam_teamId": away,
		"homeTeam_players": []any{map[string]any{"personId": int64(7), "starter": "1",
			"statistics": map[string]any{"minutes": "PT30M00.00S", "points": homePoints}}},
		"awayTeam_players": []any{map[string]any{"personId": int64(9), "starter": "1",
			"statistics": map[string]any{"minutes": "PT30M00.00S", "points": awayPoints}}},
	}
	for _, c := range transform.RequiredColumns(transform.DatasetBoxscore) {
		if strings.Contains(c, "_statistics_") {
			r[c] = int64(1)
		}
	}
	r["homeTeam_statistics_points"] = homePoints
	r["awayTeam_statistics_points"] = awayPoints
	return r
}

func action(gameID string, n, scoreHome, scoreAway int64) map[string]any {
	return map[string]any{
		"gameId": gameID, "actionNumber": n, "orderNumber": n * 10000, "period": int64(4),
		"clock": "PT00M01.00S", "timeActual": "2024-10-23T02:00:00Z",
		"teamId": int64(1), "personId": int64(7), "actionType": "2pt", "isFieldGoal": int64(1),
		"scoreHome": scoreHome, "scoreAway": scoreAway, "possession": int64(1),
		"location": "h", "description": "Layup",
	}
}

func sources(t *testing.T) transform.Sources {
	t.Helper()
	return transform.Sources{
		Players: source(t, transform.DatasetPlayers,
			player(7, 1, "Jayson", "Tatum"), player(9, 2, "Jalen", "Brunson")),
		Schedule:   source(t, transform.DatasetSchedule, schedule("0022400001", 1, 2, 12, 8)),
		Boxscore:   source(t, transform.DatasetBoxscore, boxscore("0022400001", 1, 2, 12, 8)),
		PlayByPlay: source(t, transform.DatasetPlayByPlay, action("0022400001", 1, 2, 0), action("0022400001", 2, 12, 8)),
	}
}

// stubExtract makes every run return src, or err when set.
func stubExtract(t *testing.T, src transform.Sources, err error) {
	t.Helper()
	prev := extractFn
	extractFn = func(context.Context, extract.Paths, extract.Options) (transform.Sources, error) {
		return src, err
	}
	t.Cleanup(func() { extractFn = prev })
}

func testConfig(t *testing.T, mode load.Mode) config.Pipeline {
	t.Helper()
	cfg := config.Defaults()
	cfg.Mode = string(mode)
	cfg.Storage.DSN = filepath.Join(t.TempDir(), "nba.db")
	cfg.Sources = config.Sources{
		Players: "players.parquet", Schedule: "schedule.parquet",
		Boxscore: "boxscore.parquet", PlayByPlay: "pbp.parquet",
	}
	return cfg
}

type step struct{ name, status string }

type recorder struct {
	mu    sync.Mutex
	steps []step
	rows  map[string]float64
}

func (r *recorder) IncCounter(name string, delta float64, l metrics.Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch name {
	case metrics.StepTotal:
		r.steps = append(r.steps, step{l["step"], l["status"]})
	case metrics.RecordsTotal:
		r.rows[l["kind"]] += delta
	}
}

func (r *recorder) ObserveHistogram(string, float64, metrics.Labels) {}
func (r *recorder) Flush() error                                     { return nil }

func record(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{rows: map[string]float64{}}
	metrics.SetBackend(r)
	t.Cleanup(metrics.Reset)
	return r
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, load.Upsert)
	cfg.Mode = "MERGE"
	_, err := New(cfg, nil)
	require.ErrorIs(t, err, load.ErrUnknownMode)

	cfg = testConfig(t, load.Upsert)
	cfg.Sources.Players = ""
	_, err = New(cfg, nil)
	require.ErrorContains(t, err, "sources.players")
}

func TestRunLoadsEveryTable(t *testing.T) {
	stubExtract(t, sources(t), nil)
	rec := record(t)

	r, err := New(testConfig(t, load.Upsert), zaptest.NewLogger(t))
	require.NoError(t, err)
	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, sum.RunID)
	require.Equal(t, load.Upsert, sum.Mode)
	require.Equal(t, map[string]int{"players": 2, "schedule": 1, "boxscore": 1, "pbp": 2}, sum.Extracted)
	require.Len(t, sum.Counts, len(model.LoadOrder))

	want := map[string]int64{
		model.TableTeams: 2, model.TablePlayers: 2, model.TableArenas: 1, model.TableDates: 1,
		model.TableRoster: 2, model.TableGames: 1, model.TableTeamGameStats: 2,
		model.TablePlayerGameStats: 2, model.TablePlayByPlay: 2, model.TableGameLeaders: 1,
	}
	for table, n := range want {
		got, ok := sum.Count(table)
		require.True(t, ok, table)
		require.Equal(t, n, got, table)
	}
	require.EqualValues(t, 16, sum.Load.Inserted())

	require.Equal(t, []step{
		{StageExtract, "success"}, {StageTransform, "success"}, {StageLoad, "success"}, {StageCount, "success"},
	}, rec.steps)
	require.EqualValues(t, 6, rec.rows["extracted"])
}

func TestRunLoadsCleanData(t *testing.T) {
	stubExtract(t, sources(t), nil)

	cfg := testConfig(t, load.FullRefresh)
	r, err := New(cfg, nil)
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	repo, err := OpenStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer repo.Close()

	results, err := verify.Check(context.Background(), repo)
	require.NoError(t, err)
	for _, res := range results {
		require.Truef(t, res.Passed(), "%s: %v", res, res.Details)
	}
}

func TestRunStopsAtFailedExtract(t *testing.T) {
	boom := errors.New("disk on fire")
	stubExtract(t, transform.Sources{}, boom)
	rec := record(t)

	cfg := testConfig(t, load.Upsert)
	r, err := New(cfg, nil)
	require.NoError(t, err)
	sum, err := r.Run(context.Background())
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "pipeline: extract")
	require.Nil(t, sum.Load)
	require.Nil(t, sum.Counts)
	require.Equal(t, []step{{StageExtract, "failure"}}, rec.steps)

	_, statErr := os.Stat(cfg.Storage.DSN)
	require.True(t, os.IsNotExist(statErr), "store must not be opened")
}

func TestRunStopsAtBrokenContract(t *testing.T) {
	src := sources(t)
	src.Boxscore = rowset.New(transform.DatasetBoxscore, "gameId")
	stubExtract(t, src, nil)

	r, err := New(testConfig(t, load.Upsert), nil)
	require.NoError(t, err)
	sum, err := r.Run(context.Background())
	require.ErrorIs(t, err, rowset.ErrSourceContract)
	require.ErrorContains(t, err, "pipeline: transform")
	require.Equal(t, 2, sum.Extracted["players"])
	require.Nil(t, sum.Load)
}

func TestRunReportsStoreFailure(t *testing.T) {
	stubExtract(t, sources(t), nil)
	prev := newRepositoryFn
	newRepositoryFn = func(context.Context, storage.Config) (storage.Repository, error) {
		return nil, errors.New("locked")
	}
	t.Cleanup(func() { newRepositoryFn = prev })

	r, err := New(testConfig(t, load.Upsert), nil)
	require.NoError(t, err)
	sum, err := r.Run(context.Background())
	require.ErrorContains(t, err, "locked")
	require.NotNil(t, sum.Transform)
	require.Nil(t, sum.Load)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	for _, mode := range load.Modes {
		mode := mode
		t.Run(string(mode), func(t *testing.T) {
			stubExtract(t, sources(t), nil)

			r, err := New(testConfig(t, mode), nil)
			require.NoError(t, err)
			res, err := r.RunTwice(context.Background())
			require.NoError(t, err)

			require.True(t, res.Idempotent(), "%v", res.Diff)
			require.Equal(t, res.First.Counts, res.Second.Counts)
			require.NotEqual(t, res.First.RunID, res.Second.RunID)
			require.EqualValues(t, 2, res.After[model.TableTeams].Rows)
		})
	}
}

func TestRunSkipsFactsOfGamesWithoutArena(t *testing.T) {
	for _, mode := range load.Modes {
		mode := mode
		t.Run(string(mode), func(t *testing.T) {
			src := sources(t)
			homeless := schedule("0022400002", 2, 1, 99, 97)
			homeless["arenaCity"] = nil
			src.Schedule = source(t, transform.DatasetSchedule, schedule("0022400001", 1, 2, 12, 8), homeless)
			src.Boxscore = source(t, transform.DatasetBoxscore,
				boxscore("0022400001", 1, 2, 12, 8), boxscore("0022400002", 2, 1, 99, 97))
			src.PlayByPlay = source(t, transform.DatasetPlayByPlay,
				action("0022400001", 1, 2, 0), action("0022400001", 2, 12, 8), action("0022400002", 1, 99, 97))
			stubExtract(t, src, nil)
			rec := record(t)

			r, err := New(testConfig(t, mode), zaptest.NewLogger(t))
			require.NoError(t, err)
			sum, err := r.Run(context.Background())
			require.NoError(t, err)

			games, ok := sum.Transform.For(model.TableGames)
			require.True(t, ok)
			require.Equal(t, 1, games.Unmatched)

			want := map[string]int64{
				model.TableGames: 1, model.TableTeamGameStats: 2, model.TablePlayerGameStats: 2,
				model.TablePlayByPlay: 2, model.TableGameLeaders: 1,
			}
			for table, n := range want {
				got, ok := sum.Count(table)
				require.True(t, ok, table)
				require.Equal(t, n, got, table)
			}
			// two team rows, two player rows, one action, one leader
			require.EqualValues(t, 6, rec.rows["orphaned"])
		})
	}
}

// commitFailure rolls back every transaction as if its commit had failed.
type commitFailure struct {
	storage.Repository
	err error
}

func (c commitFailure) WithTx(ctx context.Context, fn func(storage.Tx) error) error {
	return c.Repository.WithTx(ctx, func(tx storage.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return c.err
	})
}

func TestRunLabelsCommitFailureOnce(t *testing.T) {
	stubExtract(t, sources(t), nil)
	ioErr := errors.New("disk I/O error")
	prev := newRepositoryFn
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		repo, err := prev(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return commitFailure{Repository: repo, err: ioErr}, nil
	}
	t.Cleanup(func() { newRepositoryFn = prev })

	r, err := New(testConfig(t, load.FullRefresh), nil)
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.ErrorIs(t, err, ioErr)
	require.EqualError(t, err, "pipeline: load: commit: disk I/O error")

	var te *load.TableError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "commit", te.Op)
}

func TestRunPassesReaderOptions(t *testing.T) {
	var got extract.Options
	prev := extractFn
	extractFn = func(_ context.Context, _ extract.Paths, opts extract.Options) (transform.Sources, error) {
		got = opts
		return sources(t), nil
	}
	t.Cleanup(func() { extractFn = prev })

	cfg := testConfig(t, load.Upsert)
	cfg.Runtime.ReaderWorkers = 3
	cfg.Runtime.ReadBatchSize = 4096
	r, err := New(cfg, nil)
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, got.Workers)
	require.Equal(t, int64(4096), got.BatchSize)
	require.NotNil(t, got.Logger)
}
