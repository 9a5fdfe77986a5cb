package load

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"nbaetl/internal/model"
	"nbaetl/internal/rowset"
	"nbaetl/internal/schema"
	"nbaetl/internal/storage"
	"nbaetl/internal/storage/sqlite"
	"nbaetl/internal/transform"
)

var memSeq atomic.Int64

func openStore(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := storage.New(context.Background(), storage.Config{
		Kind:      sqlite.Kind,
		DSN:       fmt.Sprintf("file:load_test_%d?mode=memory", memSeq.Add(1)),
		BatchSize: 3,
	})
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func newReconciler(t *testing.T, repo storage.Repository, mode Mode) *Reconciler {
	t.Helper()
	sm, err := schema.NewManager(sqlite.Kind, nil)
	require.NoError(t, err)
	r, err := New(repo, sm, Options{Mode: mode, Job: "test"})
	require.NoError(t, err)
	return r
}

func records[T rowset.Record](t *testing.T, table string, cols []string, recs ...T) *rowset.RowSet {
	t.Helper()
	rs, err := rowset.FromRecords(table, cols, recs)
	require.NoError(t, err)
	return rs
}

func ptr[T any](v T) *T { return &v }

// fixture builds a consistent run: three teams, two players on a roster,
// one arena and one date, and for each game id a game between teams 1 and 2
// with its two team rows, two player rows, two actions and one leader.
// The home side scores home points in every game.
func fixture(t *testing.T, home int64, gameIDs ...string) *transform.Tables {
	t.Helper()

	var (
		games   []model.Game
		teams   []model.TeamGameStats
		players []model.PlayerGameStats
		pbp     []model.PlayByPlay
		leaders []model.GameLeader
	)
	for _, id := range gameIDs {
		games = append(games, model.Game{
			GameID: id, GameCode: "20241022/BOSNYK", GameDateID: 20241022,
			DateTimeEST: "2024-10-22 19:30:00", DateTimeUTC: "2024-10-22 23:30:00",
			SeasonType: "Regular Season", GameStatus: 3, GameStatusText: "Final",
			GameSequence: 1, ArenaID: 0, HomeTeamID: 1, AwayTeamID: 2,
			HomeScore: home, AwayScore: 100,
		})
		teams = append(teams,
			model.TeamGameStats{GameID: id, TeamID: 1, IsHomeTeam: true, Points: home, FieldGoalPct: ptr(0.5)},
			model.TeamGameStats{GameID: id, TeamID: 2, IsHomeTeam: false, Points: 100},
		)
		players = append(players,
			model.PlayerGameStats{GameID: id, PlayerID: 10, TeamID: 1, Starter: true, Minutes: ptr(int64(34)), Points: ptr(int64(30))},
			model.PlayerGameStats{GameID: id, PlayerID: 20, TeamID: 2, Minutes: ptr(int64(12))},
		)
		pbp = append(pbp,
			model.PlayByPlay{GameID: id, ActionNumber: 1, OrderNumber: 10000, Period: 1, Clock: "PT12M00.00S",
				TimeActual: "2024-10-22 23:40:00", ActionType: "period"},
			model.PlayByPlay{GameID: id, ActionNumber: 2, OrderNumber: 20000, Period: 1, Clock: "PT11M40.00S",
				TimeActual: "2024-10-22 23:40:20", TeamID: ptr(int64(1)), PlayerID: ptr(int64(10)),
				ActionType: "2pt", IsFieldGoal: true, ScoreHome: 2, Location: "h", Description: "Layup"},
		)
		leaders = append(leaders, model.GameLeader{GameID: id, TeamID: 1, PlayerID: 10, StatType: model.StatTypePoints, Value: 30})
	}

	return &transform.Tables{
		Teams: records(t, model.TableTeams, model.TeamColumns,
			model.Team{TeamID: 1, Name: "Celtics", City: "Boston", Tricode: "BOS", Slug: "celtics"},
			model.Team{TeamID: 2, Name: "Knicks", City: "New York", Tricode: "NYK", Slug: "knicks"},
			model.Team{TeamID: 3, Name: "Nets", City: "Brooklyn", Tricode: "BKN", Slug: "nets"},
		),
		Players: records(t, model.TablePlayers, model.PlayerColumns,
			model.Player{PlayerID: 10, FirstName: "Jayson", LastName: "Tatum", Slug: "jayson-tatum"},
			model.Player{PlayerID: 20, FirstName: "Jalen", LastName: "Brunson", Slug: "jalen-brunson"},
		),
		Arenas: records(t, model.TableArenas, model.ArenaColumns,
			model.Arena{ArenaID: 0, Name: "TD Garden", City: "Boston", State: ptr("MA")},
		),
		Dates: records(t, model.TableDates, model.DateColumns,
			model.Date{DateID: 20241022, FullDate: "2024-10-22", Year: 2024, Month: 10, DayOfWeek: 2, WeekNumber: 43},
		),
		Roster: records(t, model.TableRoster, model.RosterColumns,
			model.RosterEntry{PlayerID: 10, TeamID: 1, Season: "2024-25", FromYear: 2017, ToYear: 2024, JerseyNum: ptr("0")},
			model.RosterEntry{PlayerID: 20, TeamID: 2, Season: "2024-25", FromYear: 2018, ToYear: 2024, JerseyNum: ptr("11")},
		),
		Games:           records(t, model.TableGames, model.GameColumns, games...),
		TeamGameStats:   records(t, model.TableTeamGameStats, model.TeamGameStatsColumns, teams...),
		PlayerGameStats: records(t, model.TablePlayerGameStats, model.PlayerGameStatsColumns, players...),
		PlayByPlay:      records(t, model.TablePlayByPlay, model.PlayByPlayColumns, pbp...),
		GameLeaders:     records(t, model.TableGameLeaders, model.GameLeaderColumns, leaders...),
	}
}

// dump renders every row of table as text, sorted.
func dump(t *testing.T, repo storage.Repository, table string) []string {
	t.Helper()
	var out []string
	err := repo.Query(context.Background(), func(vals []any) error {
		out = append(out, fmt.Sprint(vals))
		return nil
	}, "SELECT * FROM "+table)
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

func counts(t *testing.T, repo storage.Repository) map[string]int64 {
	t.Helper()
	out := make(map[string]int64, len(model.LoadOrder))
	for _, name := range model.LoadOrder {
		n, err := repo.Count(context.Background(), name)
		require.NoError(t, err)
		out[name] = n
	}
	return out
}
