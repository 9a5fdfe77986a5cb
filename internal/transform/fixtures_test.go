package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nbaetl/internal/rowset"
)

// source builds a dataset carrying every required column. Cells not named
// in a row map are nil.
func source(tb testing.TB, dataset string, rows ...map[string]any) *rowset.RowSet {
	tb.Helper()
	cols := RequiredColumns(dataset)
	rs := rowset.New(dataset, cols...)
	for _, r := range rows {
		for k := range r {
			if !rs.Has(k) {
				tb.Fatalf("fixture for %s uses unknown column %q", dataset, k)
			}
		}
		vals := make([]any, len(cols))
		for i, c := range cols {
			vals[i] = r[c]
		}
		require.NoError(tb, rs.Append(vals...))
	}
	return rs
}

func playerRow(playerID, teamID int64, season any) map[string]any {
	return map[string]any{
		"playerId": playerID, "firstName": "First", "lastName": "Last",
		"playerSlug": "first-last", "position": "G", "height": "6-3", "weight": "190",
		"birthdate": "1998-03-04T00:00:00", "country": "USA",
		"draftYear": int64(2019), "draftRound": int64(1), "draftNumber": int64(5),
		"teamId": teamID, "teamName": "Hawks", "teamCity": "Atlanta",
		"teamAbbreviation": "ATL", "teamIsDefunct": int64(0),
		"season": season, "rosterStatus": int64(1), "fromYear": int64(2019), "toYear": int64(2024),
		"isTwoWay": false, "isTenDay": false, "jerseyNum": "11", "seasonExperience": int64(5),
	}
}

type game struct {
	id         string
	date       string
	home, away int64
	homeScore  int64
	awayScore  int64
	arena      string
	city       string
	state      any
	leaders    any
}

func scheduleRow(g game) map[string]any {
	r := map[string]any{
		"gameId": g.id, "gameCode": g.date + "/ATLBOS", "gameDateEst": g.date + "T00:00:00Z",
		"gameDateTimeEst": g.date + "T19:30:00Z", "gameDateTimeUTC": g.date + "T23:30:00Z",
		"seasonType": "Regular Season", "gameStatus": int64(3), "gameStatusText": "Final",
		"gameSequence": int64(1), "arenaName": g.arena, "arenaCity": g.city, "arenaState": g.state,
		"isNeutral": false, "pointsLeaders": g.leaders,
	}
	side := func(prefix string, id, score int64) {
		r[prefix+"teamId"] = id
		r[prefix+"teamName"] = "Team " + string(rune('A'+id%26))
		r[prefix+"teamCity"] = "City"
		r[prefix+"teamTricode"] = "T" + string(rune('A'+id%26))
		r[prefix+"teamSlug"] = "team-slug"
		r[prefix+"score"] = score
		r[prefix+"wins"] = int64(1)
		r[prefix+"losses"] = int64(0)
	}
	side("homeTeam.", g.home, g.homeScore)
	side("awayTeam.", g.away, g.awayScore)
	return r
}

func boxRow(gameID string, home, away int64, homePoints, awayPoints int64, homePlayers, awayPlayers any) map[string]any {
	r := map[string]any{
		"gameId": gameID, "homeTeam_teamId": home, "awayTeam_teamId": away,
		"homeTeam_players": homePlayers, "awayTeam_players": awayPlayers,
	}
	for _, side := range []string{"homeTeam", "awayTeam"} {
		for _, c := range teamCounters {
			r[side+"_statistics_"+c] = int64(1)
		}
	}
	r["homeTeam_statistics_points"] = homePoints
	r["awayTeam_statistics_points"] = awayPoints
	r["homeTeam_statistics_fieldGoalsPercentage"] = 0.5
	r["awayTeam_statistics_fieldGoalsPercentage"] = nil
	return r
}

func pbpRow(gameID string, action int64) map[string]any {
	return map[string]any{
		"gameId": gameID, "actionNumber": action, "orderNumber": action * 10, "period": int64(1),
		"clock": "PT12M00.00S", "timeActual": "2024-10-22T23:41:35.4Z",
		"teamId": int64(1), "personId": int64(7), "actionType": "2pt",
		"isFieldGoal": int64(1), "scoreHome": "2", "scoreAway": "0", "possession": int64(1),
		"location": "h", "description": "Jump Shot",
	}
}
