package transform

import (
	"sort"

	"nbaetl/internal/model"
	"nbaetl/internal/rowset"
)

// BuildGames projects the schedule onto fact_games and resolves arena_id
// against arenas. Games whose arena has no row are dropped and counted as
// unmatched.
func BuildGames(schedule, arenas *rowset.RowSet) (*rowset.RowSet, Stats, error) {
	st := Stats{Table: model.TableGames}
	if err := schedule.Require(scheduleColumns...); err != nil {
		return nil, st, err
	}
	idx, err := arenaIndex(arenas)
	if err != nil {
		return nil, st, err
	}

	recs := make([]model.Game, 0, schedule.Len())
	for i := 0; i < schedule.Len(); i++ {
		st.In++
		row := schedule.Row(i)
		f := rowFields(row.Get)

		name, _ := toString(row.Get("arenaName"))
		city, _ := toString(row.Get("arenaCity"))
		var state any
		if s, ok := toString(row.Get("arenaState")); ok {
			state = s
		}
		arenaID, ok := idx[arenaKeyOf(name, city, state)]
		if !ok {
			st.Unmatched++
			continue
		}

		g := model.Game{
			GameID:           f.str("gameId"),
			GameCode:         f.str("gameCode"),
			GameDateID:       dateID(f.time("gameDateEst")),
			DateTimeEST:      f.timestamp("gameDateTimeEst"),
			DateTimeUTC:      f.timestamp("gameDateTimeUTC"),
			SeasonType:       f.str("seasonType"),
			GameStatus:       f.int("gameStatus"),
			GameStatusText:   f.str("gameStatusText"),
			GameSequence:     f.int("gameSequence"),
			ArenaID:          arenaID,
			HomeTeamID:       f.int("homeTeam.teamId"),
			AwayTeamID:       f.int("awayTeam.teamId"),
			HomeScore:        f.int("homeTeam.score"),
			AwayScore:        f.int("awayTeam.score"),
			HomeWins:         f.int("homeTeam.wins"),
			HomeLosses:       f.int("homeTeam.losses"),
			HomeSeed:         f.optInt("homeTeam.seed"),
			AwayWins:         f.int("awayTeam.wins"),
			AwayLosses:       f.int("awayTeam.losses"),
			AwaySeed:         f.optInt("awayTeam.seed"),
			IsNeutral:        f.flag("isNeutral"),
			SeriesGameNumber: f.optStr("seriesGameNumber"),
			SeriesText:       f.optStr("seriesText"),
			SeriesConference: f.optStr("seriesConference"),
			GameLabel:        f.optStr("gameLabel"),
			GameSubtype:      f.optStr("gameSubtype"),
		}
		if !f.ok() {
			st.Invalid++
			continue
		}
		recs = append(recs, g)
	}
	rs, err := finish(&st, model.TableGames, model.GameColumns, recs, "game_id")
	return rs, st, err
}

// BuildTeamGameStats emits two rows per boxscore game, home side first.
func BuildTeamGameStats(boxscore *rowset.RowSet) (*rowset.RowSet, Stats, error) {
	st := Stats{Table: model.TableTeamGameStats}
	if err := boxscore.Require(boxscoreColumns...); err != nil {
		return nil, st, err
	}

	recs := make([]model.TeamGameStats, 0, 2*boxscore.Len())
	for i := 0; i < boxscore.Len(); i++ {
		row := boxscore.Row(i)
		for _, side := range []string{"homeTeam", "awayTeam"} {
			st.In++
			f := rowFields(row.Get)
			s := func(name string) string { return side + "_statistics_" + name }
			r := model.TeamGameStats{
				GameID:                 f.str("gameId"),
				TeamID:                 f.int(side + "_teamId"),
				IsHomeTeam:             side == "homeTeam",
				Points:                 f.int(s("points")),
				FieldGoalsMade:         f.int(s("fieldGoalsMade")),
				FieldGoalsAttempted:    f.int(s("fieldGoalsAttempted")),
				FieldGoalPct:           f.optFloat(s("fieldGoalsPercentage")),
				ThreePointersMade:      f.int(s("threePointersMade")),
				ThreePointersAttempted: f.int(s("threePointersAttempted")),
				ThreePointerPct:        f.optFloat(s("threePointersPercentage")),
				FreeThrowsMade:         f.int(s("freeThrowsMade")),
				FreeThrowsAttempted:    f.int(s("freeThrowsAttempted")),
				FreeThrowPct:           f.optFloat(s("freeThrowsPercentage")),
				ReboundsOffensive:      f.int(s("reboundsOffensive")),
				ReboundsDefensive:      f.int(s("reboundsDefensive")),
				ReboundsTeam:           f.int(s("reboundsTeam")),
				ReboundsTotal:          f.int(s("reboundsTotal")),
				Assists:                f.int(s("assists")),
				Turnovers:              f.int(s("turnovers")),
				Steals:                 f.int(s("steals")),
				Blocks:                 f.int(s("blocks")),
				FoulsPersonal:          f.int(s("foulsPersonal")),
				PointsInPaint:          f.int(s("pointsInThePaint")),
				PointsSecondChance:     f.int(s("pointsSecondChance")),
				PointsFastBreak:        f.int(s("pointsFastBreak")),
				PointsFromTurnovers:    f.int(s("pointsFromTurnovers")),
				FoulsDrawn:             f.int(s("foulsDrawn")),
			}
			if !f.ok() {
				st.Invalid++
				continue
			}
			recs = append(recs, r)
		}
	}
	rs, err := finish(&st, model.TableTeamGameStats, model.TeamGameStatsColumns, recs, "game_id", "team_id")
	return rs, st, err
}

// BuildPlayerGameStats flattens the nested player lists of both sides of
// every boxscore game. Entries without a personId are skipped.
func BuildPlayerGameStats(boxscore *rowset.RowSet) (*rowset.RowSet, Stats, error) {
	st := Stats{Table: model.TablePlayerGameStats}
	if err := boxscore.Require("gameId", "homeTeam_teamId", "awayTeam_teamId", "homeTeam_players", "awayTeam_players"); err != nil {
		return nil, st, err
	}

	var recs []model.PlayerGameStats
	for i := 0; i < boxscore.Len(); i++ {
		st.In++
		row := boxscore.Row(i)
		had := false
		for _, side := range []string{"homeTeam", "awayTeam"} {
			entries, bad := normalizeRecords(row.Get(side + "_players"))
			st.Skipped += bad
			for _, p := range entries {
				if !truthy(p["personId"]) {
					st.Skipped++
					continue
				}
				had = true

				game := rowFields(row.Get)
				pf := mapFields(p)
				sf := mapFields(nestedRecord(p, "statistics"))
				starter, known := parseStarter(p["starter"])
				if !known {
					st.Unexpected++
				}
				r := model.PlayerGameStats{
					GameID:                 game.str("gameId"),
					PlayerID:               pf.int("personId"),
					TeamID:                 game.int(side + "_teamId"),
					JerseyNum:              pf.optStr("jerseyNum"),
					Position:               pf.optStr("position"),
					Starter:                starter,
					Minutes:                parseMinutes(sf.get("minutes")),
					Points:                 sf.optInt("points"),
					FieldGoalsMade:         sf.optInt("fieldGoalsMade"),
					FieldGoalsAttempted:    sf.optInt("fieldGoalsAttempted"),
					ThreePointersMade:      sf.optInt("threePointersMade"),
					ThreePointersAttempted: sf.optInt("threePointersAttempted"),
					FreeThrowsMade:         sf.optInt("freeThrowsMade"),
					FreeThrowsAttempted:    sf.optInt("freeThrowsAttempted"),
					ReboundsOffensive:      sf.optInt("reboundsOffensive"),
					ReboundsDefensive:      sf.optInt("reboundsDefensive"),
					ReboundsTotal:          sf.optInt("reboundsTotal"),
					Assists:                sf.optInt("assists"),
					Turnovers:              sf.optInt("turnovers"),
					Steals:                 sf.optInt("steals"),
					Blocks:                 sf.optInt("blocks"),
					FoulsPersonal:          sf.optInt("foulsPersonal"),
					PlusMinus:              sf.optInt("plusMinusPoints"),
				}
				if !game.ok() || !pf.ok() {
					st.Invalid++
					continue
				}
				recs = append(recs, r)
			}
		}
		if !had {
			st.EmptyGames++
		}
	}
	rs, err := finish(&st, model.TablePlayerGameStats, model.PlayerGameStatsColumns, recs, "game_id", "player_id")
	return rs, st, err
}

// BuildPlayByPlay projects play-by-play actions. Missing location and
// description become empty text; zero team or person ids become NULL.
func BuildPlayByPlay(pbp *rowset.RowSet) (*rowset.RowSet, Stats, error) {
	st := Stats{Table: model.TablePlayByPlay}
	if err := pbp.Require(playByPlayColumns...); err != nil {
		return nil, st, err
	}

	recs := make([]model.PlayByPlay, 0, pbp.Len())
	for i := 0; i < pbp.Len(); i++ {
		st.In++
		f := rowFields(pbp.Row(i).Get)
		r := model.PlayByPlay{
			GameID:            f.str("gameId"),
			ActionNumber:      f.int("actionNumber"),
			OrderNumber:       f.int("orderNumber"),
			Period:            f.int("period"),
			Clock:             f.str("clock"),
			TimeActual:        f.timestamp("timeActual"),
			TeamID:            f.optID("teamId"),
			PlayerID:          f.optID("personId"),
			ActionType:        f.str("actionType"),
			SubType:           f.optStr("subType"),
			Descriptor:        f.optStr("descriptor"),
			Qualifiers:        f.optStr("qualifiers"),
			XCoord:            f.optFloat("x"),
			YCoord:            f.optFloat("y"),
			Side:              f.optStr("side"),
			ShotDistance:      f.optFloat("shotDistance"),
			ShotResult:        f.optStr("shotResult"),
			IsFieldGoal:       f.bool("isFieldGoal"),
			ScoreHome:         f.int("scoreHome"),
			ScoreAway:         f.int("scoreAway"),
			Possession:        f.int("possession"),
			Location:          f.strOr("location", ""),
			Description:       f.strOr("description", ""),
			AssistPersonID:    f.optID("assistPersonId"),
			AssistTotal:       f.optFloat("assistTotal"),
			StealPersonID:     f.optID("stealPersonId"),
			TurnoverTotal:     f.optFloat("turnoverTotal"),
			ReboundTotal:      f.optFloat("reboundTotal"),
			FoulPersonalTotal: f.optFloat("foulPersonalTotal"),
			FoulDrawnPersonID: f.optID("foulDrawnPersonId"),
		}
		if !f.ok() {
			st.Invalid++
			continue
		}
		recs = append(recs, r)
	}
	rs, err := finish(&st, model.TablePlayByPlay, model.PlayByPlayColumns, recs, "game_id", "action_number")
	return rs, st, err
}

// BuildGameLeaders unpacks the pointsLeaders cell of every scheduled game.
// Two shapes are accepted: a list of {personId, teamId, points} entries
// (stat type "points"), and the legacy {homeLeaders, awayLeaders} map keyed
// by stat type, where the team comes from the game's side.
func BuildGameLeaders(schedule *rowset.RowSet) (*rowset.RowSet, Stats, error) {
	st := Stats{Table: model.TableGameLeaders}
	if err := schedule.Require("gameId", "pointsLeaders", "homeTeam.teamId", "awayTeam.teamId"); err != nil {
		return nil, st, err
	}

	var recs []model.GameLeader
	for i := 0; i < schedule.Len(); i++ {
		st.In++
		row := schedule.Row(i)
		game := rowFields(row.Get)
		gameID := game.str("gameId")
		if !game.ok() {
			st.Invalid++
			continue
		}

		cell, ok := decodeJSON(row.Get("pointsLeaders"))
		if !ok {
			st.Skipped++
			continue
		}
		switch v := cell.(type) {
		case nil:
		case map[string]any:
			if _, flat := v["personId"]; flat {
				recs = appendFlatLeaders(recs, &st, gameID, []any{v})
				continue
			}
			for _, side := range []string{"home", "away"} {
				teamID, ok := toInt(row.Get(side + "Team.teamId"))
				if !ok {
					st.Invalid++
					continue
				}
				recs = appendLegacyLeaders(recs, &st, gameID, teamID, v[side+"Leaders"])
			}
		case []any:
			recs = appendFlatLeaders(recs, &st, gameID, v)
		case []map[string]any:
			items := make([]any, len(v))
			for j := range v {
				items[j] = v[j]
			}
			recs = appendFlatLeaders(recs, &st, gameID, items)
		default:
			st.Skipped++
		}
	}
	rs, err := finish(&st, model.TableGameLeaders, model.GameLeaderColumns, recs,
		"game_id", "team_id", "player_id", "stat_type")
	return rs, st, err
}

func appendFlatLeaders(recs []model.GameLeader, st *Stats, gameID string, items []any) []model.GameLeader {
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok || !truthy(m["personId"]) {
			st.Skipped++
			continue
		}
		f := mapFields(m)
		l := model.GameLeader{
			GameID:   gameID,
			TeamID:   f.int("teamId"),
			PlayerID: f.int("personId"),
			StatType: model.StatTypePoints,
		}
		if v := f.optFloat("points"); v != nil {
			l.Value = *v
		}
		if !f.ok() {
			st.Skipped++
			continue
		}
		recs = append(recs, l)
	}
	return recs
}

func appendLegacyLeaders(recs []model.GameLeader, st *Stats, gameID string, teamID int64, side any) []model.GameLeader {
	if side == nil {
		return recs
	}
	byStat, ok := side.(map[string]any)
	if !ok {
		st.Skipped++
		return recs
	}
	stats := make([]string, 0, len(byStat))
	for k := range byStat {
		stats = append(stats, k)
	}
	sort.Strings(stats)
	for _, statType := range stats {
		m, ok := byStat[statType].(map[string]any)
		if !ok || !truthy(m["personId"]) {
			st.Skipped++
			continue
		}
		f := mapFields(m)
		l := model.GameLeader{
			GameID:   gameID,
			TeamID:   teamID,
			PlayerID: f.int("personId"),
			StatType: statType,
		}
		if v := f.optFloat("value"); v != nil {
			l.Value = *v
		}
		if !f.ok() {
			st.Skipped++
			continue
		}
		recs = append(recs, l)
	}
	return recs
}
