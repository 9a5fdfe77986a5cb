package transform

import "nbaetl/internal/rowset"

// Dataset names as they appear in configuration and logs.
const (
	DatasetPlayers    = "players"
	DatasetSchedule   = "schedule"
	DatasetBoxscore   = "boxscore"
	DatasetPlayByPlay = "pbp"
)

// Datasets lists the source datasets in extraction order.
var Datasets = []string{DatasetPlayers, DatasetSchedule, DatasetBoxscore, DatasetPlayByPlay}

var playerColumns = []string{
	"playerId", "firstName", "lastName", "playerSlug", "position", "height", "weight",
	"birthdate", "country", "draftYear", "draftRound", "draftNumber",
	"lastAffiliation", "lastAffiliationType",
}

var playerTeamColumns = []string{"teamId", "teamName", "teamCity", "teamAbbreviation", "teamIsDefunct"}

var rosterColumns = []string{
	"playerId", "teamId", "season", "rosterStatus", "fromYear", "toYear",
	"isTwoWay", "isTenDay", "jerseyNum", "seasonExperience",
}

var arenaColumns = []string{"arenaName", "arenaCity", "arenaState"}

var sideFields = []string{"teamId", "teamName", "teamCity", "teamTricode", "teamSlug", "score", "wins", "losses", "seed"}

var scheduleColumns = append([]string{
	"gameId", "gameCode", "gameDateEst", "gameDateTimeEst", "gameDateTimeUTC",
	"seasonType", "gameStatus", "gameStatusText", "gameSequence",
	"arenaName", "arenaCity", "arenaState", "isNeutral",
	"seriesGameNumber", "seriesText", "seriesConference", "gameLabel", "gameSubtype",
	"pointsLeaders",
}, append(prefixed("homeTeam.", sideFields), prefixed("awayTeam.", sideFields)...)...)

// teamCounters are the boxscore team statistics in fact_team_game_stats
// column order.
var teamCounters = []string{
	"points", "fieldGoalsMade", "fieldGoalsAttempted", "fieldGoalsPercentage",
	"threePointersMade", "threePointersAttempted", "threePointersPercentage",
	"freeThrowsMade", "freeThrowsAttempted", "freeThrowsPercentage",
	"reboundsOffensive", "reboundsDefensive", "reboundsTeam", "reboundsTotal",
	"assists", "turnovers", "steals", "blocks", "foulsPersonal",
	"pointsInThePaint", "pointsSecondChance", "pointsFastBreak", "pointsFromTurnovers",
	"foulsDrawn",
}

var boxscoreColumns = append(append([]string{
	"gameId", "homeTeam_teamId", "awayTeam_teamId", "homeTeam_players", "awayTeam_players",
}, prefixed("homeTeam_statistics_", teamCounters)...), prefixed("awayTeam_statistics_", teamCounters)...)

var playByPlayColumns = []string{
	"gameId", "actionNumber", "orderNumber", "period", "clock", "timeActual",
	"teamId", "personId", "actionType", "subType", "descriptor", "qualifiers",
	"x", "y", "side", "shotDistance", "shotResult", "isFieldGoal",
	"scoreHome", "scoreAway", "possession", "location", "description",
	"assistPersonId", "assistTotal", "stealPersonId", "turnoverTotal",
	"reboundTotal", "foulPersonalTotal", "foulDrawnPersonId",
}

func prefixed(prefix string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefix + n
	}
	return out
}

// RequiredColumns returns the columns a source dataset must carry.
func RequiredColumns(dataset string) []string {
	switch dataset {
	case DatasetPlayers:
		cols := append([]string{}, playerColumns...)
		cols = append(cols, playerTeamColumns...)
		for _, c := range rosterColumns {
			if c != "playerId" && c != "teamId" {
				cols = append(cols, c)
			}
		}
		return cols
	case DatasetSchedule:
		return append([]string{}, scheduleColumns...)
	case DatasetBoxscore:
		return append([]string{}, boxscoreColumns...)
	case DatasetPlayByPlay:
		return append([]string{}, playByPlayColumns...)
	}
	return nil
}

// CheckContract verifies every source carries its required columns. The
// first violation is returned as a *rowset.MissingColumnsError.
func CheckContract(src Sources) error {
	for _, ds := range Datasets {
		rs := src.Dataset(ds)
		if rs == nil {
			return &rowset.MissingColumnsError{RowSet: ds, Missing: RequiredColumns(ds)}
		}
		if err := rs.Require(RequiredColumns(ds)...); err != nil {
			return err
		}
	}
	return nil
}
