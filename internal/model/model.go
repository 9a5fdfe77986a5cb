// Package model holds the typed target records of the star schema. Each record
// maps one-to-one onto a row of its table; Values returns the cells in the
// column order given by the matching *Columns slice. Pointer fields are
// nullable columns.
//
// Dates are carried as "2006-01-02" text and timestamps as
// "2006-01-02 15:04:05" text, which is how SQLite stores DATE and TIMESTAMP
// affinity values written by this pipeline.
package model

// Table names.
const (
	TableTeams           = "dim_teams"
	TablePlayers         = "dim_players"
	TableArenas          = "dim_arenas"
	TableDates           = "dim_dates"
	TableRoster          = "fact_player_roster"
	TableGames           = "fact_games"
	TableTeamGameStats   = "fact_team_game_stats"
	TablePlayerGameStats = "fact_player_game_stats"
	TablePlayByPlay      = "fact_play_by_play"
	TableGameLeaders     = "fact_game_leaders"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"

	// StatTypePoints is the stat type of flat-format leader entries.
	StatTypePoints = "points"
)

// LoadOrder lists every table with referenced tables before the tables
// that reference them.
var LoadOrder = []string{
	TableTeams,
	TablePlayers,
	TableArenas,
	TableDates,
	TableRoster,
	TableGames,
	TableTeamGameStats,
	TablePlayerGameStats,
	TablePlayByPlay,
	TableGameLeaders,
}

func opt[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Team is a row of dim_teams.
type Team struct {
	TeamID    int64
	Name      string
	City      string
	Tricode   string
	Slug      string
	IsDefunct bool
}

var TeamColumns = []string{"team_id", "team_name", "team_city", "team_tricode", "team_slug", "is_defunct"}

func (t Team) Values() []any {
	return []any{t.TeamID, t.Name, t.City, t.Tricode, t.Slug, t.IsDefunct}
}

// Player is a row of dim_players.
type Player struct {
	PlayerID            int64
	FirstName           string
	LastName            string
	Slug                string
	Position            *string
	Height              *string
	Weight              *string
	Birthdate           *string
	Country             *string
	DraftYear           *int64
	DraftRound          *int64
	DraftNumber         *int64
	LastAffiliation     *string
	LastAffiliationType *string
}

var PlayerColumns = []string{
	"player_id", "first_name", "last_name", "player_slug", "position", "height", "weight",
	"birthdate", "country", "draft_year", "draft_round", "draft_number",
	"last_affiliation", "last_affiliation_type",
}

func (p Player) Values() []any {
	return []any{
		p.PlayerID, p.FirstName, p.LastName, p.Slug, opt(p.Position), opt(p.Height), opt(p.Weight),
		opt(p.Birthdate), opt(p.Country), opt(p.DraftYear), opt(p.DraftRound), opt(p.DraftNumber),
		opt(p.LastAffiliation), opt(p.LastAffiliationType),
	}
}

// Arena is a row of dim_arenas. ArenaID is a surrogate assigned per run.
type Arena struct {
	ArenaID int64
	Name    string
	City    string
	State   *string
}

var ArenaColumns = []string{"arena_id", "arena_name", "arena_city", "arena_state"}

func (a Arena) Values() []any {
	return []any{a.ArenaID, a.Name, a.City, opt(a.State)}
}

// Date is a row of dim_dates. DayOfWeek is 1 for Monday; WeekNumber is the
// ISO week.
type Date struct {
	DateID     int64
	FullDate   string
	Year       int64
	Month      int64
	DayOfWeek  int64
	WeekNumber int64
}

var DateColumns = []string{"date_id", "full_date", "year", "month", "day_of_week", "week_number"}

func (d Date) Values() []any {
	return []any{d.DateID, d.FullDate, d.Year, d.Month, d.DayOfWeek, d.WeekNumber}
}

// RosterEntry is a row of fact_player_roster.
type RosterEntry struct {
	PlayerID         int64
	TeamID           int64
	Season           string
	RosterStatus     int64
	FromYear         int64
	ToYear           int64
	IsTwoWay         *bool
	IsTenDay         *bool
	JerseyNum        *string
	SeasonExperience *int64
}

var RosterColumns = []string{
	"player_id", "team_id", "season", "roster_status", "from_year", "to_year",
	"is_two_way", "is_ten_day", "jersey_num", "season_experience",
}

func (r RosterEntry) Values() []any {
	return []any{
		r.PlayerID, r.TeamID, r.Season, r.RosterStatus, r.FromYear, r.ToYear,
		opt(r.IsTwoWay), opt(r.IsTenDay), opt(r.JerseyNum), opt(r.SeasonExperience),
	}
}

// Game is a row of fact_games.
type Game struct {
	GameID           string
	GameCode         string
	GameDateID       int64
	DateTimeEST      string
	DateTimeUTC      string
	SeasonType       string
	GameStatus       int64
	GameStatusText   string
	GameSequence     int64
	ArenaID          int64
	HomeTeamID       int64
	AwayTeamID       int64
	HomeScore        int64
	AwayScore        int64
	HomeWins         int64
	HomeLosses       int64
	HomeSeed         *int64
	AwayWins         int64
	AwayLosses       int64
	AwaySeed         *int64
	IsNeutral        bool
	SeriesGameNumber *string
	SeriesText       *string
	SeriesConference *string
	GameLabel        *string
	GameSubtype      *string
}

var GameColumns = []string{
	"game_id", "game_code", "game_date_id", "game_datetime_est", "game_datetime_utc",
	"season_type", "game_status", "game_status_text", "game_sequence", "arena_id",
	"home_team_id", "away_team_id", "home_score", "away_score",
	"home_wins", "home_losses", "home_seed", "away_wins", "away_losses", "away_seed",
	"is_neutral", "series_game_number", "series_text", "series_conference",
	"game_label", "game_subtype",
}

func (g Game) Values() []any {
	return []any{
		g.GameID, g.GameCode, g.GameDateID, g.DateTimeEST, g.DateTimeUTC,
		g.SeasonType, g.GameStatus, g.GameStatusText, g.GameSequence, g.ArenaID,
		g.HomeTeamID, g.AwayTeamID, g.HomeScore, g.AwayScore,
		g.HomeWins, g.HomeLosses, opt(g.HomeSeed), g.AwayWins, g.AwayLosses, opt(g.AwaySeed),
		g.IsNeutral, opt(g.SeriesGameNumber), opt(g.SeriesText), opt(g.SeriesConference),
		opt(g.GameLabel), opt(g.GameSubtype),
	}
}

// TeamGameStats is a row of fact_team_game_stats: one team's side of a game.
type TeamGameStats struct {
	GameID                 string
	TeamID                 int64
	IsHomeTeam             bool
	Points                 int64
	FieldGoalsMade         int64
	FieldGoalsAttempted    int64
	FieldGoalPct           *float64
	ThreePointersMade      int64
	ThreePointersAttempted int64
	ThreePointerPct        *float64
	FreeThrowsMade         int64
	FreeThrowsAttempted    int64
	FreeThrowPct           *float64
	ReboundsOffensive      int64
	ReboundsDefensive      int64
	ReboundsTeam           int64
	ReboundsTotal          int64
	Assists                int64
	Turnovers              int64
	Steals                 int64
	Blocks                 int64
	FoulsPersonal          int64
	PointsInPaint          int64
	PointsSecondChance     int64
	PointsFastBreak        int64
	PointsFromTurnovers    int64
	FoulsDrawn             int64
}

var TeamGameStatsColumns = []string{
	"game_id", "team_id", "is_home_team", "points",
	"field_goals_made", "field_goals_attempted", "field_goal_pct",
	"three_pointers_made", "three_pointers_attempted", "three_pointer_pct",
	"free_throws_made", "free_throws_attempted", "free_throw_pct",
	"rebounds_offensive", "rebounds_defensive", "rebounds_team", "rebounds_total",
	"assists", "turnovers", "steals", "blocks", "fouls_personal",
	"points_in_paint", "points_second_chance", "points_fast_break", "points_from_turnovers",
	"fouls_drawn",
}

func (s TeamGameStats) Values() []any {
	return []any{
		s.GameID, s.TeamID, s.IsHomeTeam, s.Points,
		s.FieldGoalsMade, s.FieldGoalsAttempted, opt(s.FieldGoalPct),
		s.ThreePointersMade, s.ThreePointersAttempted, opt(s.ThreePointerPct),
		s.FreeThrowsMade, s.FreeThrowsAttempted, opt(s.FreeThrowPct),
		s.ReboundsOffensive, s.ReboundsDefensive, s.ReboundsTeam, s.ReboundsTotal,
		s.Assists, s.Turnovers, s.Steals, s.Blocks, s.FoulsPersonal,
		s.PointsInPaint, s.PointsSecondChance, s.PointsFastBreak, s.PointsFromTurnovers,
		s.FoulsDrawn,
	}
}

// PlayerGameStats is a row of fact_player_game_stats.
type PlayerGameStats struct {
	GameID                 string
	PlayerID               int64
	TeamID                 int64
	JerseyNum              *string
	Position               *string
	Starter                bool
	Minutes                *int64
	Points                 *int64
	FieldGoalsMade         *int64
	FieldGoalsAttempted    *int64
	ThreePointersMade      *int64
	ThreePointersAttempted *int64
	FreeThrowsMade         *int64
	FreeThrowsAttempted    *int64
	ReboundsOffensive      *int64
	ReboundsDefensive      *int64
	ReboundsTotal          *int64
	Assists                *int64
	Turnovers              *int64
	Steals                 *int64
	Blocks                 *int64
	FoulsPersonal          *int64
	PlusMinus              *int64
}

var PlayerGameStatsColumns = []string{
	"game_id", "player_id", "team_id", "jersey_num", "position", "starter", "minutes",
	"points", "field_goals_made", "field_goals_attempted",
	"three_pointers_made", "three_pointers_attempted",
	"free_throws_made", "free_throws_attempted",
	"rebounds_offensive", "rebounds_defensive", "rebounds_total",
	"assists", "turnovers", "steals", "blocks", "fouls_personal", "plus_minus",
}

func (s PlayerGameStats) Values() []any {
	return []any{
		s.GameID, s.PlayerID, s.TeamID, opt(s.JerseyNum), opt(s.Position), s.Starter, opt(s.Minutes),
		opt(s.Points), opt(s.FieldGoalsMade), opt(s.FieldGoalsAttempted),
		opt(s.ThreePointersMade), opt(s.ThreePointersAttempted),
		opt(s.FreeThrowsMade), opt(s.FreeThrowsAttempted),
		opt(s.ReboundsOffensive), opt(s.ReboundsDefensive), opt(s.ReboundsTotal),
		opt(s.Assists), opt(s.Turnovers), opt(s.Steals), opt(s.Blocks), opt(s.FoulsPersonal), opt(s.PlusMinus),
	}
}

// PlayByPlay is a row of fact_play_by_play.
type PlayByPlay struct {
	GameID            string
	ActionNumber      int64
	OrderNumber       int64
	Period            int64
	Clock             string
	TimeActual        string
	TeamID            *int64
	PlayerID          *int64
	ActionType        string
	SubType           *string
	Descriptor        *string
	Qualifiers        *string
	XCoord            *float64
	YCoord            *float64
	Side              *string
	ShotDistance      *float64
	ShotResult        *string
	IsFieldGoal       bool
	ScoreHome         int64
	ScoreAway         int64
	Possession        int64
	Location          string
	Description       string
	AssistPersonID    *int64
	AssistTotal       *float64
	StealPersonID     *int64
	TurnoverTotal     *float64
	ReboundTotal      *float64
	FoulPersonalTotal *float64
	FoulDrawnPersonID *int64
}

var PlayByPlayColumns = []string{
	"game_id", "action_number", "order_number", "period", "clock", "time_actual",
	"team_id", "player_id", "action_type", "sub_type", "descriptor", "qualifiers",
	"x_coord", "y_coord", "side", "shot_distance", "shot_result", "is_field_goal",
	"score_home", "score_away", "possession", "location", "description",
	"assist_person_id", "assist_total", "steal_person_id", "turnover_total",
	"rebound_total", "foul_personal_total", "foul_drawn_person_id",
}

func (p PlayByPlay) Values() []any {
	return []any{
		p.GameID, p.ActionNumber, p.OrderNumber, p.Period, p.Clock, p.TimeActual,
		opt(p.TeamID), opt(p.PlayerID), p.ActionType, opt(p.SubType), opt(p.Descriptor), opt(p.Qualifiers),
		opt(p.XCoord), opt(p.YCoord), opt(p.Side), opt(p.ShotDistance), opt(p.ShotResult), p.IsFieldGoal,
		p.ScoreHome, p.ScoreAway, p.Possession, p.Location, p.Description,
		opt(p.AssistPersonID), opt(p.AssistTotal), opt(p.StealPersonID), opt(p.TurnoverTotal),
		opt(p.ReboundTotal), opt(p.FoulPersonalTotal), opt(p.FoulDrawnPersonID),
	}
}

// GameLeader is a row of fact_game_leaders.
type GameLeader struct {
	GameID   string
	TeamID   int64
	PlayerID int64
	StatType string
	Value    float64
}

var GameLeaderColumns = []string{"game_id", "team_id", "player_id", "stat_type", "value"}

func (l GameLeader) Values() []any {
	return []any{l.GameID, l.TeamID, l.PlayerID, l.StatType, l.Value}
}
