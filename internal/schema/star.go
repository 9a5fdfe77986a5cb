// Package schema declares the NBA star schema and manages its lifecycle in a
// store: idempotent creation of tables and indexes, and teardown in reverse
// dependency order.
package schema

import (
	"nbaetl/internal/ddl"
	"nbaetl/internal/model"
)

func col(name, typ string) ddl.ColumnDef { return ddl.ColumnDef{Name: name, Type: typ} }

func null(name, typ string) ddl.ColumnDef {
	return ddl.ColumnDef{Name: name, Type: typ, Nullable: true}
}

func pk(name, typ string) ddl.ColumnDef {
	return ddl.ColumnDef{Name: name, Type: typ, PrimaryKey: true}
}

func fk(column, refTable, refColumn string) ddl.ForeignKey {
	return ddl.ForeignKey{Columns: []string{column}, RefTable: refTable, RefColumns: []string{refColumn}}
}

func index(name string, cols ...string) ddl.IndexDef {
	return ddl.IndexDef{Name: name, Columns: cols}
}

var (
	teams = ddl.TableDef{
		FQN: model.TableTeams,
		Columns: []ddl.ColumnDef{
			pk("team_id", "int"),
			col("team_name", "text"),
			col("team_city", "text"),
			col("team_tricode", "text"),
			col("team_slug", "text"),
			col("is_defunct", "bool"),
		},
		Indexes: []ddl.IndexDef{index("idx_teams_tricode", "team_tricode")},
	}

	players = ddl.TableDef{
		FQN: model.TablePlayers,
		Columns: []ddl.ColumnDef{
			pk("player_id", "int"),
			col("first_name", "text"),
			col("last_name", "text"),
			col("player_slug", "text"),
			null("position", "text"),
			null("height", "text"),
			null("weight", "text"),
			null("birthdate", "date"),
			null("country", "text"),
			null("draft_year", "int"),
			null("draft_round", "int"),
			null("draft_number", "int"),
			null("last_affiliation", "text"),
			null("last_affiliation_type", "text"),
		},
		Indexes: []ddl.IndexDef{index("idx_players_name", "last_name", "first_name")},
	}

	arenas = ddl.TableDef{
		FQN: model.TableArenas,
		Columns: []ddl.ColumnDef{
			pk("arena_id", "int"),
			col("arena_name", "text"),
			col("arena_city", "text"),
			null("arena_state", "text"),
		},
	}

	dates = ddl.TableDef{
		FQN: model.TableDates,
		Columns: []ddl.ColumnDef{
			pk("date_id", "int"),
			col("full_date", "date"),
			col("year", "int"),
			col("month", "int"),
			col("day_of_week", "int"),
			col("week_number", "int"),
		},
	}

	roster = ddl.TableDef{
		FQN: model.TableRoster,
		Columns: []ddl.ColumnDef{
			pk("player_id", "int"),
			pk("team_id", "int"),
			pk("season", "text"),
			col("roster_status", "int"),
			col("from_year", "int"),
			col("to_year", "int"),
			null("is_two_way", "bool"),
			null("is_ten_day", "bool"),
			null("jersey_num", "text"),
			null("season_experience", "int"),
		},
		ForeignKeys: []ddl.ForeignKey{
			fk("player_id", model.TablePlayers, "player_id"),
			fk("team_id", model.TableTeams, "team_id"),
		},
		Indexes: []ddl.IndexDef{index("idx_roster_team_season", "team_id", "season")},
	}

	games = ddl.TableDef{
		FQN: model.TableGames,
		Columns: []ddl.ColumnDef{
			pk("game_id", "text"),
			col("game_code", "text"),
			col("game_date_id", "int"),
			col("game_datetime_est", "timestamp"),
			col("game_datetime_utc", "timestamp"),
			col("season_type", "text"),
			col("game_status", "int"),
			col("game_status_text", "text"),
			col("game_sequence", "int"),
			col("arena_id", "int"),
			col("home_team_id", "int"),
			col("away_team_id", "int"),
			col("home_score", "int"),
			col("away_score", "int"),
			col("home_wins", "int"),
			col("home_losses", "int"),
			null("home_seed", "int"),
			col("away_wins", "int"),
			col("away_losses", "int"),
			null("away_seed", "int"),
			col("is_neutral", "bool"),
			null("series_game_number", "text"),
			null("series_text", "text"),
			null("series_conference", "text"),
			null("game_label", "text"),
			null("game_subtype", "text"),
		},
		ForeignKeys: []ddl.ForeignKey{
			fk("game_date_id", model.TableDates, "date_id"),
			fk("arena_id", model.TableArenas, "arena_id"),
			fk("home_team_id", model.TableTeams, "team_id"),
			fk("away_team_id", model.TableTeams, "team_id"),
		},
		Indexes: []ddl.IndexDef{
			index("idx_games_date", "game_date_id"),
			index("idx_games_home_team", "home_team_id", "game_date_id"),
			index("idx_games_away_team", "away_team_id", "game_date_id"),
		},
	}

	teamGameStats = ddl.TableDef{
		FQN: model.TableTeamGameStats,
		Columns: []ddl.ColumnDef{
			pk("game_id", "text"),
			pk("team_id", "int"),
			col("is_home_team", "bool"),
			col("points", "int"),
			col("field_goals_made", "int"),
			col("field_goals_attempted", "int"),
			null("field_goal_pct", "real"),
			col("three_pointers_made", "int"),
			col("three_pointers_attempted", "int"),
			null("three_pointer_pct", "real"),
			col("free_throws_made", "int"),
			col("free_throws_attempted", "int"),
			null("free_throw_pct", "real"),
			col("rebounds_offensive", "int"),
			col("rebounds_defensive", "int"),
			col("rebounds_team", "int"),
			col("rebounds_total", "int"),
			col("assists", "int"),
			col("turnovers", "int"),
			col("steals", "int"),
			col("blocks", "int"),
			col("fouls_personal", "int"),
			col("points_in_paint", "int"),
			col("points_second_chance", "int"),
			col("points_fast_break", "int"),
			col("points_from_turnovers", "int"),
			col("fouls_drawn", "int"),
		},
		ForeignKeys: []ddl.ForeignKey{
			fk("game_id", model.TableGames, "game_id"),
			fk("team_id", model.TableTeams, "team_id"),
		},
	}

	playerGameStats = ddl.TableDef{
		FQN: model.TablePlayerGameStats,
		Columns: []ddl.ColumnDef{
			pk("game_id", "text"),
			pk("player_id", "int"),
			col("team_id", "int"),
			null("jersey_num", "text"),
			null("position", "text"),
			col("starter", "bool"),
			null("minutes", "int"),
			null("points", "int"),
			null("field_goals_made", "int"),
			null("field_goals_attempted", "int"),
			null("three_pointers_made", "int"),
			null("three_pointers_attempted", "int"),
			null("free_throws_made", "int"),
			null("free_throws_attempted", "int"),
			null("rebounds_offensive", "int"),
			null("rebounds_defensive", "int"),
			null("rebounds_total", "int"),
			null("assists", "int"),
			null("turnovers", "int"),
			null("steals", "int"),
			null("blocks", "int"),
			null("fouls_personal", "int"),
			null("plus_minus", "int"),
		},
		ForeignKeys: []ddl.ForeignKey{
			fk("game_id", model.TableGames, "game_id"),
			fk("player_id", model.TablePlayers, "player_id"),
			fk("team_id", model.TableTeams, "team_id"),
		},
		Indexes: []ddl.IndexDef{index("idx_player_stats_player", "player_id")},
	}

	playByPlay = ddl.TableDef{
		FQN: model.TablePlayByPlay,
		Columns: []ddl.ColumnDef{
			pk("game_id", "text"),
			pk("action_number", "int"),
			col("order_number", "int"),
			col("period", "int"),
			col("clock", "text"),
			col("time_actual", "timestamp"),
			null("team_id", "int"),
			null("player_id", "int"),
			col("action_type", "text"),
			null("sub_type", "text"),
			null("descriptor", "text"),
			null("qualifiers", "text"),
			null("x_coord", "real"),
			null("y_coord", "real"),
			null("side", "text"),
			null("shot_distance", "real"),
			null("shot_result", "text"),
			col("is_field_goal", "bool"),
			col("score_home", "int"),
			col("score_away", "int"),
			col("possession", "int"),
			col("location", "text"),
			col("description", "text"),
			null("assist_person_id", "int"),
			null("assist_total", "real"),
			null("steal_person_id", "int"),
			null("turnover_total", "real"),
			null("rebound_total", "real"),
			null("foul_personal_total", "real"),
			null("foul_drawn_person_id", "int"),
		},
		ForeignKeys: []ddl.ForeignKey{
			fk("game_id", model.TableGames, "game_id"),
			fk("team_id", model.TableTeams, "team_id"),
			fk("player_id", model.TablePlayers, "player_id"),
		},
		Indexes: []ddl.IndexDef{
			index("idx_pbp_period", "game_id", "period", "order_number"),
			index("idx_pbp_player", "player_id"),
		},
	}

	gameLeaders = ddl.TableDef{
		FQN: model.TableGameLeaders,
		Columns: []ddl.ColumnDef{
			pk("game_id", "text"),
			pk("team_id", "int"),
			pk("player_id", "int"),
			pk("stat_type", "text"),
			col("value", "real"),
		},
		ForeignKeys: []ddl.ForeignKey{
			fk("game_id", model.TableGames, "game_id"),
			fk("team_id", model.TableTeams, "team_id"),
			fk("player_id", model.TablePlayers, "player_id"),
		},
		Indexes: []ddl.IndexDef{index("idx_leaders_player_stat", "player_id", "stat_type")},
	}
)

// Star returns the ten star-schema tables in dependency order: dimensions,
// then the roster, then fact_games, then the tables keyed by game_id.
func Star() []ddl.TableDef {
	return []ddl.TableDef{
		teams, players, arenas, dates,
		roster, games, teamGameStats, playerGameStats, playByPlay, gameLeaders,
	}
}

// Table returns the declaration of a star-schema table by name.
func Table(name string) (ddl.TableDef, bool) {
	for _, t := range Star() {
		if t.FQN == name {
			return t, true
		}
	}
	return ddl.TableDef{}, false
}
