package verify

import (
	"context"
	"fmt"
	"strings"

	"nbaetl/internal/storage"
)

// Severity grades a failed check.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Category groups related checks.
type Category string

const (
	CategoryDuplicates   Category = "duplicates"
	CategoryIntegrity    Category = "referential integrity"
	CategoryCompleteness Category = "completeness"
	CategoryMalformed    Category = "malformed data"
	CategoryConsistency  Category = "consistency"
)

// maxDetails caps the offending rows kept per check.
const maxDetails = 5

// Result is the outcome of one check. Count is the number of offending rows
// and Details holds up to five of them rendered as text.
type Result struct {
	Check    string
	Category Category
	Severity Severity
	Count    int64
	Details  []string
}

// Passed reports whether the check found nothing.
func (r Result) Passed() bool { return r.Count == 0 }

func (r Result) String() string {
	if r.Passed() {
		return fmt.Sprintf("PASS %s: %s", r.Category, r.Check)
	}
	return fmt.Sprintf("FAIL [%s] %s: %s (%d rows)", r.Severity, r.Category, r.Check, r.Count)
}

type check struct {
	name     string
	category Category
	severity Severity
	query    string
}

// checks run against SQLite; every query selects the offending rows.
var checks = []check{
	{
		name:     "duplicate play-by-play actions",
		category: CategoryDuplicates,
		severity: SeverityError,
		query: `SELECT game_id, action_number, COUNT(*) FROM fact_play_by_play
			GROUP BY game_id, action_number HAVING COUNT(*) > 1`,
	},
	{
		name:     "duplicate player game stats",
		category: CategoryDuplicates,
		severity: SeverityError,
		query: `SELECT game_id, player_id, COUNT(*) FROM fact_player_game_stats
			GROUP BY game_id, player_id HAVING COUNT(*) > 1`,
	},
	{
		name:     "duplicate team game stats",
		category: CategoryDuplicates,
		severity: SeverityError,
		query: `SELECT game_id, team_id, COUNT(*) FROM fact_team_game_stats
			GROUP BY game_id, team_id HAVING COUNT(*) > 1`,
	},
	{
		name:     "foreign key violations",
		category: CategoryIntegrity,
		severity: SeverityError,
		query:    `PRAGMA foreign_key_check`,
	},
	{
		name:     "player stats without player",
		category: CategoryIntegrity,
		severity: SeverityError,
		query: `SELECT DISTINCT s.player_id FROM fact_player_game_stats s
			LEFT JOIN dim_players p ON s.player_id = p.player_id
			WHERE p.player_id IS NULL`,
	},
	{
		name:     "games without teams",
		category: CategoryIntegrity,
		severity: SeverityError,
		query: `SELECT game_id, home_team_id, away_team_id FROM fact_games g
			WHERE NOT EXISTS (SELECT 1 FROM dim_teams WHERE team_id = g.home_team_id)
			   OR NOT EXISTS (SELECT 1 FROM dim_teams WHERE team_id = g.away_team_id)`,
	},
	{
		name:     "team stats without game",
		category: CategoryIntegrity,
		severity: SeverityError,
		query: `SELECT DISTINCT s.game_id FROM fact_team_game_stats s
			LEFT JOIN fact_games g ON s.game_id = g.game_id
			WHERE g.game_id IS NULL`,
	},
	{
		name:     "games without arena",
		category: CategoryIntegrity,
		severity: SeverityError,
		query: `SELECT game_id, arena_id FROM fact_games g
			WHERE NOT EXISTS (SELECT 1 FROM dim_arenas WHERE arena_id = g.arena_id)`,
	},
	{
		name:     "games missing scores",
		category: CategoryCompleteness,
		severity: SeverityWarning,
		query: `SELECT game_id, home_score, away_score FROM fact_games
			WHERE home_score IS NULL OR away_score IS NULL`,
	},
	{
		name:     "negative player stats",
		category: CategoryMalformed,
		severity: SeverityError,
		query: `SELECT game_id, player_id, points, rebounds_total, assists FROM fact_player_game_stats
			WHERE points < 0 OR rebounds_total < 0 OR assists < 0`,
	},
	{
		name:     "players missing names",
		category: CategoryMalformed,
		severity: SeverityError,
		query: `SELECT player_id, first_name, last_name FROM dim_players
			WHERE first_name IS NULL OR first_name = '' OR last_name IS NULL OR last_name = ''`,
	},
	{
		name:     "invalid game dates",
		category: CategoryMalformed,
		severity: SeverityError,
		query: `SELECT game_id, game_datetime_est FROM fact_games
			WHERE game_datetime_est IS NULL
			   OR game_datetime_est < '2000-01-01'
			   OR game_datetime_est > datetime('now', '+1 year')`,
	},
	{
		name:     "team stat rows per game",
		category: CategoryConsistency,
		severity: SeverityError,
		query: `SELECT game_id, COUNT(*) FROM fact_team_game_stats
			GROUP BY game_id HAVING COUNT(*) != 2`,
	},
	{
		name:     "game score vs team stats",
		category: CategoryConsistency,
		severity: SeverityError,
		query: `SELECT g.game_id, g.home_score, g.away_score, ht.points, at.points
			FROM fact_games g
			JOIN fact_team_game_stats ht ON g.game_id = ht.game_id AND ht.is_home_team = 1
			JOIN fact_team_game_stats at ON g.game_id = at.game_id AND at.is_home_team = 0
			WHERE g.home_score != ht.points OR g.away_score != at.points`,
	},
	{
		name:     "play-by-play final score",
		category: CategoryConsistency,
		severity: SeverityWarning,
		query: `SELECT p.game_id, MAX(p.score_home), MAX(p.score_away), g.home_score, g.away_score
			FROM fact_play_by_play p
			JOIN fact_games g ON p.game_id = g.game_id
			GROUP BY p.game_id, g.home_score, g.away_score
			HAVING MAX(p.score_home) != g.home_score OR MAX(p.score_away) != g.away_score`,
	},
	{
		name:     "player stats not on roster",
		category: CategoryConsistency,
		severity: SeverityWarning,
		query: `SELECT DISTINCT s.game_id, s.player_id, s.team_id FROM fact_player_game_stats s
			LEFT JOIN fact_player_roster r ON s.player_id = r.player_id AND s.team_id = r.team_id
			WHERE r.player_id IS NULL`,
	},
}

// Check runs every data-quality check against a loaded SQLite store.
func Check(ctx context.Context, repo storage.Repository) ([]Result, error) {
	out := make([]Result, 0, len(checks))
	for _, c := range checks {
		res := Result{Check: c.name, Category: c.category, Severity: c.severity}
		err := repo.Query(ctx, func(vals []any) error {
			res.Count++
			if len(res.Details) < maxDetails {
				res.Details = append(res.Details, formatRow(vals))
			}
			return nil
		}, c.query)
		if err != nil {
			return nil, fmt.Errorf("verify: %s: %w", c.name, err)
		}
		out = append(out, res)
	}
	return out, nil
}

// Failed counts failed checks of the given severity.
func Failed(results []Result, sev Severity) int {
	n := 0
	for _, r := range results {
		if !r.Passed() && r.Severity == sev {
			n++
		}
	}
	return n
}

func formatRow(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			parts[i] = "NULL"
		case []byte:
			parts[i] = string(x)
		default:
			parts[i] = fmt.Sprint(x)
		}
	}
	return strings.Join(parts, " | ")
}
