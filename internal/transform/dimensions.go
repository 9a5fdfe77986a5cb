package transform

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nbaetl/internal/keys"
	"nbaetl/internal/model"
	"nbaetl/internal/rowset"
)

var teamSides = []string{"homeTeam.", "awayTeam."}

// finish turns records into the table row-set and drops repeated keys,
// keeping the first.
func finish[T rowset.Record](st *Stats, table string, columns []string, recs []T, key ...string) (*rowset.RowSet, error) {
	rs, err := rowset.FromRecords(table, columns, recs)
	if err != nil {
		return nil, err
	}
	if len(key) > 0 {
		var dropped int
		rs, dropped, err = keys.Dedup(rs, key...)
		if err != nil {
			return nil, err
		}
		st.Duplicates += dropped
	}
	st.Out = rs.Len()
	return rs, nil
}

// BuildTeams unions the teams seen in the player roster with both sides of
// the schedule, keeps the first row per team_id and orders by team_id.
// Roster-derived teams get a slug from the lowercased name.
func BuildTeams(players, schedule *rowset.RowSet) (*rowset.RowSet, Stats, error) {
	st := Stats{Table: model.TableTeams}
	if err := players.Require(playerTeamColumns...); err != nil {
		return nil, st, err
	}
	for _, side := range teamSides {
		if err := schedule.Require(prefixed(side, sideFields[:5])...); err != nil {
			return nil, st, err
		}
	}

	lower := cases.Lower(language.Und)
	var teams []model.Team
	for i := 0; i < players.Len(); i++ {
		st.In++
		f := rowFields(players.Row(i).Get)
		t := model.Team{
			TeamID:    f.int("teamId"),
			Name:      f.str("teamName"),
			City:      f.str("teamCity"),
			Tricode:   f.str("teamAbbreviation"),
			IsDefunct: f.flag("teamIsDefunct"),
		}
		t.Slug = lower.String(strings.ReplaceAll(t.Name, " ", "-"))
		if !f.ok() {
			st.Invalid++
			continue
		}
		teams = append(teams, t)
	}
	for _, side := range teamSides {
		for i := 0; i < schedule.Len(); i++ {
			st.In++
			f := rowFields(schedule.Row(i).Get)
			t := model.Team{
				TeamID:  f.int(side + "teamId"),
				Name:    f.str(side + "teamName"),
				City:    f.str(side + "teamCity"),
				Tricode: f.str(side + "teamTricode"),
				Slug:    f.str(side + "teamSlug"),
			}
			if !f.ok() {
				st.Invalid++
				continue
			}
			teams = append(teams, t)
		}
	}

	rs, err := finish(&st, model.TableTeams, model.TeamColumns, teams, "team_id")
	if err != nil {
		return nil, st, err
	}
	if err := keys.SortStable(rs, "team_id"); err != nil {
		return nil, st, err
	}
	return rs, st, nil
}

// BuildPlayers projects the player dimension, first row per player_id.
func BuildPlayers(players *rowset.RowSet) (*rowset.RowSet, Stats, error) {
	st := Stats{Table: model.TablePlayers}
	if err := players.Require(playerColumns...); err != nil {
		return nil, st, err
	}

	recs := make([]model.Player, 0, players.Len())
	for i := 0; i < players.Len(); i++ {
		st.In++
		f := rowFields(players.Row(i).Get)
		p := model.Player{
			PlayerID:            f.int("playerId"),
			FirstName:           f.str("firstName"),
			LastName:            f.str("lastName"),
			Slug:                f.str("playerSlug"),
			Position:            f.optStr("position"),
			Height:              f.optStr("height"),
			Weight:              f.optStr("weight"),
			Birthdate:           f.optDate("birthdate"),
			Country:             f.optStr("country"),
			DraftYear:           f.optInt("draftYear"),
			DraftRound:          f.optInt("draftRound"),
			DraftNumber:         f.optInt("draftNumber"),
			LastAffiliation:     f.optStr("lastAffiliation"),
			LastAffiliationType: f.optStr("lastAffiliationType"),
		}
		if !f.ok() {
			st.Invalid++
			continue
		}
		recs = append(recs, p)
	}
	rs, err := finish(&st, model.TablePlayers, model.PlayerColumns, recs, "player_id")
	return rs, st, err
}

// arenaKey identifies an arena by its natural attributes. A missing state is
// distinct from an empty one.
type arenaKey struct {
	name, city string
	state      string
	hasState   bool
}

func arenaKeyOf(name, city string, state any) arenaKey {
	k := arenaKey{name: name, city: city}
	if s, ok := state.(string); ok {
		k.state, k.hasState = s, true
	}
	return k
}

// BuildArenas assigns surrogate ids 0..N-1 to the distinct
// (name, city, state) tuples of the schedule in first-seen order. The ids
// depend on the rows supplied to this run.
func BuildArenas(schedule *rowset.RowSet) (*rowset.RowSet, Stats, error) {
	st := Stats{Table: model.TableArenas}
	if err := schedule.Require(arenaColumns...); err != nil {
		return nil, st, err
	}

	proj := rowset.New("arena_source", "name", "city", "state")
	for i := 0; i < schedule.Len(); i++ {
		st.In++
		f := rowFields(schedule.Row(i).Get)
		name, city := f.str("arenaName"), f.str("arenaCity")
		var state any
		if s := f.optStr("arenaState"); s != nil {
			state = *s
		}
		if !f.ok() {
			st.Invalid++
			continue
		}
		if err := proj.Append(name, city, state); err != nil {
			return nil, st, err
		}
	}
	distinct, err := keys.Distinct(proj, "name", "city", "state")
	if err != nil {
		return nil, st, err
	}

	recs := make([]model.Arena, len(distinct))
	for i, k := range distinct {
		a := model.Arena{ArenaID: int64(i), Name: k[0].(string), City: k[1].(string)}
		if s, ok := k[2].(string); ok {
			a.State = &s
		}
		recs[i] = a
	}
	rs, err := finish(&st, model.TableArenas, model.ArenaColumns, recs)
	return rs, st, err
}

// arenaIndex maps natural arena keys back to the ids of an arenas row-set.
func arenaIndex(arenas *rowset.RowSet) (map[arenaKey]int64, error) {
	if err := arenas.Require("arena_id", "arena_name", "arena_city", "arena_state"); err != nil {
		return nil, err
	}
	idx := make(map[arenaKey]int64, arenas.Len())
	for i := 0; i < arenas.Len(); i++ {
		r := arenas.Row(i)
		id, ok := toInt(r.Get("arena_id"))
		if !ok {
			continue
		}
		name, _ := r.Get("arena_name").(string)
		city, _ := r.Get("arena_city").(string)
		k := arenaKeyOf(name, city, r.Get("arena_state"))
		if _, seen := idx[k]; !seen {
			idx[k] = id
		}
	}
	return idx, nil
}

// BuildDates derives one calendar row per distinct game day.
func BuildDates(schedule *rowset.RowSet) (*rowset.RowSet, Stats, error) {
	st := Stats{Table: model.TableDates}
	if err := schedule.Require("gameDateEst"); err != nil {
		return nil, st, err
	}

	recs := make([]model.Date, 0, schedule.Len())
	for i := 0; i < schedule.Len(); i++ {
		st.In++
		f := rowFields(schedule.Row(i).Get)
		t := f.time("gameDateEst")
		if !f.ok() {
			st.Invalid++
			continue
		}
		recs = append(recs, dateRecord(t))
	}
	rs, err := finish(&st, model.TableDates, model.DateColumns, recs, "date_id")
	return rs, st, err
}

func dateRecord(t time.Time) model.Date {
	_, week := t.ISOWeek()
	return model.Date{
		DateID:     dateID(t),
		FullDate:   t.Format(model.DateLayout),
		Year:       int64(t.Year()),
		Month:      int64(t.Month()),
		DayOfWeek:  int64((int(t.Weekday())+6)%7 + 1),
		WeekNumber: int64(week),
	}
}

// BuildRoster projects roster memberships. Rows without a season describe
// inactive or historical players and are excluded.
func BuildRoster(players *rowset.RowSet) (*rowset.RowSet, Stats, error) {
	st := Stats{Table: model.TableRoster}
	if err := players.Require(rosterColumns...); err != nil {
		return nil, st, err
	}

	recs := make([]model.RosterEntry, 0, players.Len())
	for i := 0; i < players.Len(); i++ {
		st.In++
		f := rowFields(players.Row(i).Get)
		season := f.optStr("season")
		if season == nil {
			st.Excluded++
			continue
		}
		r := model.RosterEntry{
			PlayerID:         f.int("playerId"),
			TeamID:           f.int("teamId"),
			Season:           *season,
			RosterStatus:     f.int("rosterStatus"),
			FromYear:         f.int("fromYear"),
			ToYear:           f.int("toYear"),
			IsTwoWay:         f.optBool("isTwoWay"),
			IsTenDay:         f.optBool("isTenDay"),
			JerseyNum:        f.optStr("jerseyNum"),
			SeasonExperience: f.optInt("seasonExperience"),
		}
		if !f.ok() {
			st.Invalid++
			continue
		}
		recs = append(recs, r)
	}
	rs, err := finish(&st, model.TableRoster, model.RosterColumns, recs, "player_id", "team_id", "season")
	return rs, st, err
}
