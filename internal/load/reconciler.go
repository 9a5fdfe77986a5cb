// Package load writes transformed row-sets into the star schema.
//
// Full refresh rebuilds every table inside one transaction. Upsert
// reconciles by key: each dimension is replaced in its own transaction, the
// roster in one more, and all game-scoped facts together in a last one, so a
// game is never left half replaced. Every row-set is deduplicated on its
// primary key before it is written.
package load

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"nbaetl/internal/keys"
	"nbaetl/internal/metrics"
	"nbaetl/internal/model"
	"nbaetl/internal/rowset"
	"nbaetl/internal/schema"
	"nbaetl/internal/storage"
	"nbaetl/internal/transform"
)

var dimensionTables = []string{model.TableTeams, model.TablePlayers, model.TableArenas, model.TableDates}

// gameChildren reference fact_games and are deleted before it.
var gameChildren = []string{
	model.TableGameLeaders,
	model.TablePlayByPlay,
	model.TablePlayerGameStats,
	model.TableTeamGameStats,
}

// gameFacts is the insert order of the game-scoped group.
var gameFacts = []string{
	model.TableGames,
	model.TableTeamGameStats,
	model.TablePlayerGameStats,
	model.TablePlayByPlay,
	model.TableGameLeaders,
}

// Options configures a Reconciler.
type Options struct {
	Mode Mode

	// Job labels metrics.
	Job string

	Logger *zap.Logger
}

// Reconciler loads one run's tables into a repository.
type Reconciler struct {
	repo   storage.Repository
	schema *schema.Manager
	mode   Mode
	job    string
	log    *zap.Logger

	mu    sync.Mutex
	state State
}

// New validates opts and returns a Reconciler in the Idle state.
func New(repo storage.Repository, sm *schema.Manager, opts Options) (*Reconciler, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	if repo == nil || sm == nil {
		return nil, fmt.Errorf("repository and schema manager are required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		repo:   repo,
		schema: sm,
		mode:   mode,
		job:    opts.Job,
		log:    log.With(zap.String("mode", string(mode))),
	}, nil
}

// State returns the current state of the load state machine.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.log.Debug("load state", zap.Stringer("state", s))
}

// Load writes tables according to the configured mode. Units committed
// before a failure stay committed; the failing unit is rolled back.
func (r *Reconciler) Load(ctx context.Context, tables *transform.Tables) (*Report, error) {
	r.setState(Idle)
	rep := newReport(r.mode)

	sets, err := r.prepare(tables, rep)
	if err == nil {
		switch r.mode {
		case FullRefresh:
			err = r.fullRefresh(ctx, sets, rep)
		default:
			err = r.upsert(ctx, sets, rep)
		}
	}
	if err != nil {
		r.setState(Aborted)
		return rep, err
	}
	r.setState(Committed)
	return rep, nil
}

// prepare deduplicates every table on its primary key, keeping the first
// row. A table missing from tables loads as empty.
func (r *Reconciler) prepare(tables *transform.Tables, rep *Report) (map[string]*rowset.RowSet, error) {
	out := make(map[string]*rowset.RowSet, len(model.LoadOrder))
	for _, def := range r.schema.Tables() {
		var rs *rowset.RowSet
		if tables != nil {
			rs = tables.Table(def.FQN)
		}
		if rs == nil {
			rs = rowset.New(def.FQN, def.ColumnNames()...)
		}
		pk := def.PrimaryKey()
		deduped, dropped, err := keys.Dedup(rs, pk...)
		if err != nil {
			return nil, fmt.Errorf("dedup %s: %w", def.FQN, err)
		}
		if dropped > 0 {
			r.log.Warn("duplicate keys dropped",
				zap.String("table", def.FQN), zap.Strings("key", pk), zap.Int("rows", dropped))
		}
		rep.table(def.FQN).Duplicates = dropped
		out[def.FQN] = deduped
	}
	return out, nil
}

func (r *Reconciler) fullRefresh(ctx context.Context, sets map[string]*rowset.RowSet, rep *Report) error {
	err := r.repo.WithTx(ctx, func(tx storage.Tx) error {
		if err := r.schema.Drop(ctx, tx); err != nil {
			return &TableError{Op: "drop", Err: err}
		}
		r.setState(Dropped)

		if err := r.schema.Ensure(ctx, tx); err != nil {
			return &TableError{Op: "create", Err: err}
		}
		r.setState(Recreated)

		for _, name := range model.LoadOrder {
			if err := r.insert(ctx, tx, sets[name], rep); err != nil {
				return err
			}
		}
		r.setState(BulkLoaded)
		return nil
	})
	if err != nil {
		return commitError("", err)
	}
	r.observe(rep, model.LoadOrder...)
	return nil
}

func (r *Reconciler) upsert(ctx context.Context, sets map[string]*rowset.RowSet, rep *Report) error {
	if err := r.repo.WithTx(ctx, func(tx storage.Tx) error {
		return r.schema.Ensure(ctx, tx)
	}); err != nil {
		return &TableError{Op: "create", Err: err}
	}
	r.setState(SchemaEnsured)

	for _, name := range dimensionTables {
		if err := r.replaceUnit(ctx, sets[name], rep); err != nil {
			return err
		}
	}
	r.setState(DimensionsReconciled)

	if err := r.replaceUnit(ctx, sets[model.TableRoster], rep); err != nil {
		return err
	}

	if err := r.repo.WithTx(ctx, func(tx storage.Tx) error {
		return r.replaceGames(ctx, tx, sets, rep)
	}); err != nil {
		return commitError(model.TableGames, err)
	}
	r.observe(rep, gameFacts...)
	r.setState(FactsReconciled)
	return nil
}

// replaceUnit deletes the incoming keys of one table and inserts its rows in
// a transaction of their own.
func (r *Reconciler) replaceUnit(ctx context.Context, rs *rowset.RowSet, rep *Report) error {
	name := rs.Name()
	pk, err := r.schema.PrimaryKey(name)
	if err != nil {
		return err
	}
	ks, err := keys.Distinct(rs, pk...)
	if err != nil {
		return fmt.Errorf("keys %s: %w", name, err)
	}

	err = r.repo.WithTx(ctx, func(tx storage.Tx) error {
		if err := r.delete(ctx, tx, name, pk, ks, rep); err != nil {
			return err
		}
		return r.insert(ctx, tx, rs, rep)
	})
	if err != nil {
		return commitError(name, err)
	}
	r.observe(rep, name)
	return nil
}

// replaceGames removes every row of the incoming games across all five
// game-scoped tables, children first, then inserts games before children.
// Child tables also clear the game ids they bring themselves.
func (r *Reconciler) replaceGames(ctx context.Context, tx storage.Tx, sets map[string]*rowset.RowSet, rep *Report) error {
	gameCol := []string{"game_id"}
	gameIDs, err := keys.Distinct(sets[model.TableGames], gameCol...)
	if err != nil {
		return fmt.Errorf("keys %s: %w", model.TableGames, err)
	}

	for _, name := range gameChildren {
		own, err := keys.Distinct(sets[name], gameCol...)
		if err != nil {
			return fmt.Errorf("keys %s: %w", name, err)
		}
		if err := r.delete(ctx, tx, name, gameCol, keys.Union(gameIDs, own), rep); err != nil {
			return err
		}
	}
	if err := r.delete(ctx, tx, model.TableGames, gameCol, gameIDs, rep); err != nil {
		return err
	}

	for _, name := range gameFacts {
		if err := r.insert(ctx, tx, sets[name], rep); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) delete(ctx context.Context, tx storage.Tx, table string, cols []string, ks []keys.Key, rep *Report) error {
	if len(ks) == 0 {
		return nil
	}
	args := make([][]any, len(ks))
	for i, k := range ks {
		args[i] = k
	}
	n, err := tx.DeleteKeys(ctx, table, cols, args)
	if err != nil {
		return &TableError{Table: table, Op: "delete", Err: err}
	}
	rep.table(table).Deleted += n
	return nil
}

func (r *Reconciler) insert(ctx context.Context, tx storage.Tx, rs *rowset.RowSet, rep *Report) error {
	if rs.Len() == 0 {
		return nil
	}
	st, err := tx.Insert(ctx, rs.Name(), rs.Columns(), rs.Rows())
	if err != nil {
		return &TableError{Table: rs.Name(), Op: "insert", Err: err}
	}
	res := rep.table(rs.Name())
	res.Inserted += st.Rows
	res.Batches += st.Batches
	return nil
}

// observe logs and records metrics for tables whose unit has committed.
func (r *Reconciler) observe(rep *Report, tables ...string) {
	for _, name := range tables {
		res := rep.table(name)
		r.log.Info("table loaded",
			zap.String("table", name),
			zap.Int64("deleted", res.Deleted),
			zap.Int64("inserted", res.Inserted),
			zap.Int64("batches", res.Batches),
			zap.Int("duplicates", res.Duplicates))
		metrics.RecordTable(r.job, name, "deleted", res.Deleted)
		metrics.RecordTable(r.job, name, "inserted", res.Inserted)
		metrics.RecordBatches(r.job, res.Batches)
	}
}

// commitError keeps table attribution from inside the unit and labels
// anything else, such as a deferred foreign-key failure at commit.
func commitError(table string, err error) error {
	var te *TableError
	if errors.As(err, &te) {
		return err
	}
	return &TableError{Table: table, Op: "commit", Err: err}
}
