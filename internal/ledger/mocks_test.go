package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// fakeRedis is a sorted set held in a map
type fakeRedis struct {
	mu      sync.Mutex
	members map[string]float64
	err     error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{members: make(map[string]float64)}
}

func (f *fakeRedis) ZAddNX(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var added int64
	for _, m := range members {
		id := m.Member.(string)
		if _, ok := f.members[id]; !ok {
			f.members[id] = m.Score
			added++
		}
	}
	return redis.NewIntResult(added, nil)
}

func (f *fakeRedis) ZScore(ctx context.Context, key, member string) *redis.FloatCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewFloatResult(0, f.err)
	}
	score, ok := f.members[member]
	if !ok {
		return redis.NewFloatResult(0, redis.Nil)
	}
	return redis.NewFloatResult(score, nil)
}

func (f *fakeRedis) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewZSliceCmdResult(nil, f.err)
	}
	zs := make([]redis.Z, 0, len(f.members))
	for id, score := range f.members {
		zs = append(zs, redis.Z{Score: score, Member: id})
	}
	sort.Slice(zs, func(i, j int) bool {
		if zs[i].Score != zs[j].Score {
			return zs[i].Score > zs[j].Score
		}
		return zs[i].Member.(string) > zs[j].Member.(string)
	})
	if stop >= 0 && int(stop+1) < len(zs) {
		zs = zs[start : stop+1]
	}
	return redis.NewZSliceCmdResult(zs, nil)
}

func (f *fakeRedis) ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	exclusive := strings.HasPrefix(max, "(")
	upper, err := strconv.ParseFloat(strings.TrimPrefix(max, "("), 64)
	if err != nil {
		return redis.NewIntResult(0, fmt.Errorf("bad max %q", max))
	}
	var removed int64
	for id, score := range f.members {
		if score < upper || (!exclusive && score == upper) {
			delete(f.members, id)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.members = make(map[string]float64)
	return redis.NewIntResult(1, nil)
}

// fakePool records statements and serves canned rows
type fakePool struct {
	execs    []string
	execErr  error
	rowsAff  int64
	exists   map[string]bool
	queryErr error
	records  [][]any
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	return &fakeRows{rows: p.records, idx: -1}, nil
}

func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if p.queryErr != nil {
		return fakeRow{err: p.queryErr}
	}
	if p.exists[args[0].(string)] {
		return fakeRow{vals: []any{1}}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execs = append(p.execs, sql)
	if p.execErr != nil {
		return pgconn.CommandTag{}, p.execErr
	}
	return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", p.rowsAff)), nil
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.vals, dest)
}

type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}
func (r *fakeRows) Scan(dest ...any) error { return assign(r.rows[r.idx], dest) }
func (r *fakeRows) Values() ([]any, error) { return r.rows[r.idx], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

func assign(vals []any, dest []any) error {
	if len(vals) != len(dest) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *int:
			*d = vals[i].(int)
		case *string:
			*d = vals[i].(string)
		case *time.Time:
			*d = vals[i].(time.Time)
		default:
			return fmt.Errorf("unsupported scan type %T", d)
		}
	}
	return nil
}
