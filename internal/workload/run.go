package workload

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/searchlist/policy"
	"github.com/IvanBrykalov/searchlist/policy/legacy"
	"github.com/IvanBrykalov/searchlist/policy/strict"
	"github.com/IvanBrykalov/searchlist/searchlist"
)

// Report summarizes a finished run.
type Report struct {
	Elapsed time.Duration
	Stats   searchlist.Stats
}

// PolicyByName maps a policy name to its implementation.
func PolicyByName(name string) (policy.Policy, error) {
	switch name {
	case "", "strict":
		return strict.New(), nil
	case "legacy":
		return legacy.New(), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (use strict or legacy)", name)
	}
}

// NewList builds the list cfg describes. m may be nil.
func NewList(cfg Config, m searchlist.Metrics, log *zap.Logger) (searchlist.List[int], error) {
	pol, err := PolicyByName(cfg.Policy)
	if err != nil {
		return nil, err
	}
	return searchlist.New[int](searchlist.Options[int]{
		Policy:         pol,
		Metrics:        m,
		Logger:         log,
		CheckInvariant: cfg.CheckInvariant,
	}), nil
}

// Run preloads l, then runs every worker cfg asks for until each finished
// its ops or the duration ran out. Admission waits cut short by the end of
// the run are not errors.
func Run(ctx context.Context, l searchlist.List[int], cfg Config, log *zap.Logger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	for i := 0; i < cfg.Preload; i++ {
		if err := l.Insert(ctx, cfg.PreloadBase+i*cfg.PreloadStep); err != nil {
			return Report{}, fmt.Errorf("preload: %w", err)
		}
	}
	log.Info("workload started",
		zap.String("preset", cfg.Preset),
		zap.String("policy", cfg.Policy),
		zap.Int("preloaded", l.Len()),
		zap.Int("inserters", cfg.Inserters),
		zap.Int("searchers", cfg.Searchers),
		zap.Int("removers", cfg.Removers),
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range []struct {
		role searchlist.Role
		n    int
	}{
		{searchlist.RoleInsert, cfg.Inserters},
		{searchlist.RoleSearch, cfg.Searchers},
		{searchlist.RoleRemove, cfg.Removers},
	} {
		w := w // per-iteration copy (go 1.21 loop semantics)
		for id := 0; id < w.n; id++ {
			id := id
			g.Go(func() error { return worker(gctx, l, cfg, w.role, id, log) })
		}
	}
	err := g.Wait()

	rep := Report{Elapsed: time.Since(start), Stats: l.Stats()}
	log.Info("workload finished",
		zap.Duration("elapsed", rep.Elapsed),
		zap.Int("len", rep.Stats.Len),
		zap.Int64("searches", rep.Stats.Searches),
		zap.Int64("found", rep.Stats.Found),
		zap.Int64("inserts", rep.Stats.Inserts),
		zap.Int64("removes", rep.Stats.Removes),
		zap.Int64("removed", rep.Stats.Removed),
		zap.Int64("canceled", rep.Stats.Canceled),
		zap.Error(err),
	)
	return rep, err
}

func worker(ctx context.Context, l searchlist.List[int], cfg Config, role searchlist.Role, id int, log *zap.Logger) error {
	// Each worker gets its own RNG (rand.Rand is NOT goroutine-safe).
	r := rand.New(rand.NewSource(cfg.Seed + int64(role)*1_000_003 + int64(id)*9973))

	for n := 0; cfg.Ops == 0 || n < cfg.Ops; n++ {
		if ctx.Err() != nil {
			return nil
		}
		item := id
		if !cfg.Indexed {
			item = r.Intn(cfg.Keys)
		}

		ok, err := do(ctx, l, cfg.OpTimeout, role, item)
		switch {
		case errors.Is(err, searchlist.ErrCanceled):
			if ctx.Err() != nil {
				return nil
			}
			if ce := log.Check(zapcore.DebugLevel, "gave up waiting"); ce != nil {
				ce.Write(zap.Stringer("role", role), zap.Int("worker", id), zap.Int("item", item))
			}
			continue
		case err != nil:
			return fmt.Errorf("%s worker %d: %w", role, id, err)
		}

		if ce := log.Check(zapcore.DebugLevel, "op done"); ce != nil {
			ce.Write(zap.Stringer("role", role), zap.Int("worker", id), zap.Int("item", item), zap.Bool("ok", ok))
		}
	}
	return nil
}

// do runs one operation; an insert always reports ok.
func do(ctx context.Context, l searchlist.List[int], timeout time.Duration, role searchlist.Role, item int) (bool, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	switch role {
	case searchlist.RoleInsert:
		if err := l.Insert(ctx, item); err != nil {
			return false, err
		}
		return true, nil
	case searchlist.RoleSearch:
		return l.Search(ctx, item)
	default:
		return l.Remove(ctx, item)
	}
}
