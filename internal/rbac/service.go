package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const graphCacheKey = "permradar:graph"

// QueriesPort defines the read-side data access the service needs.
type QueriesPort interface {
	ImpactedUsersByPermissionName(ctx context.Context, name string) ([]ImpactedUser, error)
	GraphUsers(ctx context.Context) ([]GraphUser, error)
	RoleGrants(ctx context.Context) ([]RoleGrant, error)
}

// Service is the read side of the RBAC graph: impact analysis and the full
// graph view. It never mutates graph state.
type Service struct {
	logger  *slog.Logger
	queries QueriesPort
	cache   *redis.Client
	ttl     time.Duration
	group   singleflight.Group
}

// NewService constructs a Service. cache may be nil, in which case every
// graph view hits the store.
func NewService(logger *slog.Logger, queries QueriesPort, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{logger: logger, queries: queries, cache: cache, ttl: ttl}
}

// ImpactedUsersByPermission computes the users whose role currently carries
// the permission. Unknown permission names yield an empty set.
func (s *Service) ImpactedUsersByPermission(ctx context.Context, permission string) ([]ImpactedUser, error) {
	return s.queries.ImpactedUsersByPermissionName(ctx, permission)
}

// GraphView returns the full users+grants snapshot. Results are cached in
// Redis for a short window; concurrent misses collapse into one store read.
func (s *Service) GraphView(ctx context.Context) (GraphView, error) {
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, graphCacheKey).Bytes()
		if err == nil {
			var view GraphView
			if err := json.Unmarshal(payload, &view); err == nil {
				return view, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("graph cache read", slog.Any("error", err))
		}
	}

	result, err, _ := s.group.Do(graphCacheKey, func() (any, error) {
		view, err := s.loadGraph(ctx)
		if err != nil {
			return GraphView{}, err
		}
		if s.cache != nil {
			if payload, err := json.Marshal(view); err == nil {
				if err := s.cache.Set(ctx, graphCacheKey, payload, s.ttl).Err(); err != nil {
					s.logger.Warn("graph cache write", slog.Any("error", err))
				}
			}
		}
		return view, nil
	})
	if err != nil {
		return GraphView{}, err
	}
	return result.(GraphView), nil
}

// InvalidateGraph drops the cached graph view. Called after every mutation.
func (s *Service) InvalidateGraph(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, graphCacheKey).Err(); err != nil {
		s.logger.Warn("graph cache invalidate", slog.Any("error", err))
	}
}

func (s *Service) loadGraph(ctx context.Context) (GraphView, error) {
	var view GraphView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.queries.GraphUsers(gctx)
		if err != nil {
			return err
		}
		view.Users = users
		return nil
	})
	g.Go(func() error {
		grants, err := s.queries.RoleGrants(gctx)
		if err != nil {
			return err
		}
		view.Roles = grants
		return nil
	})
	if err := g.Wait(); err != nil {
		return GraphView{}, err
	}
	return view, nil
}
