package app

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/keys"
	"github.com/km-arc/go-inject/framework/metrics"
	"github.com/km-arc/go-inject/framework/rest"
	"github.com/km-arc/go-inject/framework/routing"
)

// ── ConfigComponent ──────────────────────────────────────────────────────────

// ConfigComponent binds the loaded configuration and logger.
//
// Bound keys:
//   - keys.Config          → *config.Config
//   - keys.ApplicationName → string
//   - keys.Logger          → *zap.Logger
type ConfigComponent struct {
	BaseComponent
	Config *config.Config
	Logger *zap.Logger
}

func (p *ConfigComponent) Register(c *container.Context) error {
	c.Bind(keys.Config).ToValue(p.Config)
	c.Bind(keys.ApplicationName).ToValue(p.Config.App.Name)
	c.Bind(keys.Logger).ToValue(p.Logger)
	return nil
}

// ── MetricsComponent ─────────────────────────────────────────────────────────

// MetricsComponent binds a Prometheus collector. Characters not allowed in
// a metric name are replaced in Namespace.
//
// Bound keys:
//   - keys.Metrics → *metrics.Collector (singleton)
type MetricsComponent struct {
	BaseComponent
	Namespace string
}

func (p *MetricsComponent) Register(c *container.Context) error {
	ns := metricNamespace(p.Namespace)
	c.Bind(keys.Metrics).ToDynamic(func(context.Context, *container.Context) (any, error) {
		return metrics.NewCollector(ns), nil
	}).InScope(container.Singleton)
	return nil
}

func metricNamespace(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}

// ── RoutingComponent ─────────────────────────────────────────────────────────

// RoutingComponent binds the route table lookup and the HTTP router.
//
// Bound keys:
//   - keys.FindRoute → routing.FindRouteFunc
//   - keys.Router    → *routing.Router (singleton) serving the metrics
//     endpoint and every controller route through a rest.Sequence
type RoutingComponent struct {
	BaseComponent
	Table *routing.Table
}

func (p *RoutingComponent) Register(c *container.Context) error {
	c.Bind(keys.FindRoute).ToValue(routing.FindRouteFunc(p.Table.Find))
	c.Bind(keys.Router).ToDynamic(buildRouter).InScope(container.Singleton)
	return nil
}

func buildRouter(ctx context.Context, c *container.Context) (any, error) {
	cfg, err := container.Resolve[*config.Config](ctx, c, keys.Config)
	if err != nil {
		return nil, err
	}
	logger, err := container.Resolve[*zap.Logger](ctx, c, keys.Logger)
	if err != nil {
		return nil, err
	}
	collector, err := container.Resolve[*metrics.Collector](ctx, c, keys.Metrics)
	if err != nil {
		return nil, err
	}

	router := routing.New(routing.WithLogger(logger), routing.WithCORS(cfg.HTTP.CORSOrigins...))
	if cfg.HTTP.MetricsPath != "" {
		router.Get(cfg.HTTP.MetricsPath, collector.Handler().ServeHTTP)
	}
	var seq http.Handler = rest.NewSequence(c, rest.WithLogger(logger), rest.WithMetrics(collector))
	router.Handle("/*", seq)
	return router, nil
}
