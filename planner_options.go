package tsvchunk

import (
	"context"
	"strings"

	"github.com/ab180/tsvchunk/metric"
	"github.com/creasty/defaults"
	"github.com/pkg/errors"
)

// Order decides the order distinct identifier values are placed into chunks.
type Order string

const (
	// OrderEngine keeps the order the engine lists the values in.
	OrderEngine Order = "engine"

	// OrderSorted sorts the values lexicographically.
	OrderSorted Order = "sorted"
)

func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(s)); o {
	case OrderEngine, OrderSorted:
		return o, nil
	}
	return "", errors.Wrapf(ErrInvalidConfig, "unknown order %q", s)
}

// DistinctLister lists distinct values of a column.
type DistinctLister interface {
	Distinct(ctx context.Context, column string) ([]string, error)
}

// DistinctListerFunc is an adapter to use a function as a DistinctLister.
type DistinctListerFunc func(ctx context.Context, column string) ([]string, error)

func (f DistinctListerFunc) Distinct(ctx context.Context, column string) ([]string, error) {
	return f(ctx, column)
}

type PlannerOptions struct {
	Order Order `default:"engine"`

	// Lister replaces the listing of the table. Order still applies to its result.
	Lister DistinctLister

	Metrics    metric.Repository
	Collectors *metric.Collectors
}

type PlannerOption func(o *PlannerOptions)

func WithOrder(order Order) PlannerOption {
	return func(o *PlannerOptions) {
		o.Order = order
	}
}

func WithDistinctLister(l DistinctLister) PlannerOption {
	return func(o *PlannerOptions) {
		o.Lister = l
	}
}

// WithMetrics makes the planner record metrics into the repository.
func WithMetrics(r metric.Repository) PlannerOption {
	return func(o *PlannerOptions) {
		o.Metrics = r
	}
}

// WithCollectors makes the planner export metrics to Prometheus collectors.
func WithCollectors(c *metric.Collectors) PlannerOption {
	return func(o *PlannerOptions) {
		o.Collectors = c
	}
}

func buildPlannerOptions(opts []PlannerOption) (o PlannerOptions) {
	if err := defaults.Set(&o); err != nil {
		panic(err)
	}
	for _, optFn := range opts {
		optFn(&o)
	}
	if o.Metrics == nil {
		o.Metrics = metric.NewRepository()
	}
	return o
}
