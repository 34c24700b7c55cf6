package tracing

import (
	"context"

	"github.com/ordishs/gocore"
)

type statsKey struct{}

var defaultStat = gocore.NewStat("blockstore")

// NewStatFromContext creates a child of the stat carried by ctx, or of defaultParent when ctx has none.
func NewStatFromContext(ctx context.Context, key string, defaultParent *gocore.Stat) (*gocore.Stat, context.Context) {
	parentStat, ok := ctx.Value(statsKey{}).(*gocore.Stat)
	if !ok {
		parentStat = defaultParent
	}

	stat := parentStat.NewStat(key, true)

	return stat, context.WithValue(ctx, statsKey{}, stat)
}

func StartStatFromContext(ctx context.Context, key string) (*gocore.Stat, context.Context) {
	return NewStatFromContext(ctx, key, defaultStat)
}
