package global

import (
	"context"
	"time"

	"github.com/NAKUL-XD/BitChat/internal/configure"
	"github.com/NAKUL-XD/BitChat/internal/instance"
)

type Context interface {
	context.Context
	Config() *configure.Config
	Inst() *instance.Instances
}

type gCtx struct {
	context.Context
	config *configure.Config
	inst   *instance.Instances
}

func (g *gCtx) Config() *configure.Config {
	return g.config
}

func (g *gCtx) Inst() *instance.Instances {
	return g.inst
}

func New(ctx context.Context, config *configure.Config) Context {
	return &gCtx{
		Context: ctx,
		config:  config,
		inst:    &instance.Instances{},
	}
}

func derive(ctx Context, c context.Context) Context {
	return &gCtx{
		Context: c,
		config:  ctx.Config(),
		inst:    ctx.Inst(),
	}
}

func WithCancel(ctx Context) (Context, context.CancelFunc) {
	c, cancel := context.WithCancel(ctx)

	return derive(ctx, c), cancel
}

func WithTimeout(ctx Context, timeout time.Duration) (Context, context.CancelFunc) {
	c, cancel := context.WithTimeout(ctx, timeout)

	return derive(ctx, c), cancel
}

// Detached returns a context that keeps the config and instances of ctx but
// outlives its cancellation, bounded by timeout. Work started for a client
// finishes even if that client goes away.
func Detached(ctx Context, timeout time.Duration) (Context, context.CancelFunc) {
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	return derive(ctx, c), cancel
}
