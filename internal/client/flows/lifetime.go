package flows

import (
	"context"
	"sync"
)

// lifetime scopes requests to a flow. Once closed, every context bound to it
// is cancelled and results arriving afterwards are discarded.
type lifetime struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func newLifetime() *lifetime {
	ctx, cancel := context.WithCancel(context.Background())
	return &lifetime{ctx: ctx, cancel: cancel}
}

// bind derives a request context that ends with either ctx or the flow.
func (l *lifetime) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.ctx, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}

func (l *lifetime) closed() bool {
	return l.ctx.Err() != nil
}

func (l *lifetime) close() {
	l.once.Do(l.cancel)
}
