package limiter

import (
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Instance hands out one token bucket per key.
type Instance interface {
	// Allow reports whether one more event fits in bucket right now.
	Allow(bucket string) bool
	// Release forgets bucket, for when its owner is gone.
	Release(bucket string)
}

type Options struct {
	// Rate is the sustained number of events per second.
	Rate float64
	// Burst is the number of events allowed at once.
	Burst int
	// Idle is how long an unused bucket is kept.
	Idle time.Duration
}

type limiterInst struct {
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
}

func New(opt Options) Instance {
	if opt.Rate <= 0 {
		opt.Rate = 5
	}

	if opt.Burst <= 0 {
		opt.Burst = 10
	}

	if opt.Idle <= 0 {
		opt.Idle = 10 * time.Minute
	}

	return &limiterInst{
		buckets: cache.New(opt.Idle, opt.Idle),
		limit:   rate.Limit(opt.Rate),
		burst:   opt.Burst,
	}
}

func (inst *limiterInst) get(bucket string) *rate.Limiter {
	if v, ok := inst.buckets.Get(bucket); ok {
		inst.buckets.SetDefault(bucket, v)

		return v.(*rate.Limiter)
	}

	l := rate.NewLimiter(inst.limit, inst.burst)

	// another caller may have created it in the meantime
	if err := inst.buckets.Add(bucket, l, cache.DefaultExpiration); err != nil {
		if v, ok := inst.buckets.Get(bucket); ok {
			return v.(*rate.Limiter)
		}
	}

	return l
}

func (inst *limiterInst) Allow(bucket string) bool {
	return inst.get(bucket).Allow()
}

func (inst *limiterInst) Release(bucket string) {
	inst.buckets.Delete(bucket)
}
