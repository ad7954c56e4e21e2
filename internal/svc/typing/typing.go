package typing

import (
	"sync"
	"time"
)

type Notification struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// Notifier delivers a typing notification to target. It is called with the
// coordinator lock held and must not call back into the coordinator.
type Notifier func(target string, n Notification)

type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

type Instance interface {
	Start(identity, conversationID, target string)
	Stop(identity, conversationID, target string)
	// ClearAll ends every typing entry owned by identity and returns how many there were.
	ClearAll(identity string) int
	Typing(identity, conversationID string) bool
}

type key struct {
	identity       string
	conversationID string
}

type entry struct {
	target string
	timer  Timer
	gen    uint64
}

type coordinator struct {
	mx      sync.Mutex
	entries map[key]*entry
	gen     uint64

	expiry    time.Duration
	notify    Notifier
	afterFunc AfterFunc
}

type Options struct {
	Expiry    time.Duration
	Notify    Notifier
	AfterFunc AfterFunc
}

func New(opt Options) Instance {
	if opt.Expiry <= 0 {
		opt.Expiry = time.Second * 3
	}

	if opt.AfterFunc == nil {
		opt.AfterFunc = func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		}
	}

	if opt.Notify == nil {
		opt.Notify = func(string, Notification) {}
	}

	return &coordinator{
		entries:   map[key]*entry{},
		expiry:    opt.Expiry,
		notify:    opt.Notify,
		afterFunc: opt.AfterFunc,
	}
}

func (c *coordinator) Start(identity, conversationID, target string) {
	k := key{identity, conversationID}

	c.mx.Lock()
	defer c.mx.Unlock()

	if e, ok := c.entries[k]; ok {
		e.timer.Stop()
	}

	c.gen++
	gen := c.gen

	c.entries[k] = &entry{
		target: target,
		gen:    gen,
		timer: c.afterFunc(c.expiry, func() {
			c.expire(k, gen)
		}),
	}

	c.emit(target, k, true)
}

func (c *coordinator) Stop(identity, conversationID, target string) {
	k := key{identity, conversationID}

	c.mx.Lock()
	defer c.mx.Unlock()

	if e, ok := c.entries[k]; ok {
		e.timer.Stop()
		delete(c.entries, k)
	}

	c.emit(target, k, false)
}

func (c *coordinator) ClearAll(identity string) int {
	c.mx.Lock()
	defer c.mx.Unlock()

	n := 0

	for k, e := range c.entries {
		if k.identity != identity {
			continue
		}

		e.timer.Stop()
		delete(c.entries, k)
		c.emit(e.target, k, false)
		n++
	}

	return n
}

func (c *coordinator) Typing(identity, conversationID string) bool {
	c.mx.Lock()
	defer c.mx.Unlock()

	_, ok := c.entries[key{identity, conversationID}]

	return ok
}

// expire runs on the timer goroutine. A timer that fired after being
// replaced or stopped finds a different generation and does nothing.
func (c *coordinator) expire(k key, gen uint64) {
	c.mx.Lock()
	defer c.mx.Unlock()

	e, ok := c.entries[k]
	if !ok || e.gen != gen {
		return
	}

	delete(c.entries, k)
	c.emit(e.target, k, false)
}

func (c *coordinator) emit(target string, k key, typing bool) {
	if target == "" {
		return
	}

	c.notify(target, Notification{
		ConversationID: k.conversationID,
		UserID:         k.identity,
		IsTyping:       typing,
	})
}
