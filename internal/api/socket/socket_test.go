package socket

import (
	"context"
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/NAKUL-XD/BitChat/data/events"
	"github.com/NAKUL-XD/BitChat/data/model"
	"github.com/NAKUL-XD/BitChat/data/store"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/configure"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/NAKUL-XD/BitChat/internal/svc/auth"
	"github.com/NAKUL-XD/BitChat/internal/svc/dispatch"
	"github.com/NAKUL-XD/BitChat/internal/svc/limiter"
	"github.com/NAKUL-XD/BitChat/internal/svc/presences"
	"github.com/NAKUL-XD/BitChat/internal/svc/prometheus"
	"github.com/NAKUL-XD/BitChat/internal/svc/reconciler"
	"github.com/NAKUL-XD/BitChat/internal/svc/typing"
	"github.com/NAKUL-XD/BitChat/internal/testutil"
	"github.com/fasthttp/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type env struct {
	gCtx   global.Context
	cancel context.CancelFunc
	mem    *store.Memory
}

func newEnv(t *testing.T, mutate ...func(c *configure.Config)) *env {
	t.Helper()

	config := configure.Default()
	config.Credentials.JWTSecret = "secret"

	for _, fn := range mutate {
		fn(&config)
	}

	gCtx, cancel := global.WithCancel(global.New(context.Background(), &config))
	t.Cleanup(cancel)

	mem := store.NewMemory()
	for _, name := range []string{"alice", "bob", "carol"} {
		mem.PutUser(structures.User{ID: name, Username: name})
	}

	inst := gCtx.Inst()
	inst.Store = mem
	inst.Prometheus = prometheus.New(prometheus.Options{})
	inst.Limiter = limiter.New(limiter.Options{
		Rate:  config.Socket.EventsPerSecond,
		Burst: config.Socket.EventBurst,
	})
	inst.Modelizer = model.NewInstance(model.ModelInstanceOptions{})
	inst.Auth = auth.New(auth.AuthorizerOptions{JWTSecret: "secret", Store: mem})
	inst.Reconciler = reconciler.New(reconciler.Options{
		Store:     mem,
		Modelizer: inst.Modelizer,
	})
	inst.Presences = presences.New(presences.Options{Sink: inst.Reconciler})
	inst.Typing = typing.New(typing.Options{
		Expiry: time.Minute,
		Notify: dispatch.TypingNotifier(inst.Presences, inst.Prometheus),
	})
	inst.Dispatch = dispatch.New(dispatch.Options{
		Presences:  inst.Presences,
		Typing:     inst.Typing,
		Reconciler: inst.Reconciler,
		Metrics:    inst.Prometheus,
	})

	return &env{gCtx: gCtx, cancel: cancel, mem: mem}
}

func (e *env) session(identity string) *Session {
	s := NewSession(e.gCtx, nil)
	s.Authenticate(structures.User{ID: identity, Username: identity})

	return s
}

func (e *env) announced(t *testing.T, identity string) *Session {
	t.Helper()

	s := e.session(identity)
	send(t, s, events.EventPresenceAnnounce, events.IdentityPayload{Identity: identity})
	require.Equal(t, StateAnnounced, s.State())

	return s
}

func send(t *testing.T, s *Session, event events.EventName, data any) {
	t.Helper()

	b, err := events.Encode(events.NewMessage(event, data))
	require.NoError(t, err)
	require.NoError(t, s.Handle(b))
}

func next(t *testing.T, s *Session) events.Message[jsoniter.RawMessage] {
	t.Helper()

	b := testutil.Receive[[]byte](t, s.out, time.Second, "frame")

	msg, err := events.Decode(b)
	require.NoError(t, err)

	return msg
}

func nextOf[T any](t *testing.T, s *Session, event events.EventName) T {
	t.Helper()

	msg := next(t, s)
	require.Equal(t, event, msg.Event, string(msg.Data))

	typed, err := events.ConvertMessage[T](msg)
	require.NoError(t, err)

	return typed.Data
}

func quiet(t *testing.T, s *Session) {
	t.Helper()

	testutil.Silent[[]byte](t, s.out, 20*time.Millisecond, "no frame")
}

func TestEventsRequireAnnounce(t *testing.T) {
	e := newEnv(t)
	s := e.session("alice")

	send(t, s, events.EventSendMessage, events.SendMessagePayload{ReceiverID: "bob", Content: "hi"})

	p := nextOf[events.ErrorPayload](t, s, events.EventMessageError)
	require.Equal(t, events.EventSendMessage, p.Event)
}

func TestAnnounceForAnotherIdentityIsRejected(t *testing.T) {
	e := newEnv(t)
	s := e.session("alice")

	send(t, s, events.EventPresenceAnnounce, events.IdentityPayload{Identity: "bob"})

	nextOf[events.ErrorPayload](t, s, events.EventMessageError)
	require.Equal(t, StateAuthenticated, s.State())
	require.False(t, e.gCtx.Inst().Presences.Online("bob"))
}

func TestUnauthenticatedSessionIsRejected(t *testing.T) {
	e := newEnv(t)
	s := NewSession(e.gCtx, nil)

	send(t, s, events.EventPresenceAnnounce, "alice")

	p := nextOf[events.ErrorPayload](t, s, events.EventMessageError)
	require.Equal(t, events.EventPresenceAnnounce, p.Event)
	require.Equal(t, StateConnecting, s.State())
}

func TestLegacyAnnounceAndBroadcast(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")

	bob := e.session("bob")
	require.NoError(t, bob.Handle([]byte(`{"event":"user_connected","data":"bob"}`)))
	require.Equal(t, StateAnnounced, bob.State())

	status := nextOf[model.UserStatusModel](t, alice, events.EventUserStatus)
	require.Equal(t, "bob", status.UserID)
	require.True(t, status.IsOnline)

	quiet(t, bob)
}

func TestSendMessageRoutesAndAcks(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")
	bob := e.announced(t, "bob")
	nextOf[model.UserStatusModel](t, alice, events.EventUserStatus)

	send(t, alice, events.EventSendMessage, events.SendMessagePayload{
		SenderID:   "alice",
		ReceiverID: "bob",
		Content:    "hello",
	})

	got := nextOf[model.MessageModel](t, bob, events.EventReceiveMessage)
	require.Equal(t, "hello", got.Content)

	ack := nextOf[model.MessageModel](t, alice, events.EventMessageSent)
	require.Equal(t, got.ID, ack.ID)
	require.Equal(t, structures.DeliveryStatusDelivered, ack.Status)
}

func TestSendMessageAsSomeoneElse(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")

	send(t, alice, events.EventSendMessage, events.SendMessagePayload{
		SenderID:   "carol",
		ReceiverID: "bob",
		Content:    "forged",
	})

	p := nextOf[events.ErrorPayload](t, alice, events.EventMessageError)
	require.Equal(t, events.EventSendMessage, p.Event)
}

func TestValidationFailureKeepsSessionOpen(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")

	send(t, alice, events.EventSendMessage, events.SendMessagePayload{ReceiverID: "bob"})
	nextOf[events.ErrorPayload](t, alice, events.EventMessageError)

	require.NoError(t, alice.Handle([]byte(`{not json`)))
	nextOf[events.ErrorPayload](t, alice, events.EventMessageError)

	require.NoError(t, alice.Handle([]byte(`{"event":"make-coffee"}`)))
	nextOf[events.ErrorPayload](t, alice, events.EventMessageError)

	require.Equal(t, StateAnnounced, alice.State())
}

func TestPersistenceFailureAcksOnlyInitiator(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")
	bob := e.announced(t, "bob")
	nextOf[model.UserStatusModel](t, alice, events.EventUserStatus)

	e.mem.SetFail(context.DeadlineExceeded)

	send(t, alice, events.EventSendMessage, events.SendMessagePayload{ReceiverID: "bob", Content: "x"})

	nextOf[events.ErrorPayload](t, alice, events.EventMessageError)
	quiet(t, bob)
	require.True(t, e.gCtx.Inst().Presences.Online("alice"), "presence untouched")
}

func TestMarkReadNotifiesSender(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")

	send(t, alice, events.EventSendMessage, events.SendMessagePayload{ReceiverID: "bob", Content: "hi"})
	msg := nextOf[model.MessageModel](t, alice, events.EventMessageSent)
	require.Equal(t, structures.DeliveryStatusSent, msg.Status, "bob is offline")

	bob := e.announced(t, "bob")
	nextOf[model.UserStatusModel](t, alice, events.EventUserStatus)

	require.NoError(t, bob.Handle([]byte(`{"event":"message_read","data":{"messageIds":["`+msg.ID+`"]}}`)))

	update := nextOf[events.StatusUpdatePayload](t, alice, events.EventStatusUpdate)
	require.Equal(t, msg.ID, update.MessageID)
	require.Equal(t, structures.DeliveryStatusRead, update.Status)
	require.Equal(t, "bob", update.ReceiverID)
}

func TestReactionUpdateReachesBoth(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")
	bob := e.announced(t, "bob")
	nextOf[model.UserStatusModel](t, alice, events.EventUserStatus)

	send(t, alice, events.EventSendMessage, events.SendMessagePayload{ReceiverID: "bob", Content: "hi"})
	nextOf[model.MessageModel](t, bob, events.EventReceiveMessage)
	msg := nextOf[model.MessageModel](t, alice, events.EventMessageSent)

	send(t, bob, events.EventAddReaction, events.ReactionPayload{MessageID: msg.ID, Emoji: "👍"})
	a := nextOf[events.ReactionUpdatePayload](t, alice, events.EventReactionUpdate)
	b := nextOf[events.ReactionUpdatePayload](t, bob, events.EventReactionUpdate)
	require.Len(t, a.Reactions, 1)
	require.Equal(t, a, b)

	send(t, bob, events.EventAddReaction, events.ReactionPayload{MessageID: msg.ID, Emoji: "👍"})
	a = nextOf[events.ReactionUpdatePayload](t, alice, events.EventReactionUpdate)
	require.Empty(t, a.Reactions, "same emoji again removes it")
}

func TestDeleteMessageNotifiesReceiver(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")
	bob := e.announced(t, "bob")
	nextOf[model.UserStatusModel](t, alice, events.EventUserStatus)

	send(t, alice, events.EventSendMessage, events.SendMessagePayload{ReceiverID: "bob", Content: "oops"})
	nextOf[model.MessageModel](t, bob, events.EventReceiveMessage)
	msg := nextOf[model.MessageModel](t, alice, events.EventMessageSent)

	send(t, bob, events.EventDeleteMessage, events.DeleteMessagePayload{MessageID: msg.ID})
	nextOf[events.ErrorPayload](t, bob, events.EventMessageError)

	send(t, alice, events.EventDeleteMessage, events.DeleteMessagePayload{MessageID: msg.ID})
	deleted := nextOf[events.MessageDeletedPayload](t, bob, events.EventMessageDeleted)
	require.Equal(t, msg.ID, deleted.MessageID)
}

func TestTypingAndTeardown(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")
	bob := e.announced(t, "bob")
	nextOf[model.UserStatusModel](t, alice, events.EventUserStatus)

	send(t, bob, events.EventTypingStart, events.TypingPayload{ConversationID: "c1", TargetIdentity: "alice"})

	n := nextOf[typing.Notification](t, alice, events.EventUserTyping)
	require.True(t, n.IsTyping)
	require.Equal(t, "bob", n.UserID)

	send(t, bob, events.EventTypingStart, events.TypingPayload{ConversationID: "c1"})
	nextOf[events.ErrorPayload](t, bob, events.EventMessageError)

	bob.Teardown()
	require.Equal(t, StateClosed, bob.State())

	n = nextOf[typing.Notification](t, alice, events.EventUserTyping)
	require.False(t, n.IsTyping, "teardown clears typing")

	status := nextOf[model.UserStatusModel](t, alice, events.EventUserStatus)
	require.False(t, status.IsOnline)
	require.False(t, e.gCtx.Inst().Presences.Online("bob"))

	require.ErrorIs(t, bob.Emit("anything", nil), ErrSessionClosed)
}

func TestReplacedSessionTeardownKeepsNewer(t *testing.T) {
	e := newEnv(t)
	first := e.announced(t, "alice")
	second := e.announced(t, "alice")

	first.Teardown()

	h, ok := e.gCtx.Inst().Presences.Get("alice")
	require.True(t, ok)
	require.Equal(t, second.ID(), h.ID())
}

func TestGetUserStatus(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")

	require.NoError(t, alice.Handle([]byte(`{"event":"get_user_status","data":"bob"}`)))

	status := nextOf[model.UserStatusModel](t, alice, events.EventUserStatus)
	require.Equal(t, "bob", status.UserID)
	require.False(t, status.IsOnline)
}

func TestRateLimit(t *testing.T) {
	e := newEnv(t, func(c *configure.Config) {
		c.Socket.EventsPerSecond = 0.001
		c.Socket.EventBurst = 1
	})
	alice := e.announced(t, "alice")

	send(t, alice, events.EventGetUserStatus, events.IdentityPayload{Identity: "bob"})

	p := nextOf[events.ErrorPayload](t, alice, events.EventMessageError)
	require.Equal(t, events.EventName(""), p.Event)
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	alice := e.announced(t, "alice")

	b, err := events.Encode(events.NewMessage[any](events.EventLogout, nil))
	require.NoError(t, err)
	require.ErrorIs(t, alice.Handle(b), errLogout)
}

func TestSlowConsumer(t *testing.T) {
	e := newEnv(t, func(c *configure.Config) {
		c.Socket.SendBuffer = 1
	})
	s := e.session("alice")

	require.NoError(t, s.Emit("one", nil))
	require.ErrorIs(t, s.Emit("two", nil), ErrSlowConsumer)
}

func TestServe(t *testing.T) {
	e := newEnv(t)

	ln := fasthttputil.NewInmemoryListener()
	defer ln.Close()

	go func() {
		_ = fasthttp.Serve(ln, func(ctx *fasthttp.RequestCtx) {
			_ = Serve(e.gCtx, ctx)
		})
	}()

	dialer := websocket.Dialer{
		NetDial: func(network, addr string) (net.Conn, error) {
			return ln.Dial()
		},
		HandshakeTimeout: time.Second,
	}

	token, _, err := e.gCtx.Inst().Auth.CreateAccessToken("alice", 0)
	require.NoError(t, err)

	conn, _, err := dialer.Dial("ws://bitchat/v1/socket?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"presence-announce","data":{"identity":"alice"}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"get-user-status","data":{"identity":"alice"}}`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := events.Decode(b)
	require.NoError(t, err)
	require.Equal(t, events.EventUserStatus, msg.Event)

	status, err := events.ConvertMessage[model.UserStatusModel](msg)
	require.NoError(t, err)
	require.True(t, status.Data.IsOnline)

	bad, _, err := dialer.Dial("ws://bitchat/v1/socket?token=garbage", nil)
	require.NoError(t, err)
	defer bad.Close()

	_ = bad.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = bad.ReadMessage()
	require.True(t, websocket.IsCloseError(err, int(events.CloseCodeAuthFailure)), "got %v", err)
}

type fakeConn struct {
	closed    chan struct{}
	closeOnce sync.Once

	mx   sync.Mutex
	code int
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed

	return 0, nil, net.ErrClosed
}

func (c *fakeConn) WriteMessage(int, []byte) error {
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
		return nil
	}
}

func (c *fakeConn) WriteControl(messageType int, data []byte, _ time.Time) error {
	if messageType == websocket.CloseMessage && len(data) >= 2 {
		c.mx.Lock()
		c.code = int(binary.BigEndian.Uint16(data))
		c.mx.Unlock()
	}

	return nil
}

func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })

	return nil
}

func (c *fakeConn) closeCode() int {
	c.mx.Lock()
	defer c.mx.Unlock()

	return c.code
}

func TestShutdownTearsSessionsDown(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	conn := newFakeConn()
	s := NewSession(e.gCtx, conn)
	s.Authenticate(structures.User{ID: "alice", Username: "alice"})
	send(t, s, events.EventPresenceAnnounce, events.IdentityPayload{Identity: "alice"})
	require.Equal(t, StateAnnounced, s.State())

	finished := make(chan struct{})
	go func() {
		s.Run()
		close(finished)
	}()

	e.cancel()

	testutil.Receive[struct{}](t, finished, time.Second, "session stops with the server")
	require.Equal(t, StateClosed, s.State())
	require.Equal(t, int(events.CloseCodeRestart), conn.closeCode())

	dctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	require.NoError(t, Drain(dctx))
	require.False(t, e.gCtx.Inst().Presences.Online("alice"))

	require.NoError(t, e.gCtx.Inst().Presences.Close(dctx))

	u, err := e.mem.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.False(t, u.IsOnline, "the durable flag is cleared before the store closes")
}
