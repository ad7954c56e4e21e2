package socket

import (
	goerrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/NAKUL-XD/BitChat/data/events"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/common/errors"
	"go.uber.org/zap"
)

var (
	ErrSessionClosed = goerrors.New("session closed")
	ErrSlowConsumer  = goerrors.New("session send buffer is full")

	errLogout = goerrors.New("logout")
)

type State uint8

const (
	StateConnecting State = iota
	StateAuthenticated
	StateAnnounced
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateAnnounced:
		return "announced"
	case StateClosed:
		return "closed"
	}

	return "unknown"
}

// Conn is the part of a websocket connection a session drives.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Session is one live chat connection. It is also the presence handle
// other sessions push to.
type Session struct {
	gCtx global.Context
	conn Conn
	id   string
	log  *zap.SugaredLogger

	mx    sync.Mutex
	state State
	user  structures.User

	router Router
	out    chan []byte

	closed    chan struct{}
	closeOnce sync.Once
	teardown  sync.Once

	pingInterval   time.Duration
	handlerTimeout time.Duration
}

func NewSession(gCtx global.Context, conn Conn) *Session {
	cfg := gCtx.Config().Socket

	buffer := cfg.SendBuffer
	if buffer <= 0 {
		buffer = 64
	}

	s := &Session{
		gCtx:           gCtx,
		conn:           conn,
		id:             uuid.NewString(),
		state:          StateConnecting,
		out:            make(chan []byte, buffer),
		closed:         make(chan struct{}),
		pingInterval:   time.Duration(cfg.PingIntervalSeconds) * time.Second,
		handlerTimeout: time.Duration(cfg.HandlerTimeoutSeconds) * time.Second,
	}

	if s.pingInterval <= 0 {
		s.pingInterval = 25 * time.Second
	}

	if s.handlerTimeout <= 0 {
		s.handlerTimeout = 15 * time.Second
	}

	s.log = zap.S().Named("socket").With("session_id", s.id)
	s.router = newRouter(s)

	if gCtx.Inst().Prometheus != nil {
		gCtx.Inst().Prometheus.ConnectionOpened()
	}

	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.state
}

func (s *Session) setState(state State) {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.state = state
}

// Identity is the authenticated user id, empty before authentication.
func (s *Session) Identity() string {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.user.ID
}

// Authenticate binds the session to a verified user.
func (s *Session) Authenticate(user structures.User) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.state != StateConnecting {
		return
	}

	s.user = user
	s.state = StateAuthenticated
	s.log = s.log.With("user_id", user.ID)
}

// Emit queues an event for the client without blocking.
func (s *Session) Emit(event string, payload any) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}

	b, err := events.Encode(events.NewMessage(events.EventName(event), payload))
	if err != nil {
		return err
	}

	select {
	case s.out <- b:
		return nil
	default:
		return ErrSlowConsumer
	}
}

func (s *Session) emitError(event events.EventName, err error) {
	var apiErr errors.APIError
	if !goerrors.As(err, &apiErr) {
		apiErr = errors.ErrInternalServerError()
	}

	if s.gCtx.Inst().Prometheus != nil {
		s.gCtx.Inst().Prometheus.EventFailed(event.String())
	}

	if err := s.Emit(events.EventMessageError.String(), events.ErrorPayload{
		Event:     event,
		Error:     apiErr.Message(),
		ErrorCode: apiErr.Code(),
		Details:   apiErr.GetFields(),
	}); err != nil {
		s.log.Debugw("could not deliver error acknowledgement",
			"event", event,
			"error", err,
		)
	}
}

// Handle runs one inbound frame to completion.
func (s *Session) Handle(b []byte) (err error) {
	inst := s.gCtx.Inst()

	if inst.Limiter != nil && !inst.Limiter.Allow("socket:"+s.id) {
		s.emitError("", errors.ErrRateLimited())
		return nil
	}

	msg, err := events.Decode(b)
	if err != nil {
		s.emitError("", errors.ErrInvalidRequest().SetDetail("Malformed frame"))
		return nil
	}

	if inst.Prometheus != nil {
		inst.Prometheus.EventReceived(msg.Event.String())
	}

	handler, ok := s.router[msg.Event]
	if !ok {
		s.emitError(msg.Event, errors.ErrInvalidRequest().SetDetail("Unknown event %q", msg.Event))
		return nil
	}

	state := s.State()

	switch {
	case state == StateClosed:
		return ErrSessionClosed
	case state == StateConnecting:
		s.emitError(msg.Event, errors.ErrUnauthorized())
		return nil
	case state != StateAnnounced && msg.Event != events.EventPresenceAnnounce && msg.Event != events.EventLogout:
		s.emitError(msg.Event, errors.ErrInvalidRequest().SetDetail("Announce presence first"))
		return nil
	}

	ctx, cancel := global.Detached(s.gCtx, s.handlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("panic in socket handler",
				"event", msg.Event,
				"panic", r,
			)

			s.emitError(msg.Event, errors.ErrInternalServerError().SetDetail(fmt.Sprint(r)))
			err = nil
		}
	}()

	if err := handler(ctx, msg.Data); err != nil {
		if goerrors.Is(err, errLogout) {
			return err
		}

		s.log.Debugw("event failed",
			"event", msg.Event,
			"error", err,
		)

		s.emitError(msg.Event, err)
	}

	return nil
}

// Run serves the connection until it closes or the server shuts down, then
// tears the session down.
func (s *Session) Run() {
	live.add()
	defer live.done()
	defer s.Teardown()

	go s.write()

	_ = s.conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))
	})

	for {
		_, b, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debugw("read failed",
					"error", err,
				)
			}

			s.Close(websocket.CloseNormalClosure, "")

			return
		}

		if err := s.Handle(b); err != nil {
			if goerrors.Is(err, errLogout) {
				s.Close(int(events.CloseCodeLogout), events.CloseCodeLogout.String())
			}

			return
		}
	}
}

func (s *Session) write() {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closed:
			return
		case <-s.gCtx.Done():
			s.Close(int(events.CloseCodeRestart), events.CloseCodeRestart.String())

			return
		case b := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				s.log.Debugw("write failed",
					"error", err,
				)
				s.Close(int(events.CloseCodeServerError), "")

				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				s.Close(int(events.CloseCodeTimeout), events.CloseCodeTimeout.String())

				return
			}
		}
	}
}

// Close sends a close frame and drops the connection. Safe to call more than once.
func (s *Session) Close(code int, reason string) {
	s.closeOnce.Do(func() {
		close(s.closed)

		if s.conn == nil {
			return
		}

		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
		_ = s.conn.Close()
	})
}

// Teardown releases everything the session holds. An announced identity
// goes offline unless a newer session has replaced it.
func (s *Session) Teardown() {
	s.teardown.Do(func() {
		s.mx.Lock()
		announced := s.state == StateAnnounced
		identity := s.user.ID
		s.state = StateClosed
		s.mx.Unlock()

		s.Close(websocket.CloseNormalClosure, "")

		inst := s.gCtx.Inst()

		if announced {
			ctx, cancel := global.Detached(s.gCtx, s.handlerTimeout)
			inst.Dispatch.Depart(ctx, identity, s)
			cancel()
		}

		if inst.Limiter != nil {
			inst.Limiter.Release("socket:" + s.id)
		}

		if inst.Prometheus != nil {
			inst.Prometheus.ConnectionClosed()
		}

		s.log.Debugw("session closed")
	})
}

func decode[T any](data jsoniter.RawMessage) (T, error) {
	var v T

	if len(data) == 0 {
		return v, nil
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.ErrInvalidRequest().SetDetail("Malformed payload")
	}

	return v, nil
}
