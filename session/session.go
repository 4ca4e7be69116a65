// Package session relays messages between one game and the controllers
// attached to it. It works on byte frames only; the transport that carries
// them is the caller's.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"partywire/codec"
	"partywire/middleware"
	"partywire/protocol"
)

var (
	ErrUnknownController = errors.New("unknown controller")
	ErrSessionFull       = errors.New("session full")
)

// Options tune a session.
type Options struct {
	// PushInterval is announced to every controller on join.
	PushInterval time.Duration
	// MaxControllers caps attached controllers. Zero means the id space.
	MaxControllers int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{PushInterval: 50 * time.Millisecond}
}

// Session holds the identifier and the attached controllers of one game.
// All methods are safe for concurrent use.
type Session struct {
	id      string
	opts    Options
	logger  *slog.Logger
	handler middleware.HandlerFunc

	mu          sync.Mutex
	controllers protocol.ControllerSet
	onLeave     []func(id uint16)
}

// New creates a session with a fixed identifier. Controller frames pass
// through middlewares, in order, before they are decoded.
func New(id string, opts Options, logger *slog.Logger, middlewares ...middleware.Middleware) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if opts.PushInterval < 0 || opts.PushInterval.Milliseconds() > math.MaxUint32 {
		return nil, fmt.Errorf("push interval %s out of range", opts.PushInterval)
	}
	if opts.MaxControllers < 0 || opts.MaxControllers > math.MaxUint16+1 {
		return nil, fmt.Errorf("max controllers %d out of range", opts.MaxControllers)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		id:          id,
		opts:        opts,
		logger:      logger.With("session", id),
		controllers: protocol.NewControllerSet(),
	}
	s.handler = middleware.Chain(middlewares...)(s.forwardCommand)
	return s, nil
}

// OnLeave registers f to run after a controller leaves, for state kept per
// controller id outside the session, such as a middleware.RateLimiter.
func (s *Session) OnLeave(f func(id uint16)) {
	s.mu.Lock()
	s.onLeave = append(s.onLeave, f)
	s.mu.Unlock()
}

// NewRandom creates a session with a random identifier.
func NewRandom(opts Options, logger *slog.Logger, middlewares ...middleware.Middleware) (*Session, error) {
	return New(uuid.NewString(), opts, logger, middlewares...)
}

func (s *Session) ID() string {
	return s.id
}

// Announce returns the SetId event the game receives first.
func (s *Session) Announce() ([]byte, error) {
	return codec.Marshal(protocol.SetID[protocol.ControllerToSessionCommand](s.id))
}

// Join attaches a new controller under the lowest free id. It returns the
// NewPlayer event for the game and the SetPushInterval event for the
// controller.
func (s *Session) Join() (id uint16, toGame, toController []byte, err error) {
	s.mu.Lock()
	id, err = s.allocate()
	s.mu.Unlock()
	if err != nil {
		return 0, nil, nil, err
	}

	toGame, err = codec.Marshal(protocol.NewPlayer[protocol.ControllerToSessionCommand](id))
	if err == nil {
		ms := uint32(s.opts.PushInterval.Milliseconds())
		toController, err = codec.Marshal(protocol.SetPushInterval[protocol.GameToControllerEvent](ms))
	}
	if err != nil {
		s.release(id)
		return 0, nil, nil, err
	}
	s.logger.Info("controller joined", "controller", id)
	return id, toGame, toController, nil
}

// allocate must be called with mu held.
func (s *Session) allocate() (uint16, error) {
	limit := s.opts.MaxControllers
	if limit == 0 {
		limit = math.MaxUint16 + 1
	}
	if len(s.controllers) >= limit {
		return 0, ErrSessionFull
	}
	for id := 0; id < limit; id++ {
		if !s.controllers.Has(uint16(id)) {
			s.controllers.Add(uint16(id))
			return uint16(id), nil
		}
	}
	return 0, ErrSessionFull
}

func (s *Session) release(id uint16) ([]func(uint16), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.controllers.Has(id) {
		return nil, false
	}
	delete(s.controllers, id)
	return s.onLeave, true
}

// Leave detaches a controller and returns the PlayerLeft event for the game.
// The id becomes available to later joins.
func (s *Session) Leave(id uint16) ([]byte, error) {
	hooks, ok := s.release(id)
	if !ok {
		return nil, fmt.Errorf("leave %d: %w", id, ErrUnknownController)
	}
	for _, f := range hooks {
		f(id)
	}
	s.logger.Info("controller left", "controller", id)
	return codec.Marshal(protocol.PlayerLeft[protocol.ControllerToSessionCommand](id))
}

func (s *Session) attached(id uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controllers.Has(id)
}

// HandleController takes a frame received from controller id and returns the
// ControllerCommand event to forward to the game.
func (s *Session) HandleController(ctx context.Context, id uint16, payload []byte) ([]byte, error) {
	if !s.attached(id) {
		return nil, fmt.Errorf("controller %d: %w", id, ErrUnknownController)
	}
	return s.handler(ctx, &middleware.Request{ControllerID: id, Payload: payload})
}

func (s *Session) forwardCommand(ctx context.Context, req *middleware.Request) ([]byte, error) {
	cmd, err := codec.Unmarshal[protocol.ControllerToSessionCommand](req.Payload)
	if err != nil {
		return nil, fmt.Errorf("controller %d: %w", req.ControllerID, err)
	}
	return codec.Marshal(protocol.ControllerCommand(req.ControllerID, cmd))
}

// HandleGame takes a frame received from the game and returns the target
// controller with the event to send it.
func (s *Session) HandleGame(payload []byte) (uint16, []byte, error) {
	msg, err := codec.Unmarshal[protocol.GameMessage](payload)
	if err != nil {
		return 0, nil, fmt.Errorf("game message: %w", err)
	}
	if !s.attached(msg.ID) {
		return 0, nil, fmt.Errorf("game message for controller %d: %w", msg.ID, ErrUnknownController)
	}
	out, err := codec.Marshal(protocol.Forward(msg.Event))
	if err != nil {
		return 0, nil, err
	}
	return msg.ID, out, nil
}

// Controllers returns the attached controller ids in ascending order.
func (s *Session) Controllers() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controllers.Sorted()
}

// Snapshot returns a copy of the attached controller set.
func (s *Session) Snapshot() protocol.ControllerSet {
	return protocol.NewControllerSet(s.Controllers()...)
}

// Statistics returns the snapshot for this session alone.
func (s *Session) Statistics() protocol.Statistics {
	return protocol.Statistics{Tree: map[string]protocol.ControllerSet{s.id: s.Snapshot()}}
}
