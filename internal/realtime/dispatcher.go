package realtime

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// DefaultOperationTimeout bounds a single gateway call.
const DefaultOperationTimeout = 10 * time.Second

// Dispatcher routes inbound events to the delivery and query handlers.
//
// Send paths only persist; clients observe new content by issuing the
// matching fetch event, whose result is broadcast to every connection.
// No method returns an error: failures are logged and reported to the
// Observer.
type Dispatcher struct {
	gateway  Gateway
	out      Broadcaster
	log      *zap.Logger
	observer Observer
	timeout  time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the diagnostics logger.
func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithObserver sets the diagnostics sink.
func WithObserver(observer Observer) Option {
	return func(d *Dispatcher) {
		if observer != nil {
			d.observer = observer
		}
	}
}

// WithTimeout bounds each gateway call. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewDispatcher builds a dispatcher persisting through gateway and
// broadcasting query results through out.
func NewDispatcher(gateway Gateway, out Broadcaster, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		gateway:  gateway,
		out:      out,
		log:      zap.NewNop(),
		observer: nopObserver{},
		timeout:  DefaultOperationTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleEvent decodes the payload of an inbound event and runs its handler.
// Unknown events and undecodable payloads are dropped.
func (d *Dispatcher) HandleEvent(ctx context.Context, event string, data json.RawMessage) {
	switch event {
	case EventMessage:
		var env Envelope
		if d.decode(event, data, &env) {
			d.Deliver(ctx, env)
		}
	case EventGetChannelMessage:
		var q ChannelQuery
		if d.decode(event, data, &q) {
			d.ChannelMessages(ctx, q)
		}
	case EventThreadMessages:
		var q ThreadQuery
		if d.decode(event, data, &q) {
			d.ThreadMessages(ctx, q)
		}
	case EventPersonalMessage:
		var q PersonalQuery
		if d.decode(event, data, &q) {
			d.PersonalMessages(ctx, q)
		}
	case EventMemberRoles:
		var q RoleQuery
		if d.decode(event, data, &q) {
			d.CurrentUserRole(ctx, q)
		}
	case EventBannedMembers:
		var q BannedQuery
		if d.decode(event, data, &q) {
			d.BannedMembers(ctx, q)
		}
	default:
		d.observer.EnvelopeDropped(DropUnknownEvent)
		d.log.Warn("Unknown event", zap.String("event", event))
	}
}

func (d *Dispatcher) decode(event string, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		d.observer.EnvelopeDropped(DropDecodeError)
		d.log.Warn("Invalid event payload", zap.String("event", event), zap.Error(err))
		return false
	}
	return true
}

// Deliver classifies env and persists it on the matching path. Unknown kinds
// cause no gateway call and no broadcast.
func (d *Dispatcher) Deliver(ctx context.Context, env Envelope) {
	route := Classify(env)

	switch r := route.(type) {
	case ChannelRoute:
		d.persist(ctx, route, OpSendChannelMessage, func(ctx context.Context) error {
			return d.gateway.SendChannelMessage(ctx, r.Message)
		})
	case ThreadReplyRoute:
		d.persist(ctx, route, OpReplyThreadMessage, func(ctx context.Context) error {
			return d.gateway.ReplyThreadMessage(ctx, r.Message)
		})
	case ReplyRoute:
		d.persist(ctx, route, OpReplyMessage, func(ctx context.Context) error {
			return d.gateway.ReplyMessage(ctx, r.Message)
		})
	case ThreadRoute:
		d.persist(ctx, route, OpSendThreadMessage, func(ctx context.Context) error {
			return d.gateway.SendThreadMessage(ctx, r.Message)
		})
	case PersonalRoute:
		d.persist(ctx, route, OpSendPersonalMessage, func(ctx context.Context) error {
			return d.gateway.SendPersonalMessage(ctx, r.Message)
		})
	case UnknownRoute:
		d.observer.EnvelopeDropped(DropUnknownKind)
		d.log.Warn("Unknown message type", zap.String("kind", r.Kind), zap.String("author", env.Author))
	default:
		d.observer.EnvelopeDropped(DropUnknownKind)
		d.log.Error("Unhandled route", zap.String("route", route.Name()))
	}
}

func (d *Dispatcher) persist(ctx context.Context, route Route, op string, call func(context.Context) error) {
	defer d.recoverOp(op)

	d.observer.EnvelopeRouted(route.Name())

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := call(ctx); err != nil {
		d.observer.GatewayFailed(op)
		d.log.Error("Error persisting message",
			zap.String("route", route.Name()),
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

// ChannelMessages broadcasts the full message list of a channel.
func (d *Dispatcher) ChannelMessages(ctx context.Context, q ChannelQuery) {
	d.query(ctx, OpGetMessagesByChannel, EventSetMessage, func(ctx context.Context) (any, error) {
		msgs, err := d.gateway.GetMessagesByChannel(ctx, q.ChannelID, q.ServerID)
		return nonNil(msgs), err
	}, zap.String("channel_id", q.ChannelID), zap.String("server_id", q.ServerID))
}

// ThreadMessages broadcasts the full message list of a thread.
func (d *Dispatcher) ThreadMessages(ctx context.Context, q ThreadQuery) {
	d.query(ctx, OpGetThreadMessages, EventSetThreadMessages, func(ctx context.Context) (any, error) {
		msgs, err := d.gateway.GetThreadMessages(ctx, q.ThreadID, q.ServerID)
		return nonNil(msgs), err
	}, zap.String("thread_id", q.ThreadID), zap.String("server_id", q.ServerID))
}

// PersonalMessages broadcasts the full message list of a conversation.
func (d *Dispatcher) PersonalMessages(ctx context.Context, q PersonalQuery) {
	d.query(ctx, OpGetPersonalMessages, EventSetPersonalMessages, func(ctx context.Context) (any, error) {
		msgs, err := d.gateway.GetPersonalMessages(ctx, q.ConversationID, q.UserID)
		return nonNil(msgs), err
	}, zap.String("conversation_id", q.ConversationID), zap.String("user_id", q.UserID))
}

// CurrentUserRole broadcasts a user's role in a server, or null when the
// user holds none.
func (d *Dispatcher) CurrentUserRole(ctx context.Context, q RoleQuery) {
	d.query(ctx, OpGetCurrentUserRole, EventSetCurrentUserRole, func(ctx context.Context) (any, error) {
		return d.gateway.GetCurrentUserRole(ctx, q.UserID, q.ServerID)
	}, zap.String("user_id", q.UserID), zap.String("server_id", q.ServerID))
}

// BannedMembers broadcasts the banned members of a server.
func (d *Dispatcher) BannedMembers(ctx context.Context, q BannedQuery) {
	d.query(ctx, OpGetBannedMembers, EventSetBannedMembers, func(ctx context.Context) (any, error) {
		members, err := d.gateway.GetBannedMembers(ctx, q.ServerID)
		return nonNil(members), err
	}, zap.String("server_id", q.ServerID))
}

func (d *Dispatcher) query(ctx context.Context, op, event string, fetch func(context.Context) (any, error), fields ...zap.Field) {
	defer d.recoverOp(op)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	payload, err := fetch(ctx)
	if err != nil {
		d.observer.GatewayFailed(op)
		d.log.Error("Error fetching collection", append(fields, zap.String("op", op), zap.Error(err))...)
		return
	}
	d.out.Broadcast(event, payload)
}

func (d *Dispatcher) recoverOp(op string) {
	if r := recover(); r != nil {
		d.observer.GatewayFailed(op)
		d.log.Error("Recovered from panic in handler", zap.String("op", op), zap.Any("panic", r))
	}
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
