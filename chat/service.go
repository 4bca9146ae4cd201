package chat

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/streamkit/core/connection"
	"github.com/dmitrymomot/streamkit/core/streaming"
	"github.com/dmitrymomot/streamkit/pkg/logger"
)

// Service implements the room operations the dispatcher exposes to clients:
// join-or-create, leave, message fan-out, and the streaming subscriptions
// that deliver room events. It composes an explicitly provided
// RoomRepository; nothing here is process-global.
//
// Per-connection state (the member id a connection holds in each room, the
// disconnect cleanup hook) lives in the connection's typed item bag, so a
// dropped connection leaves its rooms automatically.
type Service struct {
	rooms *RoomRepository
	log   *slog.Logger

	// repoKey memoizes one streaming repository per connection for this
	// service.
	repoKey connection.Key[*streaming.Repository]

	// Per-room bag keys, created on demand and dropped with the room.
	keyMu       sync.Mutex
	memberKeys  map[string]connection.Key[string]
	cleanupKeys map[string]connection.Key[func()]
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger configures structured logging for the service.
// Defaults to a discard logger.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a chat service over the given room repository.
func NewService(rooms *RoomRepository, opts ...ServiceOption) *Service {
	s := &Service{
		rooms:       rooms,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		repoKey:     connection.NewKey[*streaming.Repository]("chat.streaming_repository"),
		memberKeys:  make(map[string]connection.Key[string]),
		cleanupKeys: make(map[string]connection.Key[func()]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// JoinOrCreateRoom joins the connection to the room named roomName,
// creating the room if it does not exist. The creating connection becomes
// the room's first member; joining an existing room broadcasts a Join event
// to the members already present. Fails with ErrAlreadyJoined when the
// connection already holds a member in the room.
//
// A cleanup hook is registered on the connection's close signal so the
// member leaves the room automatically on disconnect.
func (s *Service) JoinOrCreateRoom(ctx context.Context, conn *connection.Connection, roomName, nickName string) (RoomInfo, error) {
	repo := s.repository(conn)

	var created *Room
	var member RoomMember

	room := s.rooms.GetOrAddRoom(roomName, func(name string) *Room {
		created = NewRoom(uuid.NewString(), name)
		member = RoomMember{ID: uuid.NewString(), Name: nickName}
		created.AddMember(member, repo)
		return created
	})

	if room != created {
		if _, joined := s.memberKey(room.ID()).Get(conn); joined {
			return RoomInfo{}, ErrAlreadyJoined
		}
		member = RoomMember{ID: uuid.NewString(), Name: nickName}
		room.AddMember(member, repo)
		if err := room.BroadcastJoin(ctx, member); err != nil {
			// Delivery is best effort; a dead member's stream must not
			// fail the join.
			s.log.Warn("join broadcast partially failed",
				logger.RoomID(room.ID()), logger.Error(err))
		}
	}

	s.memberKey(room.ID()).Set(conn, member.ID)

	roomID, memberID := room.ID(), member.ID
	deregister := conn.OnClose(func() {
		s.leaveCore(context.Background(), roomID, memberID)
	})
	s.cleanupKey(roomID).Set(conn, deregister)

	s.log.Info("member joined room",
		logger.ConnectionID(conn.ID()),
		logger.RoomID(roomID),
		logger.MemberID(memberID))
	return room.Info(), nil
}

// Leave removes the connection's member from the room. Returns false when
// the room is unknown; leaving a room the connection is not in is a no-op
// reported as success, since the desired state already holds.
func (s *Service) Leave(ctx context.Context, conn *connection.Connection, roomID string) (bool, error) {
	if _, ok := s.rooms.Room(roomID); !ok {
		return false, nil
	}

	if deregister, ok := s.cleanupKey(roomID).Get(conn); ok {
		deregister()
		s.cleanupKey(roomID).Delete(conn)
	}

	memberID, ok := s.memberKey(roomID).Get(conn)
	if ok {
		s.memberKey(roomID).Delete(conn)
		s.leaveCore(ctx, roomID, memberID)
	}
	return true, nil
}

// leaveCore performs the actual departure for (roomID, memberID). It is
// invoked both from Leave and from the connection's close signal, so it
// never fails: missing rooms and members are no-ops, and broadcast errors
// are logged rather than raised into the teardown path.
func (s *Service) leaveCore(ctx context.Context, roomID, memberID string) {
	room, ok := s.rooms.Room(roomID)
	if !ok {
		return
	}
	member, ok := room.Member(memberID)
	if !ok {
		return
	}

	room.RemoveMember(memberID)
	if room.MemberCount() == 0 {
		s.rooms.RemoveRoom(roomID)
		s.dropKeys(roomID)
		s.log.Info("room removed", logger.RoomID(roomID))
		return
	}

	if err := room.BroadcastLeave(ctx, member); err != nil {
		s.log.Warn("leave broadcast partially failed",
			logger.RoomID(roomID), logger.Error(err))
	}
}

// SendMessage broadcasts text to every room member except the sender.
// Returns false when the room is unknown or the connection holds no member
// in it: chat delivery is best effort, not an invariant violation. The
// returned error joins per-recipient delivery failures.
func (s *Service) SendMessage(ctx context.Context, conn *connection.Connection, roomID, text string) (bool, error) {
	room, ok := s.rooms.Room(roomID)
	if !ok {
		return false, nil
	}
	memberID, ok := s.memberKey(roomID).Get(conn)
	if !ok {
		return false, nil
	}
	member, ok := room.Member(memberID)
	if !ok {
		return false, nil
	}
	return true, room.BroadcastMessage(ctx, member, text)
}

// Rooms returns descriptions of all current rooms.
func (s *Service) Rooms() []RoomInfo {
	rooms := s.rooms.Rooms()
	out := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Info())
	}
	return out
}

// Members returns the members of the room, or an empty slice for an unknown
// room id.
func (s *Service) Members(roomID string) []RoomMember {
	room, ok := s.rooms.Room(roomID)
	if !ok {
		return []RoomMember{}
	}
	return room.Members()
}

// RegisterStream attaches a room-event subscription for the connection. The
// caller's streaming handler should park on the returned subscription's
// Wait.
func (s *Service) RegisterStream(conn *connection.Connection, method streaming.Method, stream streaming.Stream) (*streaming.Subscription, error) {
	return s.repository(conn).Register(method, stream)
}

// CompleteStream completes the connection's subscription for method,
// releasing its streaming handler.
func (s *Service) CompleteStream(ctx context.Context, conn *connection.Connection, method streaming.Method) error {
	return s.repository(conn).Complete(ctx, method)
}

// repository resolves the connection's streaming repository, constructing
// it on first use.
func (s *Service) repository(conn *connection.Connection) *streaming.Repository {
	return streaming.ForConnection(s.repoKey, conn, func(c *connection.Connection) *streaming.Repository {
		return streaming.NewRepository(c, streaming.WithLogger(s.log))
	})
}

func (s *Service) memberKey(roomID string) connection.Key[string] {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	key, ok := s.memberKeys[roomID]
	if !ok {
		key = connection.NewKey[string]("chat.room." + roomID + ".member_id")
		s.memberKeys[roomID] = key
	}
	return key
}

func (s *Service) cleanupKey(roomID string) connection.Key[func()] {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	key, ok := s.cleanupKeys[roomID]
	if !ok {
		key = connection.NewKey[func()]("chat.room." + roomID + ".cleanup")
		s.cleanupKeys[roomID] = key
	}
	return key
}

func (s *Service) dropKeys(roomID string) {
	s.keyMu.Lock()
	delete(s.memberKeys, roomID)
	delete(s.cleanupKeys, roomID)
	s.keyMu.Unlock()
}
