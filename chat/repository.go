package chat

import "sync"

// RoomRepository is an in-memory room index, explicitly constructed and
// owned by the host (no process-wide default instance). It maintains two
// consistent views: by generated room id and by room name.
type RoomRepository struct {
	mu     sync.Mutex
	byID   map[string]*Room
	byName map[string]*Room
}

// NewRoomRepository creates an empty repository.
func NewRoomRepository() *RoomRepository {
	return &RoomRepository{
		byID:   make(map[string]*Room),
		byName: make(map[string]*Room),
	}
}

// GetOrAddRoom returns the room registered under name, creating it with
// factory if absent. The operation is atomic: concurrent callers for the
// same new name all receive the same room instance and factory runs exactly
// once. The created room is also indexed by its generated id.
func (r *RoomRepository) GetOrAddRoom(name string, factory func(name string) *Room) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.byName[name]; ok {
		return room
	}
	room := factory(name)
	r.byName[name] = room
	r.byID[room.ID()] = room
	return room
}

// Room returns the room with the given id.
func (r *RoomRepository) Room(roomID string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.byID[roomID]
	return room, ok
}

// RoomByName returns the room registered under name.
func (r *RoomRepository) RoomByName(name string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.byName[name]
	return room, ok
}

// RemoveRoom drops the room from both indexes. Returns the removed room, or
// ok == false if the id is unknown.
func (r *RoomRepository) RemoveRoom(roomID string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.byID[roomID]
	if !ok {
		return nil, false
	}
	delete(r.byID, roomID)
	delete(r.byName, room.Name())
	return room, true
}

// Rooms returns a snapshot of all rooms.
func (r *RoomRepository) Rooms() []*Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Room, 0, len(r.byID))
	for _, room := range r.byID {
		out = append(out, room)
	}
	return out
}

// Len returns the number of rooms.
func (r *RoomRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
