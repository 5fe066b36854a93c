package server

import (
	"context"
	"log"
	"sync"

	"github.com/saathi-app/saathi-server/internal/database"
	"github.com/saathi-app/saathi-server/internal/presence"
	"github.com/saathi-app/saathi-server/internal/stats"
	"github.com/saathi-app/saathi-server/internal/types"
)

const (
	metricActiveConnections = "ActiveConnections"
	metricActiveRooms       = "ActiveRooms"
	metricMessagesRelayed   = "MessagesRelayed"
	metricPresenceUpdates   = "PresenceUpdates"
)

type stopReq struct {
	done chan struct{}
}

// ChatServer is the hub for all websocket connections. It loads rooms on
// demand, routes join requests after checking the caller is a participant of
// the room, and fans presence changes out to every connection.
type ChatServer struct {
	log            *log.Logger
	db             database.SaathiRepository
	tracker        presence.Tracker
	stats          stats.StatsProvider
	clients        map[*Client]struct{}
	clientsLock    sync.Mutex
	joinChan       chan *ClientMessage
	presenceChan   chan *ClientMessage
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	unloadRoomChan chan string
	rooms          map[string]*Room
	stop           chan stopReq
}

func NewChatServer(logger *log.Logger, db database.SaathiRepository, tracker presence.Tracker, sp stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:            logger,
		db:             db,
		tracker:        tracker,
		stats:          sp,
		clients:        make(map[*Client]struct{}),
		joinChan:       make(chan *ClientMessage, 256),
		presenceChan:   make(chan *ClientMessage, 256),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		unloadRoomChan: make(chan string),
		rooms:          make(map[string]*Room),
		stop:           make(chan stopReq),
	}

	sp.RegisterMetric(metricActiveConnections)
	sp.RegisterMetric(metricActiveRooms)
	sp.RegisterMetric(metricMessagesRelayed)
	sp.RegisterMetric(metricPresenceUpdates)

	return cs, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case joinMsg := <-cs.joinChan:
			cs.handleJoin(joinMsg)
		case msg := <-cs.presenceChan:
			cs.handlePresence(msg)
		case client := <-cs.RegisterChan:
			cs.log.Printf("adding connection from %q", client.identity.Id)
			cs.addClient(client)
		case client := <-cs.deRegisterChan:
			cs.log.Printf("removing connection from %q", client.identity.Id)
			cs.removeClient(client)
		case id := <-cs.unloadRoomChan:
			if r, ok := cs.rooms[id]; ok {
				cs.unloadRoom(id)
				close(r.exit)
				<-r.done
			}
		case req := <-cs.stop:
			cs.log.Println("shutting down rooms")
			for _, r := range cs.rooms {
				close(r.exit)
				<-r.done
			}

			close(req.done)
			return
		}
	}
}

// handleJoin resolves the join target and checks the connection's identity
// against the room's participants before handing the request to the room.
// Unlike message sends, joins are validated: a caller may only enter a room
// whose patientId or doctorId matches its own id.
func (cs *ChatServer) handleJoin(joinMsg *ClientMessage) {
	roomId := joinMsg.JoinRoom.RoomId

	if room, ok := cs.rooms[roomId]; ok {
		if !cs.mayJoin(joinMsg.client, room.patientId, room.doctorId) {
			joinMsg.client.queueMessage(ErrNotRoomMember(joinMsg.Id))
			return
		}

		select {
		case room.joinChan <- joinMsg:
		default:
			cs.log.Printf("join channel full on room %q", room.id)
			joinMsg.client.queueMessage(ErrServiceUnavailable(joinMsg.Id))
		}
		return
	}

	dbRoom, err := cs.db.GetRoomById(roomId)
	if err != nil {
		joinMsg.client.queueMessage(ErrRoomNotFound(joinMsg.Id))
		return
	}

	if !cs.mayJoin(joinMsg.client, dbRoom.PatientId, dbRoom.DoctorId) {
		joinMsg.client.queueMessage(ErrNotRoomMember(joinMsg.Id))
		return
	}

	room := &Room{
		id:            dbRoom.Id,
		patientId:     dbRoom.PatientId,
		doctorId:      dbRoom.DoctorId,
		cs:            cs,
		joinChan:      make(chan *ClientMessage, 256),
		clientMsgChan: make(chan *ClientMessage, 256),
		detachChan:    make(chan *Client, 256),
		clients:       make(map[*Client]struct{}),
		log:           cs.log,
		exit:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	cs.rooms[room.id] = room
	cs.stats.Incr(metricActiveRooms)
	room.joinChan <- joinMsg

	go room.start()
}

func (cs *ChatServer) mayJoin(c *Client, patientId, doctorId string) bool {
	switch c.identity.Type {
	case types.IdentityUser:
		return c.identity.Id == patientId
	case types.IdentityDoctor:
		return c.identity.Id == doctorId
	default:
		return false
	}
}

// handlePresence flips the doctor's advertised availability and notifies
// every connection, not just room members. The flag is last-known-state: it
// is never expired or reconciled against the connection's liveness.
func (cs *ChatServer) handlePresence(msg *ClientMessage) {
	var doctorId string
	var online bool

	switch {
	case msg.DoctorOnline != nil:
		doctorId, online = msg.DoctorOnline.DoctorId, true
	case msg.DoctorOffline != nil:
		doctorId, online = msg.DoctorOffline.DoctorId, false
	default:
		return
	}

	ctx := context.Background()
	var err error
	if online {
		err = cs.tracker.SetOnline(ctx, doctorId)
	} else {
		err = cs.tracker.SetOffline(ctx, doctorId)
	}
	if err != nil {
		cs.log.Printf("error updating presence for doctor %q: %v", doctorId, err)
		return
	}

	cs.stats.Incr(metricPresenceUpdates)

	cs.broadcastAll(&ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		DoctorStatusChange: &DoctorStatusChange{
			DoctorId: doctorId,
			IsOnline: online,
		},
	})
}

func (cs *ChatServer) broadcastAll(msg *ServerMessage) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	for c := range cs.clients {
		c.queueMessage(msg)
	}
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	cs.clients[c] = struct{}{}
	cs.stats.Incr(metricActiveConnections)
}

func (cs *ChatServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	if _, ok := cs.clients[c]; ok {
		delete(cs.clients, c)
		cs.stats.Decr(metricActiveConnections)
	}
}

func (cs *ChatServer) unloadRoom(roomId string) {
	if _, ok := cs.rooms[roomId]; ok {
		cs.log.Printf("removing room %q", roomId)
		delete(cs.rooms, roomId)
		cs.stats.Decr(metricActiveRooms)
	}
}

// Shutdown stops the hub and waits for all rooms to exit, honoring ctx.
func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.clientsLock.Lock()
	for c := range cs.clients {
		c.stopClient()
	}
	cs.clientsLock.Unlock()

	req := stopReq{done: make(chan struct{})}
	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
