package server

import (
	"log"
	"sync"
	"time"

	"github.com/saathi-app/saathi-server/internal/database"
	"github.com/saathi-app/saathi-server/internal/types"
)

const idleRoomTimeout = time.Minute

// Room is the in-memory delivery group for one chat room. It is loaded on
// the first join and unloaded after sitting idle with no connections.
type Room struct {
	id            string
	patientId     string
	doctorId      string
	cs            *ChatServer
	joinChan      chan *ClientMessage
	clientMsgChan chan *ClientMessage
	detachChan    chan *Client
	clients       map[*Client]struct{}
	clientLock    sync.RWMutex
	log           *log.Logger
	// killTimer unloads the room when no connections remain
	killTimer *time.Timer
	exit      chan struct{}
	done      chan struct{}
}

func (r *Room) start() {
	r.log.Printf("starting room %q", r.id)
	r.killTimer = time.NewTimer(idleRoomTimeout)
	r.killTimer.Stop()

	for {
		select {
		case join := <-r.joinChan:
			r.handleJoin(join)
		case msg := <-r.clientMsgChan:
			if msg.SendMessage != nil {
				r.saveAndBroadcast(msg)
			}
		case c := <-r.detachChan:
			r.removeClient(c)
		case <-r.killTimer.C:
			r.handleRoomTimeout()
		case <-r.exit:
			r.handleRoomExit()
			return
		}
	}
}

func (r *Room) handleRoomTimeout() {
	r.log.Printf("room %q timed out", r.id)
	select {
	case r.cs.unloadRoomChan <- r.id:
	default:
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) handleRoomExit() {
	r.log.Printf("room %q is exiting", r.id)

	r.clientLock.Lock()
	for c := range r.clients {
		c.delRoom(r.id)
	}
	r.clients = make(map[*Client]struct{})
	r.clientLock.Unlock()

	close(r.done)
}

func (r *Room) handleJoin(join *ClientMessage) {
	r.killTimer.Stop()

	c := join.client
	r.addClient(c)

	c.queueMessage(NoErrOK(join.Id, map[string]any{
		"roomId": r.id,
	}))
}

// saveAndBroadcast persists the message and fans it out to every connection
// in the room, sender included. A persistence failure is logged and the
// message dropped: no broadcast, no retry, no error frame to the sender.
func (r *Room) saveAndBroadcast(msg *ClientMessage) {
	send := msg.SendMessage

	saved, err := r.cs.db.CreateMessage(database.CreateMessageParams{
		ChatRoomId: send.ChatRoomId,
		SenderId:   send.SenderId,
		SenderType: send.SenderType,
		Message:    send.Message,
		Timestamp:  msg.Timestamp,
	})
	if err != nil {
		r.log.Println("error saving message:", err)
		return
	}

	if err := r.cs.db.TouchRoom(r.id, saved.Timestamp); err != nil {
		r.log.Printf("error updating last message time on room %q: %v", r.id, err)
	}

	r.cs.stats.Incr(metricMessagesRelayed)

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{
			Id:        msg.Id,
			Timestamp: saved.Timestamp,
		},
		ReceiveMessage: &types.ChatMessage{
			Id:         saved.Id,
			ChatRoomId: saved.ChatRoomId,
			SenderId:   saved.SenderId,
			SenderType: types.SenderType(saved.SenderType),
			Message:    saved.Message,
			Timestamp:  saved.Timestamp,
			IsRead:     saved.IsRead,
		},
	})
}

func (r *Room) addClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	r.clients[c] = struct{}{}
	c.addRoom(r)
}

func (r *Room) removeClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	if _, ok := r.clients[c]; !ok {
		return
	}

	r.log.Printf("removing connection %q from room %q", c.identity.Id, r.id)
	delete(r.clients, c)
	c.delRoom(r.id)

	if len(r.clients) == 0 {
		r.log.Printf("no connections in %q, starting kill timer", r.id)
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) broadcast(msg *ServerMessage) {
	r.clientLock.RLock()
	defer r.clientLock.RUnlock()

	for client := range r.clients {
		if client == msg.SkipClient {
			continue
		}

		client.queueMessage(msg)
	}
}
