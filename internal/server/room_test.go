package server

import (
	"errors"
	"testing"
	"time"

	"github.com/saathi-app/saathi-server/internal/database"
	"github.com/saathi-app/saathi-server/internal/presence"
	"github.com/saathi-app/saathi-server/internal/stats"
	"github.com/saathi-app/saathi-server/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestRoom(cs *ChatServer, id, patientId, doctorId string) *Room {
	return &Room{
		id:            id,
		patientId:     patientId,
		doctorId:      doctorId,
		cs:            cs,
		joinChan:      make(chan *ClientMessage, 16),
		clientMsgChan: make(chan *ClientMessage, 16),
		detachChan:    make(chan *Client, 16),
		clients:       make(map[*Client]struct{}),
		log:           cs.log,
		killTimer:     time.NewTimer(idleRoomTimeout),
		exit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

func newTestClient(cs *ChatServer, id string, identType types.IdentityType) *Client {
	return &Client{
		chatServer: cs,
		identity:   types.Identity{Id: id, Type: identType},
		send:       make(chan *ServerMessage, 16),
		rooms:      make(map[string]*Room),
		log:        cs.log,
		stop:       make(chan struct{}),
	}
}

func TestRoom_handleJoin(t *testing.T) {
	cs := newTestChatServer(t, &database.MockSaathiRepository{}, presence.NewMemTracker(), &stats.MockStatsUpdater{})
	room := newTestRoom(cs, "room-1", "p1", "d1")
	client := newTestClient(cs, "p1", types.IdentityUser)

	room.handleJoin(&ClientMessage{
		BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
		JoinRoom:    &JoinRoom{RoomId: "room-1"},
		client:      client,
	})

	assert.Contains(t, room.clients, client, "expected client to be attached to room")
	assert.NotNil(t, client.getRoom("room-1"), "expected room to be tracked by client")

	select {
	case msg := <-client.send:
		assert.NotNil(t, msg.Response, "expected response message")
		assert.Equal(t, 1, msg.Id, "expected response ID to match join message ID")
		assert.Equal(t, 200, msg.Response.ResponseCode, "expected response code to be 200")
		assert.Equal(t, "room-1", msg.Response.Data["roomId"], "expected roomId in response data")
	default:
		t.Error("expected join confirmation to be queued to client")
	}
}

func TestRoom_saveAndBroadcast(t *testing.T) {
	t.Run("fans out to all members including sender", func(t *testing.T) {
		sent := Now()
		saved := database.ChatMessage{
			Id:         "m1",
			ChatRoomId: "room-1",
			SenderId:   "p1",
			SenderType: "user",
			Message:    "hello",
			Timestamp:  sent,
		}

		db := &database.MockSaathiRepository{}
		db.On("CreateMessage", mock.MatchedBy(func(params database.CreateMessageParams) bool {
			return params.ChatRoomId == "room-1" &&
				params.SenderId == "p1" &&
				params.SenderType == "user" &&
				params.Message == "hello"
		})).Return(saved, nil).Once()
		db.On("TouchRoom", "room-1", sent).Return(nil).Once()
		defer db.AssertExpectations(t)

		su := &stats.MockStatsUpdater{}
		su.On("Incr", "MessagesRelayed").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, db, presence.NewMemTracker(), su)
		room := newTestRoom(cs, "room-1", "p1", "d1")

		sender := newTestClient(cs, "p1", types.IdentityUser)
		receiver := newTestClient(cs, "d1", types.IdentityDoctor)
		room.addClient(sender)
		room.addClient(receiver)

		room.saveAndBroadcast(&ClientMessage{
			BaseMessage: BaseMessage{Id: 7, Timestamp: sent},
			SendMessage: &SendMessage{
				ChatRoomId: "room-1",
				SenderId:   "p1",
				SenderType: "user",
				Message:    "hello",
			},
			client: sender,
		})

		for _, c := range []*Client{sender, receiver} {
			select {
			case msg := <-c.send:
				assert.NotNil(t, msg.ReceiveMessage, "expected receive-message frame")
				assert.Equal(t, "m1", msg.ReceiveMessage.Id, "expected persisted message id")
				assert.Equal(t, "hello", msg.ReceiveMessage.Message)
				assert.Equal(t, types.SenderUser, msg.ReceiveMessage.SenderType)
				assert.Equal(t, sent, msg.ReceiveMessage.Timestamp, "expected server-assigned timestamp")
			default:
				t.Errorf("expected message to be queued to %q", c.identity.Id)
			}
		}
	})

	t.Run("persistence failure drops the message silently", func(t *testing.T) {
		db := &database.MockSaathiRepository{}
		db.On("CreateMessage", mock.Anything).Return(database.ChatMessage{}, errors.New("db down")).Once()
		defer db.AssertExpectations(t)

		cs := newTestChatServer(t, db, presence.NewMemTracker(), &stats.MockStatsUpdater{})
		room := newTestRoom(cs, "room-1", "p1", "d1")

		sender := newTestClient(cs, "p1", types.IdentityUser)
		room.addClient(sender)

		room.saveAndBroadcast(&ClientMessage{
			BaseMessage: BaseMessage{Id: 8, Timestamp: Now()},
			SendMessage: &SendMessage{ChatRoomId: "room-1", SenderId: "p1", SenderType: "user", Message: "lost"},
			client:      sender,
		})

		select {
		case <-sender.send:
			t.Error("expected no frame after persistence failure, not even an error")
		default:
		}
	})

	t.Run("touch failure does not suppress the broadcast", func(t *testing.T) {
		sent := Now()
		saved := database.ChatMessage{Id: "m2", ChatRoomId: "room-1", SenderId: "d1", SenderType: "doctor", Message: "rx", Timestamp: sent}

		db := &database.MockSaathiRepository{}
		db.On("CreateMessage", mock.Anything).Return(saved, nil).Once()
		db.On("TouchRoom", "room-1", sent).Return(errors.New("db down")).Once()
		defer db.AssertExpectations(t)

		su := &stats.MockStatsUpdater{}
		su.On("Incr", "MessagesRelayed").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, db, presence.NewMemTracker(), su)
		room := newTestRoom(cs, "room-1", "p1", "d1")
		sender := newTestClient(cs, "d1", types.IdentityDoctor)
		room.addClient(sender)

		room.saveAndBroadcast(&ClientMessage{
			BaseMessage: BaseMessage{Id: 9, Timestamp: sent},
			SendMessage: &SendMessage{ChatRoomId: "room-1", SenderId: "d1", SenderType: "doctor", Message: "rx"},
			client:      sender,
		})

		select {
		case msg := <-sender.send:
			assert.NotNil(t, msg.ReceiveMessage, "expected broadcast despite touch failure")
		default:
			t.Error("expected broadcast despite touch failure")
		}
	})

	t.Run("messages stay within their room", func(t *testing.T) {
		saved := database.ChatMessage{Id: "m3", ChatRoomId: "room-1", SenderId: "p1", SenderType: "user", Message: "hi", Timestamp: Now()}

		db := &database.MockSaathiRepository{}
		db.On("CreateMessage", mock.Anything).Return(saved, nil).Once()
		db.On("TouchRoom", "room-1", mock.Anything).Return(nil).Once()
		defer db.AssertExpectations(t)

		su := &stats.MockStatsUpdater{}
		su.On("Incr", "MessagesRelayed").Once()
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, db, presence.NewMemTracker(), su)
		room1 := newTestRoom(cs, "room-1", "p1", "d1")
		room2 := newTestRoom(cs, "room-2", "p2", "d2")

		sender := newTestClient(cs, "p1", types.IdentityUser)
		bystander := newTestClient(cs, "p2", types.IdentityUser)
		room1.addClient(sender)
		room2.addClient(bystander)

		room1.saveAndBroadcast(&ClientMessage{
			BaseMessage: BaseMessage{Id: 10, Timestamp: Now()},
			SendMessage: &SendMessage{ChatRoomId: "room-1", SenderId: "p1", SenderType: "user", Message: "hi"},
			client:      sender,
		})

		assert.Len(t, sender.send, 1, "expected message in sender's room")
		assert.Len(t, bystander.send, 0, "expected no leakage into other rooms")
	})
}

func TestRoom_removeClient(t *testing.T) {
	cs := newTestChatServer(t, &database.MockSaathiRepository{}, presence.NewMemTracker(), &stats.MockStatsUpdater{})
	room := newTestRoom(cs, "room-1", "p1", "d1")
	room.killTimer.Stop()

	client := newTestClient(cs, "p1", types.IdentityUser)
	room.addClient(client)

	room.removeClient(client)
	assert.NotContains(t, room.clients, client, "expected client to be removed")
	assert.Nil(t, client.getRoom("room-1"), "expected room to be dropped from client")

	// removing a client that is not attached is a no-op
	room.removeClient(client)
}

func TestRoom_idleUnload(t *testing.T) {
	cs := newTestChatServer(t, &database.MockSaathiRepository{}, presence.NewMemTracker(), &stats.MockStatsUpdater{})
	cs.unloadRoomChan = make(chan string, 1)
	room := newTestRoom(cs, "room-1", "p1", "d1")

	room.handleRoomTimeout()

	select {
	case id := <-cs.unloadRoomChan:
		assert.Equal(t, "room-1", id, "expected unload request for the idle room")
	case <-time.After(200 * time.Millisecond):
		t.Error("expected unload request to be sent to hub")
	}
}

func TestRoom_exitDetachesClients(t *testing.T) {
	cs := newTestChatServer(t, &database.MockSaathiRepository{}, presence.NewMemTracker(), &stats.MockStatsUpdater{})
	room := newTestRoom(cs, "room-1", "p1", "d1")
	client := newTestClient(cs, "p1", types.IdentityUser)
	room.addClient(client)

	go room.start()
	close(room.exit)

	select {
	case <-room.done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected room to exit")
	}

	assert.Nil(t, client.getRoom("room-1"), "expected room to be dropped from client on exit")
}
