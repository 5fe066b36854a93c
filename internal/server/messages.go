package server

import (
	"net/http"
	"time"

	"github.com/saathi-app/saathi-server/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the envelope for frames sent by a client. Exactly one of
// the event fields is expected to be set.
type ClientMessage struct {
	BaseMessage
	JoinRoom      *JoinRoom       `json:"join-room,omitempty"`
	SendMessage   *SendMessage    `json:"send-message,omitempty"`
	DoctorOnline  *PresenceSignal `json:"doctor-online,omitempty"`
	DoctorOffline *PresenceSignal `json:"doctor-offline,omitempty"`
	client        *Client
}

type JoinRoom struct {
	RoomId string `json:"roomId"`
}

// SendMessage carries the sender-provided fields of a chat message. The
// server assigns the id and timestamp when it persists the message; the
// payload fields are stored as sent, without validation.
type SendMessage struct {
	ChatRoomId string `json:"chatRoomId"`
	SenderId   string `json:"senderId"`
	SenderType string `json:"senderType"`
	Message    string `json:"message"`
}

type PresenceSignal struct {
	DoctorId string `json:"doctorId"`
}

// ServerMessage is the envelope for frames sent to a client: a response to
// one of its own requests, a relayed chat message, or a global presence
// notification.
type ServerMessage struct {
	BaseMessage
	Response           *Response           `json:"response,omitempty"`
	ReceiveMessage     *types.ChatMessage  `json:"receive-message,omitempty"`
	DoctorStatusChange *DoctorStatusChange `json:"doctor-status-change,omitempty"`
	SkipClient         *Client             `json:"-"`
}

type Response struct {
	ResponseCode int            `json:"responseCode"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

type DoctorStatusChange struct {
	DoctorId string `json:"doctorId"`
	IsOnline bool   `json:"isOnline"`
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func ErrRoomNotFound(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "room not found",
		},
	}
}

func ErrNotRoomMember(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusForbidden,
			Error:        "not a member of this room",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
