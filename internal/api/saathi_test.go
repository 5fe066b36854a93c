package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/saathi-app/saathi-server/internal/config"
	"github.com/saathi-app/saathi-server/internal/database"
	"github.com/saathi-app/saathi-server/internal/presence"
	"github.com/saathi-app/saathi-server/internal/server"
	"github.com/saathi-app/saathi-server/internal/stats"
	"github.com/saathi-app/saathi-server/internal/testutil"
	"github.com/saathi-app/saathi-server/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewSaathiApp(t *testing.T) {
	mux := http.NewServeMux()
	logger := testutil.TestLogger(t)
	cs := &server.ChatServer{}
	db := &database.MockSaathiRepository{}
	cfg := &config.Config{
		ServerAddr:     "localhost:8080",
		DatabaseDSN:    "dsn",
		SigningKey:     []byte("secret"),
		FrontendURL:    "https://saathi.example.com",
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	app := NewSaathiApp(mux, logger, cs, db, nil, nil, cfg)

	assert.NotNil(t, app, "expected app to be initialized")
	assert.NotNil(t, app.mux, "expected mux to be initialized")
	assert.NotNil(t, app.log, "expected logger to be set")
	assert.NotNil(t, app.db, "expected db to be set")
	assert.NotNil(t, app.cs, "expected chat server to be set")
	assert.Equal(t, app.log, logger, "expected logger to be set")
	assert.Equal(t, app.db, db, "expected db to be set")
	assert.Equal(t, app.cs, cs, "expected chat server to be set")
	assert.Equal(t, app.signingKey, cfg.SigningKey, "expected signing key to be set")
	assert.Equal(t, app.frontendURL, cfg.FrontendURL, "expected frontend URL to be set")
	assert.Equal(t, app.mux.Addr, cfg.ServerAddr, "expected server address to match config")
}

type e2eHarness struct {
	t      *testing.T
	ts     *httptest.Server
	client *http.Client
}

func newE2EHarness(t *testing.T) *e2eHarness {
	db := database.NewMemSaathiRepository()
	tracker := presence.NewMemTracker()

	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return(nil).Times(4)
	su.On("Incr", mock.Anything).Return(nil).Maybe()
	su.On("Decr", mock.Anything).Return(nil).Maybe()

	logger := testutil.TestLogger(t)
	cs, err := server.NewChatServer(logger, db, tracker, su)
	assert.NoError(t, err)
	go cs.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, cs.Shutdown(ctx))
	})

	app := NewSaathiApp(http.NewServeMux(), logger, cs, db, tracker, su, &config.Config{
		ServerAddr:  "localhost:0",
		SigningKey:  []byte("test-secret"),
		FrontendURL: "https://saathi.example.com",
	})

	ts := httptest.NewServer(app.mux.Handler)
	t.Cleanup(ts.Close)

	return &e2eHarness{t: t, ts: ts, client: ts.Client()}
}

func (h *e2eHarness) post(path, token string, body any, out any) int {
	h.t.Helper()

	req, err := http.NewRequest(http.MethodPost, h.ts.URL+path, jsonBody(h.t, body))
	assert.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.client.Do(req)
	assert.NoError(h.t, err)
	defer resp.Body.Close()

	if out != nil {
		assert.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *e2eHarness) get(path, token string, out any) int {
	h.t.Helper()

	req, err := http.NewRequest(http.MethodGet, h.ts.URL+path, nil)
	assert.NoError(h.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.client.Do(req)
	assert.NoError(h.t, err)
	defer resp.Body.Close()

	if out != nil {
		assert.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *e2eHarness) dial(token string) *websocket.Conn {
	h.t.Helper()

	wsURL := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{
		"Authorization": []string{"Bearer " + token},
	})
	assert.NoError(h.t, err, "expected websocket upgrade to succeed")
	if resp != nil {
		resp.Body.Close()
	}
	h.t.Cleanup(func() { conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func readFrame(t *testing.T, conn *websocket.Conn) server.ServerMessage {
	t.Helper()

	assert.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg server.ServerMessage
	assert.NoError(t, conn.ReadJSON(&msg), "expected a frame before the read deadline")
	return msg
}

func TestChatEndToEnd(t *testing.T) {
	h := newE2EHarness(t)

	var patientResp RegisterPatientResponse
	code := h.post("/api/auth/register", "", RegisterPatientRequest{
		Name:        "Asha",
		PhoneNumber: "1234567890",
		Password:    "password",
	}, &patientResp)
	assert.Equal(t, http.StatusCreated, code)

	var doctorResp DoctorAuthResponse
	code = h.post("/api/doctor/register", "", RegisterDoctorRequest{
		Name:     "Dr. Rao",
		Email:    "rao@example.com",
		Password: "password",
	}, &doctorResp)
	assert.Equal(t, http.StatusCreated, code)

	patientId, patientToken := patientResp.User.Id, patientResp.Token
	doctorId, doctorToken := doctorResp.Doctor.Id, doctorResp.Token

	var room types.ChatRoom
	code = h.post("/api/chat/room", patientToken, CreateChatRoomRequest{
		UserId:   patientId,
		DoctorId: doctorId,
	}, &room)
	assert.Equal(t, http.StatusCreated, code)

	code = h.get("/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code, "expected upgrade without a token to be rejected")

	patientConn := h.dial(patientToken)
	doctorConn := h.dial(doctorToken)

	t.Run("both participants join the room", func(t *testing.T) {
		sendFrame(t, patientConn, fmt.Sprintf(`{"id":1,"join-room":{"roomId":%q}}`, room.Id))
		msg := readFrame(t, patientConn)
		assert.NotNil(t, msg.Response)
		assert.Equal(t, http.StatusOK, msg.Response.ResponseCode)
		assert.Equal(t, room.Id, msg.Response.Data["roomId"])

		sendFrame(t, doctorConn, fmt.Sprintf(`{"id":1,"join-room":{"roomId":%q}}`, room.Id))
		msg = readFrame(t, doctorConn)
		assert.NotNil(t, msg.Response)
		assert.Equal(t, http.StatusOK, msg.Response.ResponseCode)
	})

	t.Run("a stranger cannot join", func(t *testing.T) {
		var otherResp RegisterPatientResponse
		code := h.post("/api/auth/register", "", RegisterPatientRequest{
			Name:        "Mallory",
			PhoneNumber: "0000000001",
			Password:    "password",
		}, &otherResp)
		assert.Equal(t, http.StatusCreated, code)

		conn := h.dial(otherResp.Token)
		sendFrame(t, conn, fmt.Sprintf(`{"id":1,"join-room":{"roomId":%q}}`, room.Id))
		msg := readFrame(t, conn)
		assert.NotNil(t, msg.Response)
		assert.Equal(t, http.StatusForbidden, msg.Response.ResponseCode)
		conn.Close()
	})

	t.Run("messages reach every room member including the sender", func(t *testing.T) {
		sendFrame(t, patientConn, fmt.Sprintf(
			`{"id":2,"send-message":{"chatRoomId":%q,"senderId":%q,"senderType":"user","message":"hello doctor"}}`,
			room.Id, patientId))

		for _, conn := range []*websocket.Conn{patientConn, doctorConn} {
			msg := readFrame(t, conn)
			assert.NotNil(t, msg.ReceiveMessage, "expected a receive-message frame")
			assert.Equal(t, "hello doctor", msg.ReceiveMessage.Message)
			assert.Equal(t, patientId, msg.ReceiveMessage.SenderId)
			assert.NotEmpty(t, msg.ReceiveMessage.Id, "expected a server-assigned message id")
			assert.False(t, msg.ReceiveMessage.Timestamp.IsZero(), "expected a server-assigned timestamp")
		}
	})

	t.Run("message history is served over REST", func(t *testing.T) {
		var messages []types.ChatMessage
		code := h.get("/api/chat/messages/"+room.Id, patientToken, &messages)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, messages, 1)
		assert.Equal(t, "hello doctor", messages[0].Message)
	})

	t.Run("presence changes broadcast and update the directory", func(t *testing.T) {
		sendFrame(t, doctorConn, fmt.Sprintf(`{"id":3,"doctor-online":{"doctorId":%q}}`, doctorId))

		for _, conn := range []*websocket.Conn{patientConn, doctorConn} {
			msg := readFrame(t, conn)
			assert.NotNil(t, msg.DoctorStatusChange, "expected a doctor-status-change frame")
			assert.Equal(t, doctorId, msg.DoctorStatusChange.DoctorId)
			assert.True(t, msg.DoctorStatusChange.IsOnline)
		}

		var doctors []types.Doctor
		code := h.get("/api/doctors/online", "", &doctors)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, doctors, 1)
		assert.Equal(t, doctorId, doctors[0].Id)

		sendFrame(t, doctorConn, fmt.Sprintf(`{"id":4,"doctor-offline":{"doctorId":%q}}`, doctorId))

		for _, conn := range []*websocket.Conn{patientConn, doctorConn} {
			msg := readFrame(t, conn)
			assert.NotNil(t, msg.DoctorStatusChange)
			assert.False(t, msg.DoctorStatusChange.IsOnline)
		}

		doctors = nil
		code = h.get("/api/doctors/online", "", &doctors)
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, doctors, "expected the doctor to be delisted")
	})

	t.Run("rooms are isolated", func(t *testing.T) {
		var otherPatient RegisterPatientResponse
		code := h.post("/api/auth/register", "", RegisterPatientRequest{
			Name:        "Binod",
			PhoneNumber: "0000000002",
			Password:    "password",
		}, &otherPatient)
		assert.Equal(t, http.StatusCreated, code)

		var otherRoom types.ChatRoom
		code = h.post("/api/chat/room", otherPatient.Token, CreateChatRoomRequest{
			UserId:   otherPatient.User.Id,
			DoctorId: doctorId,
		}, &otherRoom)
		assert.Equal(t, http.StatusCreated, code)

		bystander := h.dial(otherPatient.Token)
		sendFrame(t, bystander, fmt.Sprintf(`{"id":1,"join-room":{"roomId":%q}}`, otherRoom.Id))
		msg := readFrame(t, bystander)
		assert.NotNil(t, msg.Response)
		assert.Equal(t, http.StatusOK, msg.Response.ResponseCode)

		sendFrame(t, patientConn, fmt.Sprintf(
			`{"id":5,"send-message":{"chatRoomId":%q,"senderId":%q,"senderType":"user","message":"private"}}`,
			room.Id, patientId))

		msg = readFrame(t, patientConn)
		assert.NotNil(t, msg.ReceiveMessage)
		msg = readFrame(t, doctorConn)
		assert.NotNil(t, msg.ReceiveMessage)

		assert.NoError(t, bystander.SetReadDeadline(time.Now().Add(500*time.Millisecond)))
		var stray server.ServerMessage
		err := bystander.ReadJSON(&stray)
		assert.Error(t, err, "expected no frames for members of other rooms")
		bystander.Close()
	})
}
