package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/saathi-app/saathi-server/internal/config"
	"github.com/saathi-app/saathi-server/internal/database"
	"github.com/saathi-app/saathi-server/internal/presence"
	"github.com/saathi-app/saathi-server/internal/server"
	"github.com/saathi-app/saathi-server/internal/stats"
)

type SaathiApp struct {
	log            *log.Logger
	db             database.SaathiRepository
	tracker        presence.Tracker
	mux            *http.Server
	cs             *server.ChatServer
	stats          stats.StatsProvider
	signingKey     []byte
	frontendURL    string
	allowedOrigins []string
}

func NewSaathiApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer,
	db database.SaathiRepository, tracker presence.Tracker, sp stats.StatsProvider,
	cfg *config.Config) *SaathiApp {

	s := &SaathiApp{
		log:            logger,
		db:             db,
		tracker:        tracker,
		cs:             cs,
		stats:          sp,
		signingKey:     cfg.SigningKey,
		frontendURL:    cfg.FrontendURL,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /api/auth/register", s.rateLimit(s.registerPatient))
	mux.HandleFunc("POST /api/auth/login", s.rateLimit(s.loginPatient))
	mux.HandleFunc("POST /api/doctor/register", s.rateLimit(s.registerDoctor))
	mux.HandleFunc("POST /api/doctor/login", s.rateLimit(s.loginDoctor))
	mux.HandleFunc("POST /api/hospital/register", s.rateLimit(s.registerHospital))
	mux.HandleFunc("POST /api/hospital/login", s.rateLimit(s.loginHospital))

	mux.HandleFunc("GET /api/doctors/online", s.onlineDoctors)
	mux.HandleFunc("GET /api/hospital/{id}/doctors", s.hospitalDoctors)
	mux.HandleFunc("GET /api/user/{id}", s.getPatient)
	mux.HandleFunc("GET /api/doctor/{id}", s.getDoctor)
	mux.HandleFunc("GET /api/qr/{qrCodeId}", s.qrSummary)
	mux.HandleFunc("GET /api/user/{id}/qrcode", s.patientQrCode)
	mux.HandleFunc("GET /healthz", s.healthz)

	mux.HandleFunc("PUT /api/user/{id}/profile", s.authMiddleware(s.updatePatientProfile))
	mux.HandleFunc("PUT /api/doctor/{id}/profile", s.authMiddleware(s.updateDoctorProfile))
	mux.HandleFunc("POST /api/user/{id}/report", s.authMiddleware(s.addReport))
	mux.HandleFunc("POST /api/posts", s.authMiddleware(s.createPost))
	mux.HandleFunc("GET /api/posts", s.listPosts)
	mux.HandleFunc("POST /api/chat/room", s.authMiddleware(s.createChatRoom))
	mux.HandleFunc("GET /api/chat/rooms/user/{userId}", s.authMiddleware(s.patientRooms))
	mux.HandleFunc("GET /api/chat/rooms/doctor/{doctorId}", s.authMiddleware(s.doctorRooms))
	mux.HandleFunc("GET /api/chat/messages/{chatRoomId}", s.authMiddleware(s.roomMessages))
	mux.HandleFunc("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *SaathiApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *SaathiApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
