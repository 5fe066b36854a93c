package database

import (
	"errors"
	"time"
)

// ErrDuplicate is returned when an insert violates a unique constraint
// (phone number, email, QR code id). Handlers surface it as a 400.
var ErrDuplicate = errors.New("duplicate value for unique field")

// SaathiRepository is the persistence boundary for the whole application.
// PgSaathiRepository backs it with Postgres; MemSaathiRepository is the
// in-memory substitute used when no database is reachable and in tests.
type SaathiRepository interface {
	Ping() error
	Close() error

	CreatePatient(params CreatePatientParams) (Patient, error)
	GetPatientById(id string) (Patient, error)
	GetPatientByPhone(phoneNumber string) (Patient, error)
	GetPatientByQrCode(qrCodeId string) (Patient, error)
	UpdatePatientProfile(params UpdatePatientProfileParams) (Patient, error)
	AddMedicalReport(patientId string, report MedicalReport) (Patient, error)

	CreateDoctor(params CreateDoctorParams) (Doctor, error)
	GetDoctorById(id string) (Doctor, error)
	GetDoctorByEmail(email string) (Doctor, error)
	GetDoctorsByHospital(hospitalId string) ([]Doctor, error)
	GetDoctorsByIds(ids []string) ([]Doctor, error)
	UpdateDoctorProfile(params UpdateDoctorProfileParams) (Doctor, error)

	CreateHospital(params CreateHospitalParams) (Hospital, error)
	GetHospitalById(id string) (Hospital, error)
	GetHospitalByEmail(email string) (Hospital, error)

	// CreateRoom creates a new active room unconditionally: no dedup check
	// against existing rooms for the same (patient, doctor) pair.
	CreateRoom(params CreateRoomParams) (ChatRoom, error)
	GetRoomById(id string) (ChatRoom, error)
	GetRoomsForPatient(patientId string) ([]ChatRoom, error)
	GetRoomsForDoctor(doctorId string) ([]ChatRoom, error)
	TouchRoom(id string, lastMessageAt time.Time) error

	CreateMessage(params CreateMessageParams) (ChatMessage, error)
	GetMessagesByRoom(chatRoomId string) ([]ChatMessage, error)

	CreatePost(params CreatePostParams) (Post, error)
	ListPosts() ([]Post, error)
}
