package types

import (
	"time"
)

// IdentityType distinguishes the three principals issued tokens by the API.
type IdentityType string

const (
	IdentityUser     IdentityType = "user"
	IdentityDoctor   IdentityType = "doctor"
	IdentityHospital IdentityType = "hospital"
)

// Identity is the authenticated principal carried in a session token and
// attached to a websocket connection.
type Identity struct {
	Id   string       `json:"id"`
	Type IdentityType `json:"type"`
	Name string       `json:"name"`
}

type EmergencyContact struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

type MedicalReport struct {
	Title      string    `json:"title"`
	Url        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
	UploadedBy string    `json:"uploadedBy,omitempty"`
	Type       string    `json:"type,omitempty"`
}

type Patient struct {
	Id                 string           `json:"id"`
	Name               string           `json:"name"`
	PhoneNumber        string           `json:"phoneNumber"`
	Password           string           `json:"-"`
	EmergencyContact   EmergencyContact `json:"emergencyContact"`
	QrCodeId           string           `json:"qrCodeId"`
	Height             float64          `json:"height,omitempty"`
	Weight             float64          `json:"weight,omitempty"`
	Bmi                float64          `json:"bmi,omitempty"`
	BloodGroup         string           `json:"bloodGroup,omitempty"`
	PhotoUrl           string           `json:"photoUrl,omitempty"`
	MajorProblem       string           `json:"majorProblem,omitempty"`
	Allergies          []string         `json:"allergies"`
	ChronicConditions  []string         `json:"chronicConditions"`
	CurrentMedications []string         `json:"currentMedications"`
	MedicalReports     []MedicalReport  `json:"medicalReports"`
	CreatedAt          time.Time        `json:"createdAt,omitempty"`
}

type Doctor struct {
	Id             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	Specialization string    `json:"specialization"`
	HospitalId     string    `json:"hospitalId"`
	PhoneNumber    string    `json:"phoneNumber"`
	PhotoUrl       string    `json:"photoUrl,omitempty"`
	BloodGroup     string    `json:"bloodGroup,omitempty"`
	IsOnline       bool      `json:"isOnline"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

type Hospital struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	Address     string    `json:"address"`
	PhoneNumber string    `json:"phoneNumber"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// RoomStatus is the lifecycle state of a chat room. Rooms are never deleted;
// no client-facing operation currently moves a room to RoomClosed.
type RoomStatus string

const (
	RoomActive RoomStatus = "active"
	RoomClosed RoomStatus = "closed"
)

type ChatRoom struct {
	Id            string     `json:"id"`
	PatientId     string     `json:"userId"`
	DoctorId      string     `json:"doctorId"`
	Status        RoomStatus `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastMessageAt time.Time  `json:"lastMessageAt"`
}

// SenderType marks which side of a room authored a message. The wire value
// "user" denotes the patient.
type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderDoctor SenderType = "doctor"
)

type ChatMessage struct {
	Id         string     `json:"id"`
	ChatRoomId string     `json:"chatRoomId"`
	SenderId   string     `json:"senderId"`
	SenderType SenderType `json:"senderType"`
	Message    string     `json:"message"`
	Timestamp  time.Time  `json:"timestamp"`
	IsRead     bool       `json:"isRead"`
}

type Post struct {
	Id         string    `json:"id"`
	AuthorId   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
