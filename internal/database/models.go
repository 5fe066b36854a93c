package database

import "time"

type MedicalReport struct {
	Title      string    `json:"title"`
	Url        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
	UploadedBy string    `json:"uploadedBy,omitempty"`
	Type       string    `json:"type,omitempty"`
}

type Patient struct {
	Id                    string
	Name                  string
	PhoneNumber           string
	PasswordHash          string
	EmergencyContactName  string
	EmergencyContactPhone string
	QrCodeId              string
	Height                float64
	Weight                float64
	Bmi                   float64
	BloodGroup            string
	PhotoUrl              string
	MajorProblem          string
	Allergies             []string
	ChronicConditions     []string
	CurrentMedications    []string
	MedicalReports        []MedicalReport
	CreatedAt             time.Time
}

type Doctor struct {
	Id             string
	Name           string
	Email          string
	PasswordHash   string
	Specialization string
	HospitalId     string
	PhoneNumber    string
	PhotoUrl       string
	BloodGroup     string
	CreatedAt      time.Time
}

type Hospital struct {
	Id           string
	Name         string
	Email        string
	PasswordHash string
	Address      string
	PhoneNumber  string
	CreatedAt    time.Time
}

type ChatRoom struct {
	Id            string
	PatientId     string
	DoctorId      string
	Status        string
	CreatedAt     time.Time
	LastMessageAt time.Time
}

type ChatMessage struct {
	Id         string
	ChatRoomId string
	SenderId   string
	SenderType string
	Message    string
	Timestamp  time.Time
	IsRead     bool
}

type Post struct {
	Id         string
	AuthorId   string
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

type CreatePatientParams struct {
	Name                  string
	PhoneNumber           string
	PasswordHash          string
	EmergencyContactName  string
	EmergencyContactPhone string
	QrCodeId              string
	Height                float64
	Weight                float64
	Bmi                   float64
	BloodGroup            string
	PhotoUrl              string
	MedicalReports        []MedicalReport
}

// UpdatePatientProfileParams carries the mutable profile fields. Nil pointers
// leave the stored value untouched.
type UpdatePatientProfileParams struct {
	PatientId             string
	Name                  *string
	PhotoUrl              *string
	BloodGroup            *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
	Height                *float64
	Weight                *float64
	Bmi                   *float64
	MajorProblem          *string
	Allergies             []string
	ChronicConditions     []string
	CurrentMedications    []string
}

type CreateDoctorParams struct {
	Name           string
	Email          string
	PasswordHash   string
	Specialization string
	HospitalId     string
	PhoneNumber    string
}

type UpdateDoctorProfileParams struct {
	DoctorId   string
	Name       *string
	PhotoUrl   *string
	BloodGroup *string
}

type CreateHospitalParams struct {
	Name         string
	Email        string
	PasswordHash string
	Address      string
	PhoneNumber  string
}

type CreateRoomParams struct {
	PatientId string
	DoctorId  string
}

type CreateMessageParams struct {
	ChatRoomId string
	SenderId   string
	SenderType string
	Message    string
	Timestamp  time.Time
}

type CreatePostParams struct {
	AuthorId   string
	AuthorName string
	Content    string
}
