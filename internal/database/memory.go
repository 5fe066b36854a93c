package database

import (
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemSaathiRepository is a map-backed SaathiRepository used when no Postgres
// instance is reachable, and as a lightweight store in tests. Lookups that
// find nothing return sql.ErrNoRows so callers handle both backends the same
// way. Ordered listings preserve insertion order.
type MemSaathiRepository struct {
	mu sync.Mutex

	patients  map[string]Patient
	doctors   map[string]Doctor
	hospitals map[string]Hospital
	rooms     map[string]ChatRoom

	patientOrder []string
	doctorOrder  []string
	roomOrder    []string
	messages     []ChatMessage
	posts        []Post
}

func NewMemSaathiRepository() *MemSaathiRepository {
	return &MemSaathiRepository{
		patients:  make(map[string]Patient),
		doctors:   make(map[string]Doctor),
		hospitals: make(map[string]Hospital),
		rooms:     make(map[string]ChatRoom),
	}
}

func (db *MemSaathiRepository) Ping() error { return nil }

func (db *MemSaathiRepository) Close() error { return nil }

func (db *MemSaathiRepository) CreatePatient(params CreatePatientParams) (Patient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, p := range db.patients {
		if p.PhoneNumber == params.PhoneNumber || p.QrCodeId == params.QrCodeId {
			return Patient{}, ErrDuplicate
		}
	}

	reports := params.MedicalReports
	if reports == nil {
		reports = []MedicalReport{}
	}

	p := Patient{
		Id:                    uuid.NewString(),
		Name:                  params.Name,
		PhoneNumber:           params.PhoneNumber,
		PasswordHash:          params.PasswordHash,
		EmergencyContactName:  params.EmergencyContactName,
		EmergencyContactPhone: params.EmergencyContactPhone,
		QrCodeId:              params.QrCodeId,
		Height:                params.Height,
		Weight:                params.Weight,
		Bmi:                   params.Bmi,
		BloodGroup:            params.BloodGroup,
		PhotoUrl:              params.PhotoUrl,
		Allergies:             []string{},
		ChronicConditions:     []string{},
		CurrentMedications:    []string{},
		MedicalReports:        reports,
		CreatedAt:             time.Now().UTC(),
	}
	db.patients[p.Id] = p
	db.patientOrder = append(db.patientOrder, p.Id)

	return p, nil
}

func (db *MemSaathiRepository) GetPatientById(id string) (Patient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.patients[id]
	if !ok {
		return Patient{}, sql.ErrNoRows
	}
	return p, nil
}

func (db *MemSaathiRepository) GetPatientByPhone(phoneNumber string) (Patient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, id := range db.patientOrder {
		if db.patients[id].PhoneNumber == phoneNumber {
			return db.patients[id], nil
		}
	}
	return Patient{}, sql.ErrNoRows
}

func (db *MemSaathiRepository) GetPatientByQrCode(qrCodeId string) (Patient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, id := range db.patientOrder {
		if db.patients[id].QrCodeId == qrCodeId {
			return db.patients[id], nil
		}
	}
	return Patient{}, sql.ErrNoRows
}

func (db *MemSaathiRepository) UpdatePatientProfile(params UpdatePatientProfileParams) (Patient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.patients[params.PatientId]
	if !ok {
		return Patient{}, sql.ErrNoRows
	}

	applyPatientUpdate(&p, params)
	db.patients[p.Id] = p

	return p, nil
}

func (db *MemSaathiRepository) AddMedicalReport(patientId string, report MedicalReport) (Patient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.patients[patientId]
	if !ok {
		return Patient{}, sql.ErrNoRows
	}

	p.MedicalReports = append(p.MedicalReports, report)
	db.patients[p.Id] = p

	return p, nil
}

func (db *MemSaathiRepository) CreateDoctor(params CreateDoctorParams) (Doctor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, d := range db.doctors {
		if d.Email == params.Email {
			return Doctor{}, ErrDuplicate
		}
	}

	d := Doctor{
		Id:             uuid.NewString(),
		Name:           params.Name,
		Email:          params.Email,
		PasswordHash:   params.PasswordHash,
		Specialization: params.Specialization,
		HospitalId:     params.HospitalId,
		PhoneNumber:    params.PhoneNumber,
		CreatedAt:      time.Now().UTC(),
	}
	db.doctors[d.Id] = d
	db.doctorOrder = append(db.doctorOrder, d.Id)

	return d, nil
}

func (db *MemSaathiRepository) GetDoctorById(id string) (Doctor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	d, ok := db.doctors[id]
	if !ok {
		return Doctor{}, sql.ErrNoRows
	}
	return d, nil
}

func (db *MemSaathiRepository) GetDoctorByEmail(email string) (Doctor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, id := range db.doctorOrder {
		if db.doctors[id].Email == email {
			return db.doctors[id], nil
		}
	}
	return Doctor{}, sql.ErrNoRows
}

func (db *MemSaathiRepository) GetDoctorsByHospital(hospitalId string) ([]Doctor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	doctors := []Doctor{}
	for _, id := range db.doctorOrder {
		if db.doctors[id].HospitalId == hospitalId {
			doctors = append(doctors, db.doctors[id])
		}
	}
	return doctors, nil
}

func (db *MemSaathiRepository) GetDoctorsByIds(ids []string) ([]Doctor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	doctors := []Doctor{}
	for _, id := range db.doctorOrder {
		if _, ok := wanted[id]; ok {
			doctors = append(doctors, db.doctors[id])
		}
	}
	return doctors, nil
}

func (db *MemSaathiRepository) UpdateDoctorProfile(params UpdateDoctorProfileParams) (Doctor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	d, ok := db.doctors[params.DoctorId]
	if !ok {
		return Doctor{}, sql.ErrNoRows
	}

	if params.Name != nil {
		d.Name = *params.Name
	}
	if params.PhotoUrl != nil {
		d.PhotoUrl = *params.PhotoUrl
	}
	if params.BloodGroup != nil {
		d.BloodGroup = *params.BloodGroup
	}
	db.doctors[d.Id] = d

	return d, nil
}

func (db *MemSaathiRepository) CreateHospital(params CreateHospitalParams) (Hospital, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, h := range db.hospitals {
		if h.Email == params.Email {
			return Hospital{}, ErrDuplicate
		}
	}

	h := Hospital{
		Id:           uuid.NewString(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Address:      params.Address,
		PhoneNumber:  params.PhoneNumber,
		CreatedAt:    time.Now().UTC(),
	}
	db.hospitals[h.Id] = h

	return h, nil
}

func (db *MemSaathiRepository) GetHospitalById(id string) (Hospital, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, ok := db.hospitals[id]
	if !ok {
		return Hospital{}, sql.ErrNoRows
	}
	return h, nil
}

func (db *MemSaathiRepository) GetHospitalByEmail(email string) (Hospital, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, h := range db.hospitals {
		if h.Email == email {
			return h, nil
		}
	}
	return Hospital{}, sql.ErrNoRows
}

func (db *MemSaathiRepository) CreateRoom(params CreateRoomParams) (ChatRoom, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := time.Now().UTC()
	r := ChatRoom{
		Id:            uuid.NewString(),
		PatientId:     params.PatientId,
		DoctorId:      params.DoctorId,
		Status:        "active",
		CreatedAt:     now,
		LastMessageAt: now,
	}
	db.rooms[r.Id] = r
	db.roomOrder = append(db.roomOrder, r.Id)

	return r, nil
}

func (db *MemSaathiRepository) GetRoomById(id string) (ChatRoom, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.rooms[id]
	if !ok {
		return ChatRoom{}, sql.ErrNoRows
	}
	return r, nil
}

func (db *MemSaathiRepository) GetRoomsForPatient(patientId string) ([]ChatRoom, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rooms := []ChatRoom{}
	for _, id := range db.roomOrder {
		if db.rooms[id].PatientId == patientId {
			rooms = append(rooms, db.rooms[id])
		}
	}
	return rooms, nil
}

func (db *MemSaathiRepository) GetRoomsForDoctor(doctorId string) ([]ChatRoom, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rooms := []ChatRoom{}
	for _, id := range db.roomOrder {
		if db.rooms[id].DoctorId == doctorId {
			rooms = append(rooms, db.rooms[id])
		}
	}
	return rooms, nil
}

func (db *MemSaathiRepository) TouchRoom(id string, lastMessageAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.rooms[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.LastMessageAt = lastMessageAt
	db.rooms[id] = r

	return nil
}

func (db *MemSaathiRepository) CreateMessage(params CreateMessageParams) (ChatMessage, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	m := ChatMessage{
		Id:         uuid.NewString(),
		ChatRoomId: params.ChatRoomId,
		SenderId:   params.SenderId,
		SenderType: params.SenderType,
		Message:    params.Message,
		Timestamp:  params.Timestamp,
	}
	db.messages = append(db.messages, m)

	return m, nil
}

func (db *MemSaathiRepository) GetMessagesByRoom(chatRoomId string) ([]ChatMessage, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	messages := []ChatMessage{}
	for _, m := range db.messages {
		if m.ChatRoomId == chatRoomId {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

func (db *MemSaathiRepository) CreatePost(params CreatePostParams) (Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p := Post{
		Id:         uuid.NewString(),
		AuthorId:   params.AuthorId,
		AuthorName: params.AuthorName,
		Content:    params.Content,
		CreatedAt:  time.Now().UTC(),
	}
	db.posts = append(db.posts, p)

	return p, nil
}

// ListPosts returns posts newest first.
func (db *MemSaathiRepository) ListPosts() ([]Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	posts := make([]Post, 0, len(db.posts))
	for i := len(db.posts) - 1; i >= 0; i-- {
		posts = append(posts, db.posts[i])
	}
	return posts, nil
}
