package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockSaathiRepository struct {
	mock.Mock
}

func (m *MockSaathiRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockSaathiRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockSaathiRepository) CreatePatient(params CreatePatientParams) (Patient, error) {
	args := m.Called(params)
	return args.Get(0).(Patient), args.Error(1)
}
func (m *MockSaathiRepository) GetPatientById(id string) (Patient, error) {
	args := m.Called(id)
	return args.Get(0).(Patient), args.Error(1)
}
func (m *MockSaathiRepository) GetPatientByPhone(phoneNumber string) (Patient, error) {
	args := m.Called(phoneNumber)
	return args.Get(0).(Patient), args.Error(1)
}
func (m *MockSaathiRepository) GetPatientByQrCode(qrCodeId string) (Patient, error) {
	args := m.Called(qrCodeId)
	return args.Get(0).(Patient), args.Error(1)
}
func (m *MockSaathiRepository) UpdatePatientProfile(params UpdatePatientProfileParams) (Patient, error) {
	args := m.Called(params)
	return args.Get(0).(Patient), args.Error(1)
}
func (m *MockSaathiRepository) AddMedicalReport(patientId string, report MedicalReport) (Patient, error) {
	args := m.Called(patientId, report)
	return args.Get(0).(Patient), args.Error(1)
}
func (m *MockSaathiRepository) CreateDoctor(params CreateDoctorParams) (Doctor, error) {
	args := m.Called(params)
	return args.Get(0).(Doctor), args.Error(1)
}
func (m *MockSaathiRepository) GetDoctorById(id string) (Doctor, error) {
	args := m.Called(id)
	return args.Get(0).(Doctor), args.Error(1)
}
func (m *MockSaathiRepository) GetDoctorByEmail(email string) (Doctor, error) {
	args := m.Called(email)
	return args.Get(0).(Doctor), args.Error(1)
}
func (m *MockSaathiRepository) GetDoctorsByHospital(hospitalId string) ([]Doctor, error) {
	args := m.Called(hospitalId)
	return args.Get(0).([]Doctor), args.Error(1)
}
func (m *MockSaathiRepository) GetDoctorsByIds(ids []string) ([]Doctor, error) {
	args := m.Called(ids)
	return args.Get(0).([]Doctor), args.Error(1)
}
func (m *MockSaathiRepository) UpdateDoctorProfile(params UpdateDoctorProfileParams) (Doctor, error) {
	args := m.Called(params)
	return args.Get(0).(Doctor), args.Error(1)
}
func (m *MockSaathiRepository) CreateHospital(params CreateHospitalParams) (Hospital, error) {
	args := m.Called(params)
	return args.Get(0).(Hospital), args.Error(1)
}
func (m *MockSaathiRepository) GetHospitalById(id string) (Hospital, error) {
	args := m.Called(id)
	return args.Get(0).(Hospital), args.Error(1)
}
func (m *MockSaathiRepository) GetHospitalByEmail(email string) (Hospital, error) {
	args := m.Called(email)
	return args.Get(0).(Hospital), args.Error(1)
}
func (m *MockSaathiRepository) CreateRoom(params CreateRoomParams) (ChatRoom, error) {
	args := m.Called(params)
	return args.Get(0).(ChatRoom), args.Error(1)
}
func (m *MockSaathiRepository) GetRoomById(id string) (ChatRoom, error) {
	args := m.Called(id)
	return args.Get(0).(ChatRoom), args.Error(1)
}
func (m *MockSaathiRepository) GetRoomsForPatient(patientId string) ([]ChatRoom, error) {
	args := m.Called(patientId)
	return args.Get(0).([]ChatRoom), args.Error(1)
}
func (m *MockSaathiRepository) GetRoomsForDoctor(doctorId string) ([]ChatRoom, error) {
	args := m.Called(doctorId)
	return args.Get(0).([]ChatRoom), args.Error(1)
}
func (m *MockSaathiRepository) TouchRoom(id string, lastMessageAt time.Time) error {
	args := m.Called(id, lastMessageAt)
	return args.Error(0)
}
func (m *MockSaathiRepository) CreateMessage(params CreateMessageParams) (ChatMessage, error) {
	args := m.Called(params)
	return args.Get(0).(ChatMessage), args.Error(1)
}
func (m *MockSaathiRepository) GetMessagesByRoom(chatRoomId string) ([]ChatMessage, error) {
	args := m.Called(chatRoomId)
	return args.Get(0).([]ChatMessage), args.Error(1)
}
func (m *MockSaathiRepository) CreatePost(params CreatePostParams) (Post, error) {
	args := m.Called(params)
	return args.Get(0).(Post), args.Error(1)
}
func (m *MockSaathiRepository) ListPosts() ([]Post, error) {
	args := m.Called()
	return args.Get(0).([]Post), args.Error(1)
}
