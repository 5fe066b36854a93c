package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/saathi-app/saathi-server/internal/database"
	"github.com/saathi-app/saathi-server/internal/server"
	"github.com/saathi-app/saathi-server/internal/types"
	"github.com/teris-io/shortid"
)

type RegisterPatientRequest struct {
	Name             string                 `json:"name"`
	PhoneNumber      string                 `json:"phoneNumber"`
	Password         string                 `json:"password"`
	EmergencyContact types.EmergencyContact `json:"emergencyContact"`
	Height           float64                `json:"height"`
	Weight           float64                `json:"weight"`
	BloodGroup       string                 `json:"bloodGroup"`
	PhotoUrl         string                 `json:"photoUrl"`
}

type PatientLoginRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type RegisterDoctorRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Specialization string `json:"specialization"`
	HospitalId     string `json:"hospitalId"`
	PhoneNumber    string `json:"phoneNumber"`
}

type RegisterHospitalRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
}

type EmailLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdatePatientProfileRequest struct {
	Name               *string                 `json:"name"`
	PhotoUrl           *string                 `json:"photoUrl"`
	BloodGroup         *string                 `json:"bloodGroup"`
	EmergencyContact   *types.EmergencyContact `json:"emergencyContact"`
	Height             *float64                `json:"height"`
	Weight             *float64                `json:"weight"`
	MajorProblem       *string                 `json:"majorProblem"`
	Allergies          []string                `json:"allergies"`
	ChronicConditions  []string                `json:"chronicConditions"`
	CurrentMedications []string                `json:"currentMedications"`
}

type UpdateDoctorProfileRequest struct {
	Name       *string `json:"name"`
	PhotoUrl   *string `json:"photoUrl"`
	BloodGroup *string `json:"bloodGroup"`
}

type AddReportRequest struct {
	Title string `json:"title"`
	Url   string `json:"url"`
	Type  string `json:"type"`
}

type CreatePostRequest struct {
	Content string `json:"content"`
}

type CreateChatRoomRequest struct {
	UserId   string `json:"userId"`
	DoctorId string `json:"doctorId"`
}

type RegisterPatientResponse struct {
	User   types.Patient `json:"user"`
	Token  string        `json:"token"`
	QrCode string        `json:"qrCode"`
}

type PatientLoginResponse struct {
	User  types.Patient `json:"user"`
	Token string        `json:"token"`
}

type DoctorAuthResponse struct {
	Doctor types.Doctor `json:"doctor"`
	Token  string       `json:"token"`
}

type HospitalAuthResponse struct {
	Hospital types.Hospital `json:"hospital"`
	Token    string         `json:"token"`
}

// QrSummary is the read-only record returned to whoever scans a patient's
// QR code. No credentials or contact history, just what an emergency
// responder needs.
type QrSummary struct {
	Name             string                 `json:"name"`
	BloodGroup       string                 `json:"bloodGroup,omitempty"`
	Height           float64                `json:"height,omitempty"`
	Weight           float64                `json:"weight,omitempty"`
	Bmi              float64                `json:"bmi,omitempty"`
	MajorProblem     string                 `json:"majorProblem,omitempty"`
	Allergies        []string               `json:"allergies"`
	EmergencyContact types.EmergencyContact `json:"emergencyContact"`
	MedicalReports   []types.MedicalReport  `json:"medicalReports"`
}

func (s *SaathiApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *SaathiApp) generateShortId() (string, error) {
	return shortid.Generate()
}

func patientResponse(p database.Patient) types.Patient {
	reports := make([]types.MedicalReport, 0, len(p.MedicalReports))
	for _, r := range p.MedicalReports {
		reports = append(reports, types.MedicalReport(r))
	}

	return types.Patient{
		Id:          p.Id,
		Name:        p.Name,
		PhoneNumber: p.PhoneNumber,
		EmergencyContact: types.EmergencyContact{
			Name:        p.EmergencyContactName,
			PhoneNumber: p.EmergencyContactPhone,
		},
		QrCodeId:           p.QrCodeId,
		Height:             p.Height,
		Weight:             p.Weight,
		Bmi:                p.Bmi,
		BloodGroup:         p.BloodGroup,
		PhotoUrl:           p.PhotoUrl,
		MajorProblem:       p.MajorProblem,
		Allergies:          p.Allergies,
		ChronicConditions:  p.ChronicConditions,
		CurrentMedications: p.CurrentMedications,
		MedicalReports:     reports,
		CreatedAt:          p.CreatedAt,
	}
}

// doctorResponse builds the API doctor payload. isOnline comes from the
// presence tracker, never from the database.
func doctorResponse(d database.Doctor, isOnline bool) types.Doctor {
	return types.Doctor{
		Id:             d.Id,
		Name:           d.Name,
		Email:          d.Email,
		Specialization: d.Specialization,
		HospitalId:     d.HospitalId,
		PhoneNumber:    d.PhoneNumber,
		PhotoUrl:       d.PhotoUrl,
		BloodGroup:     d.BloodGroup,
		IsOnline:       isOnline,
		CreatedAt:      d.CreatedAt,
	}
}

func hospitalResponse(h database.Hospital) types.Hospital {
	return types.Hospital{
		Id:          h.Id,
		Name:        h.Name,
		Email:       h.Email,
		Address:     h.Address,
		PhoneNumber: h.PhoneNumber,
		CreatedAt:   h.CreatedAt,
	}
}

func roomResponse(r database.ChatRoom) types.ChatRoom {
	return types.ChatRoom{
		Id:            r.Id,
		PatientId:     r.PatientId,
		DoctorId:      r.DoctorId,
		Status:        types.RoomStatus(r.Status),
		CreatedAt:     r.CreatedAt,
		LastMessageAt: r.LastMessageAt,
	}
}

func messageResponse(m database.ChatMessage) types.ChatMessage {
	return types.ChatMessage{
		Id:         m.Id,
		ChatRoomId: m.ChatRoomId,
		SenderId:   m.SenderId,
		SenderType: types.SenderType(m.SenderType),
		Message:    m.Message,
		Timestamp:  m.Timestamp,
		IsRead:     m.IsRead,
	}
}

func postResponse(p database.Post) types.Post {
	return types.Post{
		Id:         p.Id,
		AuthorId:   p.AuthorId,
		AuthorName: p.AuthorName,
		Content:    p.Content,
		CreatedAt:  p.CreatedAt,
	}
}

func computeBmi(height, weight float64) float64 {
	if height <= 0 || weight <= 0 {
		return 0
	}
	m := height / 100
	return weight / (m * m)
}

func (s *SaathiApp) registerPatient(w http.ResponseWriter, r *http.Request) {
	var req RegisterPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" || req.PhoneNumber == "" || req.Password == "" {
		errResp := NewValidationError("name, phoneNumber and password are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	qrCodeId, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreatePatientParams{
		Name:                  req.Name,
		PhoneNumber:           req.PhoneNumber,
		PasswordHash:          pwdHash,
		EmergencyContactName:  req.EmergencyContact.Name,
		EmergencyContactPhone: req.EmergencyContact.PhoneNumber,
		QrCodeId:              qrCodeId,
		Height:                req.Height,
		Weight:                req.Weight,
		Bmi:                   computeBmi(req.Height, req.Weight),
		BloodGroup:            req.BloodGroup,
		PhotoUrl:              req.PhotoUrl,
	}

	newPatient, err := s.db.CreatePatient(params)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrDuplicate) {
			errResp = NewValidationError("phone number already registered")
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	patient := patientResponse(newPatient)

	token, err := s.createToken(types.Identity{
		Id:   patient.Id,
		Type: types.IdentityUser,
		Name: patient.Name,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	qrCode, err := s.qrDataURL(patient.QrCodeId)
	if err != nil {
		s.log.Printf("qr code for patient %s: %v", patient.Id, err)
	}

	s.writeJson(w, http.StatusCreated, RegisterPatientResponse{
		User:   patient,
		Token:  token,
		QrCode: qrCode,
	})
}

func (s *SaathiApp) loginPatient(w http.ResponseWriter, r *http.Request) {
	var lr PatientLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.PhoneNumber == "" || lr.Password == "" {
		errResp := NewValidationError("phoneNumber and password are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbPatient, err := s.db.GetPatientByPhone(lr.PhoneNumber)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewInvalidCredentialsError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbPatient.PasswordHash, lr.Password) {
		errResp := NewInvalidCredentialsError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	patient := patientResponse(dbPatient)

	token, err := s.createToken(types.Identity{
		Id:   patient.Id,
		Type: types.IdentityUser,
		Name: patient.Name,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, PatientLoginResponse{User: patient, Token: token})
}

func (s *SaathiApp) registerDoctor(w http.ResponseWriter, r *http.Request) {
	var req RegisterDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		errResp := NewValidationError("name, email and password are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateDoctorParams{
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   pwdHash,
		Specialization: req.Specialization,
		HospitalId:     req.HospitalId,
		PhoneNumber:    req.PhoneNumber,
	}

	newDoctor, err := s.db.CreateDoctor(params)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrDuplicate) {
			errResp = NewValidationError("email already registered")
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	doctor := doctorResponse(newDoctor, false)

	token, err := s.createToken(types.Identity{
		Id:   doctor.Id,
		Type: types.IdentityDoctor,
		Name: doctor.Name,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, DoctorAuthResponse{Doctor: doctor, Token: token})
}

func (s *SaathiApp) loginDoctor(w http.ResponseWriter, r *http.Request) {
	var lr EmailLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewValidationError("email and password are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbDoctor, err := s.db.GetDoctorByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewInvalidCredentialsError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbDoctor.PasswordHash, lr.Password) {
		errResp := NewInvalidCredentialsError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	isOnline, err := s.tracker.IsOnline(r.Context(), dbDoctor.Id)
	if err != nil {
		s.log.Printf("presence lookup for doctor %s: %v", dbDoctor.Id, err)
	}
	doctor := doctorResponse(dbDoctor, isOnline)

	token, err := s.createToken(types.Identity{
		Id:   doctor.Id,
		Type: types.IdentityDoctor,
		Name: doctor.Name,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, DoctorAuthResponse{Doctor: doctor, Token: token})
}

func (s *SaathiApp) registerHospital(w http.ResponseWriter, r *http.Request) {
	var req RegisterHospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		errResp := NewValidationError("name, email and password are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateHospitalParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwdHash,
		Address:      req.Address,
		PhoneNumber:  req.PhoneNumber,
	}

	newHospital, err := s.db.CreateHospital(params)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrDuplicate) {
			errResp = NewValidationError("email already registered")
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	hospital := hospitalResponse(newHospital)

	token, err := s.createToken(types.Identity{
		Id:   hospital.Id,
		Type: types.IdentityHospital,
		Name: hospital.Name,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, HospitalAuthResponse{Hospital: hospital, Token: token})
}

func (s *SaathiApp) loginHospital(w http.ResponseWriter, r *http.Request) {
	var lr EmailLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewValidationError("email and password are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbHospital, err := s.db.GetHospitalByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewInvalidCredentialsError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbHospital.PasswordHash, lr.Password) {
		errResp := NewInvalidCredentialsError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	hospital := hospitalResponse(dbHospital)

	token, err := s.createToken(types.Identity{
		Id:   hospital.Id,
		Type: types.IdentityHospital,
		Name: hospital.Name,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, HospitalAuthResponse{Hospital: hospital, Token: token})
}

func (s *SaathiApp) onlineDoctors(w http.ResponseWriter, r *http.Request) {
	ids, err := s.tracker.OnlineDoctorIds(r.Context())
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	doctors := []types.Doctor{}
	if len(ids) > 0 {
		dbDoctors, err := s.db.GetDoctorsByIds(ids)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		for _, d := range dbDoctors {
			doctors = append(doctors, doctorResponse(d, true))
		}
	}

	s.writeJson(w, http.StatusOK, doctors)
}

func (s *SaathiApp) hospitalDoctors(w http.ResponseWriter, r *http.Request) {
	hospitalId := r.PathValue("id")

	dbDoctors, err := s.db.GetDoctorsByHospital(hospitalId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	doctors := []types.Doctor{}
	for _, d := range dbDoctors {
		isOnline, err := s.tracker.IsOnline(r.Context(), d.Id)
		if err != nil {
			s.log.Printf("presence lookup for doctor %s: %v", d.Id, err)
		}
		doctors = append(doctors, doctorResponse(d, isOnline))
	}

	s.writeJson(w, http.StatusOK, doctors)
}

func (s *SaathiApp) getPatient(w http.ResponseWriter, r *http.Request) {
	dbPatient, err := s.db.GetPatientById(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, patientResponse(dbPatient))
}

func (s *SaathiApp) getDoctor(w http.ResponseWriter, r *http.Request) {
	dbDoctor, err := s.db.GetDoctorById(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	isOnline, err := s.tracker.IsOnline(r.Context(), dbDoctor.Id)
	if err != nil {
		s.log.Printf("presence lookup for doctor %s: %v", dbDoctor.Id, err)
	}

	s.writeJson(w, http.StatusOK, doctorResponse(dbDoctor, isOnline))
}

func (s *SaathiApp) qrSummary(w http.ResponseWriter, r *http.Request) {
	dbPatient, err := s.db.GetPatientByQrCode(r.PathValue("qrCodeId"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	p := patientResponse(dbPatient)
	s.writeJson(w, http.StatusOK, QrSummary{
		Name:             p.Name,
		BloodGroup:       p.BloodGroup,
		Height:           p.Height,
		Weight:           p.Weight,
		Bmi:              p.Bmi,
		MajorProblem:     p.MajorProblem,
		Allergies:        p.Allergies,
		EmergencyContact: p.EmergencyContact,
		MedicalReports:   p.MedicalReports,
	})
}

func (s *SaathiApp) patientQrCode(w http.ResponseWriter, r *http.Request) {
	dbPatient, err := s.db.GetPatientById(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	qrCode, err := s.qrDataURL(dbPatient.QrCodeId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{
		"qrCodeId": dbPatient.QrCodeId,
		"qrCode":   qrCode,
	})
}

func (s *SaathiApp) updatePatientProfile(w http.ResponseWriter, r *http.Request) {
	patientId := r.PathValue("id")

	ident, ok := IdentityFrom(r.Context())
	if !ok || ident.Id != patientId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdatePatientProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.UpdatePatientProfileParams{
		PatientId:          patientId,
		Name:               req.Name,
		PhotoUrl:           req.PhotoUrl,
		BloodGroup:         req.BloodGroup,
		Height:             req.Height,
		Weight:             req.Weight,
		MajorProblem:       req.MajorProblem,
		Allergies:          req.Allergies,
		ChronicConditions:  req.ChronicConditions,
		CurrentMedications: req.CurrentMedications,
	}
	if req.EmergencyContact != nil {
		params.EmergencyContactName = &req.EmergencyContact.Name
		params.EmergencyContactPhone = &req.EmergencyContact.PhoneNumber
	}
	if req.Height != nil || req.Weight != nil {
		cur, err := s.db.GetPatientById(patientId)
		if err == nil {
			h, wt := cur.Height, cur.Weight
			if req.Height != nil {
				h = *req.Height
			}
			if req.Weight != nil {
				wt = *req.Weight
			}
			bmi := computeBmi(h, wt)
			params.Bmi = &bmi
		}
	}

	dbPatient, err := s.db.UpdatePatientProfile(params)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, patientResponse(dbPatient))
}

func (s *SaathiApp) updateDoctorProfile(w http.ResponseWriter, r *http.Request) {
	doctorId := r.PathValue("id")

	ident, ok := IdentityFrom(r.Context())
	if !ok || ident.Id != doctorId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateDoctorProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbDoctor, err := s.db.UpdateDoctorProfile(database.UpdateDoctorProfileParams{
		DoctorId:   doctorId,
		Name:       req.Name,
		PhotoUrl:   req.PhotoUrl,
		BloodGroup: req.BloodGroup,
	})
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	isOnline, err := s.tracker.IsOnline(r.Context(), dbDoctor.Id)
	if err != nil {
		s.log.Printf("presence lookup for doctor %s: %v", dbDoctor.Id, err)
	}

	s.writeJson(w, http.StatusOK, doctorResponse(dbDoctor, isOnline))
}

func (s *SaathiApp) addReport(w http.ResponseWriter, r *http.Request) {
	patientId := r.PathValue("id")

	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req AddReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Title == "" || req.Url == "" {
		errResp := NewValidationError("title and url are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbPatient, err := s.db.AddMedicalReport(patientId, database.MedicalReport{
		Title:      req.Title,
		Url:        req.Url,
		UploadedAt: server.Now(),
		UploadedBy: ident.Id,
		Type:       req.Type,
	})
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, patientResponse(dbPatient))
}

func (s *SaathiApp) createPost(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Content == "" {
		errResp := NewValidationError("content is required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newPost, err := s.db.CreatePost(database.CreatePostParams{
		AuthorId:   ident.Id,
		AuthorName: ident.Name,
		Content:    req.Content,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, postResponse(newPost))
}

func (s *SaathiApp) listPosts(w http.ResponseWriter, _ *http.Request) {
	dbPosts, err := s.db.ListPosts()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	posts := []types.Post{}
	for _, p := range dbPosts {
		posts = append(posts, postResponse(p))
	}

	s.writeJson(w, http.StatusOK, posts)
}

func (s *SaathiApp) createChatRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.UserId == "" || req.DoctorId == "" {
		errResp := NewValidationError("userId and doctorId are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newRoom, err := s.db.CreateRoom(database.CreateRoomParams{
		PatientId: req.UserId,
		DoctorId:  req.DoctorId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, roomResponse(newRoom))
}

func (s *SaathiApp) patientRooms(w http.ResponseWriter, r *http.Request) {
	dbRooms, err := s.db.GetRoomsForPatient(r.PathValue("userId"))
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms := []types.ChatRoom{}
	for _, room := range dbRooms {
		rooms = append(rooms, roomResponse(room))
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *SaathiApp) doctorRooms(w http.ResponseWriter, r *http.Request) {
	dbRooms, err := s.db.GetRoomsForDoctor(r.PathValue("doctorId"))
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms := []types.ChatRoom{}
	for _, room := range dbRooms {
		rooms = append(rooms, roomResponse(room))
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *SaathiApp) roomMessages(w http.ResponseWriter, r *http.Request) {
	chatRoomId := r.PathValue("chatRoomId")

	if _, err := s.db.GetRoomById(chatRoomId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbMessages, err := s.db.GetMessagesByRoom(chatRoomId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages := []types.ChatMessage{}
	for _, m := range dbMessages {
		messages = append(messages, messageResponse(m))
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *SaathiApp) healthz(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *SaathiApp) serveWs(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(ident, conn, s.cs, s.log)

	s.cs.RegisterChan <- client
	go client.Write()
	go client.Read()
}
