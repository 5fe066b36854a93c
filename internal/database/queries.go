package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

func marshalJson(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("[]")
	}
	return b
}

func unmarshalStrings(raw []byte) []string {
	var out []string
	if len(raw) > 0 {
		json.Unmarshal(raw, &out)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func unmarshalReports(raw []byte) []MedicalReport {
	var out []MedicalReport
	if len(raw) > 0 {
		json.Unmarshal(raw, &out)
	}
	if out == nil {
		out = []MedicalReport{}
	}
	return out
}

const patientColumns = "id, name, phone_number, password_hash, emergency_contact_name, " +
	"emergency_contact_phone, qr_code_id, height, weight, bmi, blood_group, photo_url, " +
	"major_problem, allergies, chronic_conditions, current_medications, medical_reports, created_at"

func scanPatient(row *sql.Row) (Patient, error) {
	var p Patient
	var allergies, chronic, meds, reports []byte
	err := row.Scan(
		&p.Id,
		&p.Name,
		&p.PhoneNumber,
		&p.PasswordHash,
		&p.EmergencyContactName,
		&p.EmergencyContactPhone,
		&p.QrCodeId,
		&p.Height,
		&p.Weight,
		&p.Bmi,
		&p.BloodGroup,
		&p.PhotoUrl,
		&p.MajorProblem,
		&allergies,
		&chronic,
		&meds,
		&reports,
		&p.CreatedAt,
	)
	if err != nil {
		return Patient{}, err
	}

	p.Allergies = unmarshalStrings(allergies)
	p.ChronicConditions = unmarshalStrings(chronic)
	p.CurrentMedications = unmarshalStrings(meds)
	p.MedicalReports = unmarshalReports(reports)
	return p, nil
}

func (db *PgSaathiRepository) CreatePatient(params CreatePatientParams) (Patient, error) {
	reports := params.MedicalReports
	if reports == nil {
		reports = []MedicalReport{}
	}

	row := db.conn.QueryRow(
		"INSERT INTO patients (id, name, phone_number, password_hash, emergency_contact_name, "+
			"emergency_contact_phone, qr_code_id, height, weight, bmi, blood_group, photo_url, medical_reports, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) "+
			"RETURNING "+patientColumns,
		uuid.NewString(),
		params.Name,
		params.PhoneNumber,
		params.PasswordHash,
		params.EmergencyContactName,
		params.EmergencyContactPhone,
		params.QrCodeId,
		params.Height,
		params.Weight,
		params.Bmi,
		params.BloodGroup,
		params.PhotoUrl,
		marshalJson(reports),
		time.Now().UTC(),
	)

	p, err := scanPatient(row)
	return p, translateErr(err)
}

func (db *PgSaathiRepository) GetPatientById(id string) (Patient, error) {
	return scanPatient(db.conn.QueryRow(
		"SELECT "+patientColumns+" FROM patients WHERE id = $1 LIMIT 1", id,
	))
}

func (db *PgSaathiRepository) GetPatientByPhone(phoneNumber string) (Patient, error) {
	return scanPatient(db.conn.QueryRow(
		"SELECT "+patientColumns+" FROM patients WHERE phone_number = $1 LIMIT 1", phoneNumber,
	))
}

func (db *PgSaathiRepository) GetPatientByQrCode(qrCodeId string) (Patient, error) {
	return scanPatient(db.conn.QueryRow(
		"SELECT "+patientColumns+" FROM patients WHERE qr_code_id = $1 LIMIT 1", qrCodeId,
	))
}

func (db *PgSaathiRepository) UpdatePatientProfile(params UpdatePatientProfileParams) (Patient, error) {
	cur, err := db.GetPatientById(params.PatientId)
	if err != nil {
		return Patient{}, err
	}

	applyPatientUpdate(&cur, params)

	return scanPatient(db.conn.QueryRow(
		"UPDATE patients SET name = $2, photo_url = $3, blood_group = $4, emergency_contact_name = $5, "+
			"emergency_contact_phone = $6, height = $7, weight = $8, bmi = $9, major_problem = $10, "+
			"allergies = $11, chronic_conditions = $12, current_medications = $13 "+
			"WHERE id = $1 RETURNING "+patientColumns,
		cur.Id,
		cur.Name,
		cur.PhotoUrl,
		cur.BloodGroup,
		cur.EmergencyContactName,
		cur.EmergencyContactPhone,
		cur.Height,
		cur.Weight,
		cur.Bmi,
		cur.MajorProblem,
		marshalJson(cur.Allergies),
		marshalJson(cur.ChronicConditions),
		marshalJson(cur.CurrentMedications),
	))
}

// applyPatientUpdate merges non-nil fields of params into p.
func applyPatientUpdate(p *Patient, params UpdatePatientProfileParams) {
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.PhotoUrl != nil {
		p.PhotoUrl = *params.PhotoUrl
	}
	if params.BloodGroup != nil {
		p.BloodGroup = *params.BloodGroup
	}
	if params.EmergencyContactName != nil {
		p.EmergencyContactName = *params.EmergencyContactName
	}
	if params.EmergencyContactPhone != nil {
		p.EmergencyContactPhone = *params.EmergencyContactPhone
	}
	if params.Height != nil {
		p.Height = *params.Height
	}
	if params.Weight != nil {
		p.Weight = *params.Weight
	}
	if params.Bmi != nil {
		p.Bmi = *params.Bmi
	}
	if params.MajorProblem != nil {
		p.MajorProblem = *params.MajorProblem
	}
	if params.Allergies != nil {
		p.Allergies = params.Allergies
	}
	if params.ChronicConditions != nil {
		p.ChronicConditions = params.ChronicConditions
	}
	if params.CurrentMedications != nil {
		p.CurrentMedications = params.CurrentMedications
	}
}

func (db *PgSaathiRepository) AddMedicalReport(patientId string, report MedicalReport) (Patient, error) {
	cur, err := db.GetPatientById(patientId)
	if err != nil {
		return Patient{}, err
	}

	reports := append(cur.MedicalReports, report)

	return scanPatient(db.conn.QueryRow(
		"UPDATE patients SET medical_reports = $2 WHERE id = $1 RETURNING "+patientColumns,
		patientId,
		marshalJson(reports),
	))
}

const doctorColumns = "id, name, email, password_hash, specialization, hospital_id, " +
	"phone_number, photo_url, blood_group, created_at"

func scanDoctorRow(row *sql.Row) (Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.Id,
		&d.Name,
		&d.Email,
		&d.PasswordHash,
		&d.Specialization,
		&d.HospitalId,
		&d.PhoneNumber,
		&d.PhotoUrl,
		&d.BloodGroup,
		&d.CreatedAt,
	)
	return d, err
}

func (db *PgSaathiRepository) CreateDoctor(params CreateDoctorParams) (Doctor, error) {
	d, err := scanDoctorRow(db.conn.QueryRow(
		"INSERT INTO doctors (id, name, email, password_hash, specialization, hospital_id, phone_number, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING "+doctorColumns,
		uuid.NewString(),
		params.Name,
		params.Email,
		params.PasswordHash,
		params.Specialization,
		params.HospitalId,
		params.PhoneNumber,
		time.Now().UTC(),
	))
	return d, translateErr(err)
}

func (db *PgSaathiRepository) GetDoctorById(id string) (Doctor, error) {
	return scanDoctorRow(db.conn.QueryRow(
		"SELECT "+doctorColumns+" FROM doctors WHERE id = $1 LIMIT 1", id,
	))
}

func (db *PgSaathiRepository) GetDoctorByEmail(email string) (Doctor, error) {
	return scanDoctorRow(db.conn.QueryRow(
		"SELECT "+doctorColumns+" FROM doctors WHERE email = $1 LIMIT 1", email,
	))
}

func (db *PgSaathiRepository) queryDoctors(query string, args ...any) ([]Doctor, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := []Doctor{}
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(
			&d.Id,
			&d.Name,
			&d.Email,
			&d.PasswordHash,
			&d.Specialization,
			&d.HospitalId,
			&d.PhoneNumber,
			&d.PhotoUrl,
			&d.BloodGroup,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}

	return doctors, rows.Err()
}

func (db *PgSaathiRepository) GetDoctorsByHospital(hospitalId string) ([]Doctor, error) {
	return db.queryDoctors(
		"SELECT "+doctorColumns+" FROM doctors WHERE hospital_id = $1 ORDER BY created_at", hospitalId,
	)
}

func (db *PgSaathiRepository) GetDoctorsByIds(ids []string) ([]Doctor, error) {
	if len(ids) == 0 {
		return []Doctor{}, nil
	}
	return db.queryDoctors(
		"SELECT "+doctorColumns+" FROM doctors WHERE id = ANY($1) ORDER BY created_at", pq.Array(ids),
	)
}

func (db *PgSaathiRepository) UpdateDoctorProfile(params UpdateDoctorProfileParams) (Doctor, error) {
	cur, err := db.GetDoctorById(params.DoctorId)
	if err != nil {
		return Doctor{}, err
	}

	if params.Name != nil {
		cur.Name = *params.Name
	}
	if params.PhotoUrl != nil {
		cur.PhotoUrl = *params.PhotoUrl
	}
	if params.BloodGroup != nil {
		cur.BloodGroup = *params.BloodGroup
	}

	return scanDoctorRow(db.conn.QueryRow(
		"UPDATE doctors SET name = $2, photo_url = $3, blood_group = $4 WHERE id = $1 RETURNING "+doctorColumns,
		cur.Id,
		cur.Name,
		cur.PhotoUrl,
		cur.BloodGroup,
	))
}

const hospitalColumns = "id, name, email, password_hash, address, phone_number, created_at"

func scanHospital(row *sql.Row) (Hospital, error) {
	var h Hospital
	err := row.Scan(
		&h.Id,
		&h.Name,
		&h.Email,
		&h.PasswordHash,
		&h.Address,
		&h.PhoneNumber,
		&h.CreatedAt,
	)
	return h, err
}

func (db *PgSaathiRepository) CreateHospital(params CreateHospitalParams) (Hospital, error) {
	h, err := scanHospital(db.conn.QueryRow(
		"INSERT INTO hospitals (id, name, email, password_hash, address, phone_number, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING "+hospitalColumns,
		uuid.NewString(),
		params.Name,
		params.Email,
		params.PasswordHash,
		params.Address,
		params.PhoneNumber,
		time.Now().UTC(),
	))
	return h, translateErr(err)
}

func (db *PgSaathiRepository) GetHospitalById(id string) (Hospital, error) {
	return scanHospital(db.conn.QueryRow(
		"SELECT "+hospitalColumns+" FROM hospitals WHERE id = $1 LIMIT 1", id,
	))
}

func (db *PgSaathiRepository) GetHospitalByEmail(email string) (Hospital, error) {
	return scanHospital(db.conn.QueryRow(
		"SELECT "+hospitalColumns+" FROM hospitals WHERE email = $1 LIMIT 1", email,
	))
}

const roomColumns = "id, patient_id, doctor_id, status, created_at, last_message_at"

func scanRoom(row *sql.Row) (ChatRoom, error) {
	var r ChatRoom
	err := row.Scan(
		&r.Id,
		&r.PatientId,
		&r.DoctorId,
		&r.Status,
		&r.CreatedAt,
		&r.LastMessageAt,
	)
	return r, err
}

func (db *PgSaathiRepository) CreateRoom(params CreateRoomParams) (ChatRoom, error) {
	now := time.Now().UTC()
	return scanRoom(db.conn.QueryRow(
		"INSERT INTO chat_rooms (id, patient_id, doctor_id, status, created_at, last_message_at) "+
			"VALUES ($1, $2, $3, 'active', $4, $4) RETURNING "+roomColumns,
		uuid.NewString(),
		params.PatientId,
		params.DoctorId,
		now,
	))
}

func (db *PgSaathiRepository) GetRoomById(id string) (ChatRoom, error) {
	return scanRoom(db.conn.QueryRow(
		"SELECT "+roomColumns+" FROM chat_rooms WHERE id = $1 LIMIT 1", id,
	))
}

func (db *PgSaathiRepository) queryRooms(query string, args ...any) ([]ChatRoom, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []ChatRoom{}
	for rows.Next() {
		var r ChatRoom
		if err := rows.Scan(
			&r.Id,
			&r.PatientId,
			&r.DoctorId,
			&r.Status,
			&r.CreatedAt,
			&r.LastMessageAt,
		); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

func (db *PgSaathiRepository) GetRoomsForPatient(patientId string) ([]ChatRoom, error) {
	return db.queryRooms(
		"SELECT "+roomColumns+" FROM chat_rooms WHERE patient_id = $1 ORDER BY created_at", patientId,
	)
}

func (db *PgSaathiRepository) GetRoomsForDoctor(doctorId string) ([]ChatRoom, error) {
	return db.queryRooms(
		"SELECT "+roomColumns+" FROM chat_rooms WHERE doctor_id = $1 ORDER BY created_at", doctorId,
	)
}

func (db *PgSaathiRepository) TouchRoom(id string, lastMessageAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE chat_rooms SET last_message_at = $2 WHERE id = $1", id, lastMessageAt,
	)
	return err
}

func (db *PgSaathiRepository) CreateMessage(params CreateMessageParams) (ChatMessage, error) {
	row := db.conn.QueryRow(
		"INSERT INTO chat_messages (id, chat_room_id, sender_id, sender_type, message, sent_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, chat_room_id, sender_id, sender_type, message, sent_at, is_read",
		uuid.NewString(),
		params.ChatRoomId,
		params.SenderId,
		params.SenderType,
		params.Message,
		params.Timestamp,
	)

	var m ChatMessage
	err := row.Scan(
		&m.Id,
		&m.ChatRoomId,
		&m.SenderId,
		&m.SenderType,
		&m.Message,
		&m.Timestamp,
		&m.IsRead,
	)
	return m, err
}

func (db *PgSaathiRepository) GetMessagesByRoom(chatRoomId string) ([]ChatMessage, error) {
	rows, err := db.conn.Query(
		"SELECT id, chat_room_id, sender_id, sender_type, message, sent_at, is_read "+
			"FROM chat_messages WHERE chat_room_id = $1 ORDER BY sent_at", chatRoomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []ChatMessage{}
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(
			&m.Id,
			&m.ChatRoomId,
			&m.SenderId,
			&m.SenderType,
			&m.Message,
			&m.Timestamp,
			&m.IsRead,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (db *PgSaathiRepository) CreatePost(params CreatePostParams) (Post, error) {
	row := db.conn.QueryRow(
		"INSERT INTO posts (id, author_id, author_name, content, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, author_id, author_name, content, created_at",
		uuid.NewString(),
		params.AuthorId,
		params.AuthorName,
		params.Content,
		time.Now().UTC(),
	)

	var p Post
	err := row.Scan(&p.Id, &p.AuthorId, &p.AuthorName, &p.Content, &p.CreatedAt)
	return p, err
}

func (db *PgSaathiRepository) ListPosts() ([]Post, error) {
	rows, err := db.conn.Query(
		"SELECT id, author_id, author_name, content, created_at FROM posts ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.Id, &p.AuthorId, &p.AuthorName, &p.Content, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}
