// Package store persists users, chat history and reminders in a local
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

const (
	ReminderPending = "pending"
	ReminderSent    = "sent"
)

// User mirrors the profile the assistant builds up over conversations.
// The zero Name is never stored; a freshly onboarded user carries
// PendingName until they answer the name question.
const PendingName = "Pending"

type User struct {
	ID               int64
	PhoneNumber      string
	Name             string
	Age              int
	Gender           string
	BloodGroup       string
	Allergies        string
	MedicalHistory   string
	EmergencyContact string
	CreatedAt        time.Time
}

type Message struct {
	ID        int64
	UserID    int64
	Role      string
	Content   string
	CreatedAt time.Time
}

type Reminder struct {
	ID       int64
	UserID   int64
	RemindAt time.Time
	Message  string
	Status   string
}

type Store struct {
	db *sql.DB
}

// Open initializes the SQLite database at the given path, creating the
// parent directory and schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; serialize access through the pool.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			phone_number TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			age INTEGER NOT NULL DEFAULT 0,
			gender TEXT NOT NULL DEFAULT '',
			blood_group TEXT NOT NULL DEFAULT '',
			allergies TEXT NOT NULL DEFAULT '',
			medical_history TEXT NOT NULL DEFAULT '',
			emergency_contact TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone_number);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, id);`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			remind_at DATETIME NOT NULL,
			message TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(status, remind_at);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ========== Users ==========

func (s *Store) CreateUser(ctx context.Context, phone, name string) (*User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (phone_number, name) VALUES (?, ?)`, phone, name)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &User{ID: id, PhoneNumber: phone, Name: name}, nil
}

func (s *Store) UserByPhone(ctx context.Context, phone string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, phone_number, name, age, gender, blood_group, allergies,
		        medical_history, emergency_contact, created_at
		 FROM users WHERE phone_number = ?`, phone)

	var u User
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.Name, &u.Age, &u.Gender,
		&u.BloodGroup, &u.Allergies, &u.MedicalHistory, &u.EmergencyContact, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user by phone: %w", err)
	}
	return &u, nil
}

// allowed profile columns for partial updates; anything else in the map
// is rejected rather than silently dropped.
var profileColumns = map[string]struct{}{
	"name": {}, "age": {}, "gender": {}, "blood_group": {},
	"allergies": {}, "medical_history": {}, "emergency_contact": {},
}

// UpdateProfile applies a partial update, e.g. parsed from an
// UPDATE_PROFILE tag in the model output.
func (s *Store) UpdateProfile(ctx context.Context, phone string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	setters := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+1)
	for col, val := range updates {
		if _, ok := profileColumns[col]; !ok {
			return fmt.Errorf("unknown profile column %q", col)
		}
		setters = append(setters, col+" = ?")
		args = append(args, val)
	}
	args = append(args, phone)

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(setters, ", ")+` WHERE phone_number = ?`, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Messages ==========

func (s *Store) SaveMessage(ctx context.Context, userID int64, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (user_id, role, content) VALUES (?, ?, ?)`,
		userID, role, content)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// History returns the last limit messages for a user in chronological
// order.
func (s *Store) History(ctx context.Context, userID int64, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, role, content, created_at
		 FROM messages WHERE user_id = ?
		 ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Flip newest-first into chronological.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ========== Reminders ==========

func (s *Store) CreateReminder(ctx context.Context, userID int64, remindAt time.Time, message string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (user_id, remind_at, message, status) VALUES (?, ?, ?, ?)`,
		userID, remindAt.UTC(), message, ReminderPending)
	if err != nil {
		return 0, fmt.Errorf("create reminder: %w", err)
	}
	return res.LastInsertId()
}

// Due returns pending reminders whose time has passed.
func (s *Store) Due(ctx context.Context, now time.Time) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, remind_at, message, status
		 FROM reminders WHERE status = ? AND remind_at <= ?
		 ORDER BY remind_at`, ReminderPending, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.UserID, &r.RemindAt, &r.Message, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) MarkSent(ctx context.Context, reminderID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET status = ? WHERE id = ?`, ReminderSent, reminderID)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// UserByID resolves the phone number for reminder delivery.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, phone_number, name, age, gender, blood_group, allergies,
		        medical_history, emergency_contact, created_at
		 FROM users WHERE id = ?`, id)

	var u User
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.Name, &u.Age, &u.Gender,
		&u.BloodGroup, &u.Allergies, &u.MedicalHistory, &u.EmergencyContact, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return &u, nil
}
