package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrPaymentRequired    = errors.New("payment not verified")
	ErrForbidden          = errors.New("admin access required")
)

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Service handles accounts: registration, the payment-gated login and
// admin user management. Emails are best effort and never block or fail
// the primary write.
type Service struct {
	db         *sql.DB
	tokens     *TokenManager
	mailer     Mailer
	bcryptCost int
}

type ServiceConfig struct {
	Tokens     *TokenManager
	Mailer     Mailer
	BcryptCost int
}

func NewService(db *sql.DB, cfg ServiceConfig) *Service {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{db: db, tokens: cfg.Tokens, mailer: cfg.Mailer, bcryptCost: cost}
}

type User struct {
	ID                int64      `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone,omitempty"`
	City              string     `json:"city,omitempty"`
	Role              string     `json:"role"`
	IsPaid            bool       `json:"is_paid"`
	PaymentVerifiedAt *time.Time `json:"payment_verified_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	City     string
}

type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	City     string
	Role     string
	IsPaid   bool
}

type UpdateUserInput struct {
	Name   string
	Phone  string
	City   string
	IsPaid *bool
}

type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

const userColumns = `
	id, email, name, phone, city, role, is_paid, payment_verified_at,
	created_at, updated_at`

// Register creates a student account. The welcome email goes out on a
// goroutine so a broken relay never fails registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, name, phone, city, role, is_paid, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, false, now(), now())
		RETURNING `+userColumns+`
	`, email, string(hash), strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone),
		strings.TrimSpace(in.City), RoleStudent)

	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if s.mailer != nil {
		go func(email, name string) {
			if err := s.mailer.SendWelcome(context.Background(), email, name); err != nil {
				log.Printf("welcome email to %s failed: %v", email, err)
			}
		}(user.Email, user.Name)
	}
	return user, nil
}

// Login authenticates any account. Students must have a verified
// payment before a token is issued.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, hash, err := s.userWithHash(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Role == RoleStudent && !user.IsPaid {
		return nil, ErrPaymentRequired
	}
	return s.newSession(user)
}

// AdminLogin is the back-office entry point: valid credentials on a
// non-admin account are still rejected.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	user, hash, err := s.userWithHash(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Role != RoleAdmin {
		return nil, ErrForbidden
	}
	return s.newSession(user)
}

// VerifyPayment marks a student as paid and sends the confirmation
// email best effort.
func (s *Service) VerifyPayment(ctx context.Context, userID int64) (*User, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET is_paid = true, payment_verified_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, userID)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	if s.mailer != nil {
		go func(email, name string) {
			if err := s.mailer.SendPaymentConfirmation(context.Background(), email, name); err != nil {
				log.Printf("payment confirmation email to %s failed: %v", email, err)
			}
		}(user.Email, user.Name)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
}

// ListPendingPayments returns students awaiting payment verification.
func (s *Service) ListPendingPayments(ctx context.Context) ([]User, error) {
	return s.listUsers(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = 'student' AND is_paid = false
		ORDER BY created_at ASC`)
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// CreateUser is the admin-side create. Admin accounts are paid by
// definition, the gate only applies to students.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role != RoleAdmin && role != RoleStudent {
		return nil, fmt.Errorf("%w: role must be admin or student", ErrInvalidInput)
	}

	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	isPaid := in.IsPaid || role == RoleAdmin

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, name, phone, city, role, is_paid,
			payment_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7,
			CASE WHEN $7 THEN now() END, now(), now())
		RETURNING `+userColumns+`
	`, email, string(hash), strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone),
		strings.TrimSpace(in.City), role, isPaid)

	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, userID int64, in UpdateUserInput) (*User, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	current, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	isPaid := current.IsPaid
	if in.IsPaid != nil {
		isPaid = *in.IsPaid
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET name = $2,
			phone = NULLIF($3, ''),
			city = NULLIF($4, ''),
			is_paid = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, userID, strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone),
		strings.TrimSpace(in.City), isPaid)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) newSession(user *User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: *user}, nil
}

func (s *Service) userWithHash(ctx context.Context, email string) (*User, string, error) {
	if email == "" {
		return nil, "", ErrInvalidCredentials
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`, password_hash
		FROM users
		WHERE email = $1
	`, email)

	var out User
	var phone, city sql.NullString
	var paidAt sql.NullTime
	var hash string
	if err := row.Scan(
		&out.ID, &out.Email, &out.Name, &phone, &city, &out.Role, &out.IsPaid,
		&paidAt, &out.CreatedAt, &out.UpdatedAt, &hash,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	out.Phone = phone.String
	out.City = city.String
	if paidAt.Valid {
		t := paidAt.Time
		out.PaymentVerifiedAt = &t
	}
	return &out, hash, nil
}

func (s *Service) listUsers(ctx context.Context, query string) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

func (s *Service) emailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var taken bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
		email, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return taken, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (*User, error) {
	var out User
	var phone, city sql.NullString
	var paidAt sql.NullTime
	if err := scanner.Scan(
		&out.ID,
		&out.Email,
		&out.Name,
		&phone,
		&city,
		&out.Role,
		&out.IsPaid,
		&paidAt,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	out.Phone = phone.String
	out.City = city.String
	if paidAt.Valid {
		t := paidAt.Time
		out.PaymentVerifiedAt = &t
	}
	return &out, nil
}
