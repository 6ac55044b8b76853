package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"brightpath/server/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func (s *Store) CreateProfile(ctx context.Context, profile model.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (id, user_id, full_name, email, role, available_credits, bio, phone, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, profile.ID, profile.UserID, profile.FullName, profile.Email, profile.Role,
		profile.AvailableCredits, profile.Bio, profile.Phone, profile.AvatarURL,
		profile.CreatedAt, profile.UpdatedAt)
	return err
}

func (s *Store) GetProfileByUserID(ctx context.Context, userID string) (model.Profile, error) {
	var profile model.Profile
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, full_name, email, role, available_credits, bio, phone, avatar_url, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID)
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Email,
		&profile.Role,
		&profile.AvailableCredits,
		&profile.Bio,
		&profile.Phone,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	return profile, err
}

type ProfileUpdate struct {
	FullName  *string
	Bio       *string
	Phone     *string
	AvatarURL *string
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (model.Profile, error) {
	_, err := s.pool.Exec(ctx, `
		UPDATE profiles
		SET full_name  = COALESCE($1, full_name),
		    bio        = COALESCE($2, bio),
		    phone      = COALESCE($3, phone),
		    avatar_url = COALESCE($4, avatar_url),
		    updated_at = $5
		WHERE user_id = $6
	`, update.FullName, update.Bio, update.Phone, update.AvatarURL, time.Now().UTC(), userID)
	if err != nil {
		return model.Profile{}, err
	}
	return s.GetProfileByUserID(ctx, userID)
}

func (s *Store) CreateRefreshSession(ctx context.Context, session model.RefreshSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_token_sessions (id, user_id, token_hash, created_at, expires_at, revoked_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, session.ID, session.UserID, session.TokenHash, session.CreatedAt, session.ExpiresAt, session.RevokedAt, session.UserAgent, session.IPAddress)
	return err
}

func (s *Store) GetRefreshSession(ctx context.Context, tokenHash string) (model.RefreshSession, error) {
	var session model.RefreshSession
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, created_at, expires_at, revoked_at, user_agent, ip_address
		FROM refresh_token_sessions
		WHERE token_hash = $1
	`, tokenHash)
	err := row.Scan(&session.ID, &session.UserID, &session.TokenHash, &session.CreatedAt, &session.ExpiresAt, &session.RevokedAt, &session.UserAgent, &session.IPAddress)
	return session, err
}

func (s *Store) RevokeRefreshSession(ctx context.Context, sessionID string, revokedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE refresh_token_sessions SET revoked_at = $1 WHERE id = $2`, revokedAt, sessionID)
	return err
}

func (s *Store) RevokeRefreshSessionsByUser(ctx context.Context, userID string, revokedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE refresh_token_sessions
		SET revoked_at = $1
		WHERE user_id = $2 AND revoked_at IS NULL
	`, revokedAt, userID)
	return err
}

func (s *Store) DeleteExpiredRefreshSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM refresh_token_sessions
		WHERE expires_at < $1 OR revoked_at IS NOT NULL
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
