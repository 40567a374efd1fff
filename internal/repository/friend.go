package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatroom/internal/domain"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

type FriendRepository interface {
	// CreateRequest fails with ErrDuplicateRequest when a pending request
	// already exists for the pair in either direction.
	CreateRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*domain.FriendRequest, error)
	GetRequest(ctx context.Context, id int64) (*domain.FriendRequest, error)
	ListPending(ctx context.Context, userID uuid.UUID) (received, sent []*domain.FriendRequest, err error)
	// Respond moves a pending request to decision on behalf of actorID and,
	// on acceptance, records the friendship in the same transaction.
	Respond(ctx context.Context, id int64, actorID uuid.UUID, decision domain.FriendRequestStatus) (*domain.FriendRequest, *domain.Friendship, error)
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]*domain.User, error)
}

type friendRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewFriendRepository(db *pgxpool.Pool, log logger.Logger) FriendRepository {
	return &friendRepository{db: db, log: log}
}

func scanFriendRequest(row pgx.Row, extra ...any) (*domain.FriendRequest, error) {
	req := &domain.FriendRequest{}
	var status string
	dest := append([]any{&req.ID, &req.FromUserID, &req.ToUserID, &status, &req.CreatedAt, &req.ActedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	req.Status = domain.FriendRequestStatus(status)
	return req, nil
}

func (r *friendRepository) CreateRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*domain.FriendRequest, error) {
	query := `
		INSERT INTO friend_requests (from_user_id, to_user_id, status, created_at)
		VALUES ($1, $2, 'pending', NOW())
		RETURNING id, from_user_id, to_user_id, status, created_at, acted_at
	`

	req, err := scanFriendRequest(r.db.QueryRow(ctx, query, fromUserID, toUserID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicateRequest
		}
		r.log.Error("Failed to create friend request", "error", err, "from", fromUserID, "to", toUserID)
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}
	return req, nil
}

func (r *friendRepository) GetRequest(ctx context.Context, id int64) (*domain.FriendRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at, acted_at
		FROM friend_requests
		WHERE id = $1
	`

	req, err := scanFriendRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.log.Error("Failed to get friend request", "error", err, "id", id)
		return nil, err
	}
	return req, nil
}

func (r *friendRepository) ListPending(ctx context.Context, userID uuid.UUID) ([]*domain.FriendRequest, []*domain.FriendRequest, error) {
	received, err := r.listPending(ctx, userID, true)
	if err != nil {
		return nil, nil, err
	}
	sent, err := r.listPending(ctx, userID, false)
	if err != nil {
		return nil, nil, err
	}
	return received, sent, nil
}

func (r *friendRepository) listPending(ctx context.Context, userID uuid.UUID, incoming bool) ([]*domain.FriendRequest, error) {
	// incoming requests show the sender, outgoing ones the recipient
	query := `
		SELECT fr.id, fr.from_user_id, fr.to_user_id, fr.status, fr.created_at, fr.acted_at,
		       u.id, u.display_name, u.avatar_url
		FROM friend_requests fr
		JOIN users u ON u.id = fr.from_user_id
		WHERE fr.to_user_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at DESC
	`
	if !incoming {
		query = `
			SELECT fr.id, fr.from_user_id, fr.to_user_id, fr.status, fr.created_at, fr.acted_at,
			       u.id, u.display_name, u.avatar_url
			FROM friend_requests fr
			JOIN users u ON u.id = fr.to_user_id
			WHERE fr.from_user_id = $1 AND fr.status = 'pending'
			ORDER BY fr.created_at DESC
		`
	}

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list friend requests", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.FriendRequest
	for rows.Next() {
		other := &domain.UserProfile{}
		req, err := scanFriendRequest(rows, &other.ID, &other.DisplayName, &other.AvatarURL)
		if err != nil {
			r.log.Error("Failed to scan friend request", "error", err)
			return nil, err
		}
		if incoming {
			req.FromUser = other
		} else {
			req.ToUser = other
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *friendRepository) Respond(ctx context.Context, id int64, actorID uuid.UUID, decision domain.FriendRequestStatus) (*domain.FriendRequest, *domain.Friendship, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin respond: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := scanFriendRequest(tx.QueryRow(ctx, `
		SELECT id, from_user_id, to_user_id, status, created_at, acted_at
		FROM friend_requests
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.ErrNotFound
		}
		r.log.Error("Failed to lock friend request", "error", err, "id", id)
		return nil, nil, err
	}

	if req.ToUserID != actorID {
		return nil, nil, apperrors.ErrForbidden
	}
	if req.Status.IsTerminal() {
		return nil, nil, apperrors.ErrInvalidTransition
	}

	err = tx.QueryRow(ctx, `
		UPDATE friend_requests SET status = $2, acted_at = NOW()
		WHERE id = $1
		RETURNING acted_at
	`, id, string(decision)).Scan(&req.ActedAt)
	if err != nil {
		r.log.Error("Failed to update friend request", "error", err, "id", id)
		return nil, nil, err
	}
	req.Status = decision

	var friendship *domain.Friendship
	if decision == domain.FriendRequestAccepted {
		f := domain.NewFriendship(req.FromUserID, req.ToUserID, *req.ActedAt)
		_, err = tx.Exec(ctx, `
			INSERT INTO friendships (user_low_id, user_high_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_low_id, user_high_id) DO NOTHING
		`, f.UserLowID, f.UserHighID, f.CreatedAt)
		if err != nil {
			r.log.Error("Failed to create friendship", "error", err, "id", id)
			return nil, nil, err
		}
		friendship = &f
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit respond: %w", err)
	}
	return req, friendship, nil
}

func (r *friendRepository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	low, high := domain.OrderedPair(a, b)

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM friendships WHERE user_low_id = $1 AND user_high_id = $2)
	`, low, high).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check friendship", "error", err)
		return false, err
	}
	return exists, nil
}

func (r *friendRepository) ListFriends(ctx context.Context, userID uuid.UUID) ([]*domain.User, error) {
	query := `
		SELECT u.id, u.email, u.display_name, u.avatar_url, u.google_id, u.last_seen_at, u.created_at, u.updated_at
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_low_id = $1 THEN f.user_high_id ELSE f.user_low_id END
		WHERE f.user_low_id = $1 OR f.user_high_id = $1
		ORDER BY u.display_name
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list friends", "error", err)
		return nil, err
	}
	defer rows.Close()

	var friends []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.log.Error("Failed to scan friend", "error", err)
			return nil, err
		}
		friends = append(friends, user)
	}
	return friends, rows.Err()
}
