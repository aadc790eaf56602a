package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoorayapp/hooray-sync/internal/models"
)

// ErrNotFound is returned for lookups against rows that do not exist, e.g.
// a comment replayed against a deleted celebration.
var ErrNotFound = errors.New("not found")

// CelebrationInput is the content of a create call once the image has a
// durable storage reference.
type CelebrationInput struct {
	Title       string
	Description string
	ImageURL    string
}

// Backend is the client for the hosted relational database. Celebrations
// and comments live in Postgres; every write returns the confirmed row so
// callers only mutate local state after the server has acknowledged.
type Backend struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewBackend(ctx context.Context, connString string, logger *slog.Logger) (*Backend, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse backend pool config: %w", err)
	}

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create backend pool: %w", err)
	}

	// The daemon may boot while offline with actions already queued, so an
	// unreachable backend is not fatal here. The pool connects lazily and
	// the sync workflow gates every call on the network observer anyway.
	if err := p.Ping(ctx); err != nil {
		logger.Warn("Backend not reachable at startup, continuing offline", "error", err)
	} else {
		logger.Info("Connected to backend database")
	}
	return &Backend{pool: p, logger: logger}, nil
}

// GetCelebrations returns the feed, newest first.
func (b *Backend) GetCelebrations(ctx context.Context) ([]models.Celebration, error) {
	query := `
        SELECT id, user_id, user_name, user_email, user_avatar_url,
               title, description, image_url, latitude, longitude,
               like_count, comment_count, created_at
        FROM celebrations
        ORDER BY created_at DESC
    `

	rows, err := b.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch celebrations: %w", err)
	}
	defer rows.Close()

	var list []models.Celebration
	for rows.Next() {
		var c models.Celebration
		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Author.Name,
			&c.Author.Email,
			&c.Author.AvatarURL,
			&c.Title,
			&c.Description,
			&c.ImageURL,
			&c.Location.Latitude,
			&c.Location.Longitude,
			&c.LikeCount,
			&c.CommentCount,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan celebration: %w", err)
		}
		c.Author.ID = c.UserID
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read celebrations: %w", err)
	}

	return list, nil
}

// CreateCelebration inserts a celebration and returns the confirmed row.
func (b *Backend) CreateCelebration(ctx context.Context, input CelebrationInput, user models.UserSnapshot, loc models.Location) (*models.Celebration, error) {
	query := `
		INSERT INTO celebrations
			(user_id, user_name, user_email, user_avatar_url,
			 title, description, image_url, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	c := models.Celebration{
		UserID:      user.ID,
		Author:      user,
		Title:       input.Title,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Location:    loc,
	}

	err := b.pool.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.AvatarURL,
		input.Title, input.Description, input.ImageURL,
		loc.Latitude, loc.Longitude,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create celebration: %w", err)
	}

	b.logger.Info("Celebration created", "id", c.ID, "user_id", user.ID)
	return &c, nil
}

// AddComment inserts a comment under the given user identity and returns
// the confirmed row. The celebration's comment counter is bumped in the
// same transaction.
func (b *Backend) AddComment(ctx context.Context, celebrationID int64, text string, user models.UserSnapshot) (*models.Comment, error) {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin comment tx: %w", err)
	}
	defer tx.Rollback(ctx)

	c := models.Comment{
		CelebrationID: celebrationID,
		User:          user,
		Text:          text,
	}

	query := `
		INSERT INTO comments
			(celebration_id, user_id, user_name, user_email, user_avatar_url, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err = tx.QueryRow(ctx, query,
		celebrationID, user.ID, user.Name, user.Email, user.AvatarURL, text,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE celebrations SET comment_count = comment_count + 1 WHERE id = $1`,
		celebrationID,
	)
	if err != nil {
		return nil, fmt.Errorf("bump comment count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("celebration %d: %w", celebrationID, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit comment: %w", err)
	}

	return &c, nil
}

// ListComments returns the comments of a celebration, oldest first.
func (b *Backend) ListComments(ctx context.Context, celebrationID int64) ([]models.Comment, error) {
	query := `
        SELECT id, celebration_id, user_id, user_name, user_email, user_avatar_url, body, created_at
        FROM comments
        WHERE celebration_id = $1
        ORDER BY created_at ASC
    `

	rows, err := b.pool.Query(ctx, query, celebrationID)
	if err != nil {
		return nil, fmt.Errorf("fetch comments: %w", err)
	}
	defer rows.Close()

	var list []models.Comment
	for rows.Next() {
		var c models.Comment
		err := rows.Scan(
			&c.ID,
			&c.CelebrationID,
			&c.User.ID,
			&c.User.Name,
			&c.User.Email,
			&c.User.AvatarURL,
			&c.Text,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read comments: %w", err)
	}

	return list, nil
}

// GetSpecialDay returns the themed calendar entry for a YYYY-MM-DD date.
func (b *Backend) GetSpecialDay(ctx context.Context, date string) (*models.SpecialDay, error) {
	var day models.SpecialDay
	err := b.pool.QueryRow(ctx,
		`SELECT day, name, description FROM special_days WHERE day = $1`,
		date,
	).Scan(&day.Date, &day.Name, &day.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("special day %s: %w", date, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch special day: %w", err)
	}
	return &day, nil
}

func (b *Backend) Close() {
	b.pool.Close()
}
