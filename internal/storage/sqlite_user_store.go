package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/afcpln/listingnet/internal/models"
)

// SQLiteUserStore implements UserStore backed by SQLite.
type SQLiteUserStore struct {
	db *sql.DB
}

// NewSQLiteUserStore returns a new SQLiteUserStore.
func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

// SaveUser upserts the user row and rewrites its saved searches in one transaction.
func (s *SQLiteUserStore) SaveUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	for _, search := range user.SavedSearches {
		if err := search.Validate(); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save user: %w", err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("failed to rollback save user %s: %v", user.ID, rbErr)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, full_name, email, role, company, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			email = excluded.email,
			role = excluded.role,
			company = excluded.company,
			updated_at = excluded.updated_at`,
		user.ID, user.FullName, user.Email, user.Role, user.Company, now, now,
	)
	if err != nil {
		rollback()
		return fmt.Errorf("upserting user %s: %w", user.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM saved_searches WHERE user_id = ?", user.ID); err != nil {
		rollback()
		return fmt.Errorf("clearing saved searches for %s: %w", user.ID, err)
	}

	for i := range user.SavedSearches {
		search := &user.SavedSearches[i]
		if search.ID == "" {
			search.ID = uuid.NewString()
		}
		if search.CreatedAt.IsZero() {
			search.CreatedAt = now
		}
		if err := insertSavedSearch(ctx, tx, user.ID, i, search); err != nil {
			rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save user %s: %w", user.ID, err)
	}
	return nil
}

func insertSavedSearch(ctx context.Context, tx *sql.Tx, userID string, position int, s *models.SavedSearch) error {
	areas, err := json.Marshal(nonNil(s.Areas))
	if err != nil {
		return fmt.Errorf("encoding areas: %w", err)
	}
	keywords, err := json.Marshal(nonNil(s.Keywords))
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}

	var minBedrooms sql.NullInt64
	if s.MinBedrooms != nil {
		minBedrooms = sql.NullInt64{Int64: int64(*s.MinBedrooms), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO saved_searches
			(id, user_id, position, name, areas, min_price, max_price, min_bedrooms, min_bathrooms, keywords, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, userID, position, s.Name, string(areas),
		nullFloat(s.MinPrice), nullFloat(s.MaxPrice), minBedrooms, nullFloat(s.MinBathrooms),
		string(keywords), s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting saved search %q: %w", s.Name, err)
	}
	return nil
}

// FindUserByID returns the user and its saved searches.
func (s *SQLiteUserStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, full_name, email, role, company FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.Company)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %q: %w", id, err)
	}

	searches, err := s.searchesFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	u.SavedSearches = searches[id]
	return &u, nil
}

// FindUsersWithSavedSearches returns buyer accounts that hold at least one
// saved search, ordered by id.
func (s *SQLiteUserStore) FindUsersWithSavedSearches(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.full_name, u.email, u.role, u.company
		FROM users u
		WHERE u.role = ?
		  AND EXISTS (SELECT 1 FROM saved_searches ss WHERE ss.user_id = u.id)
		ORDER BY u.id`, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("querying users with saved searches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*models.User
	ids := make([]string, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.Company); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, &u)
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	if len(users) == 0 {
		return users, nil
	}

	searches, err := s.searchesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.SavedSearches = searches[u.ID]
	}
	return users, nil
}

// searchesFor loads the saved searches of the given users keyed by user id.
func (s *SQLiteUserStore) searchesFor(ctx context.Context, userIDs []string) (map[string][]models.SavedSearch, error) {
	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}

	query := `
		SELECT user_id, id, name, areas, min_price, max_price, min_bedrooms, min_bathrooms, keywords, created_at
		FROM saved_searches
		ORDER BY user_id, position`
	args := []any{}
	if len(userIDs) == 1 {
		query = `
		SELECT user_id, id, name, areas, min_price, max_price, min_bedrooms, min_bathrooms, keywords, created_at
		FROM saved_searches
		WHERE user_id = ?
		ORDER BY position`
		args = append(args, userIDs[0])
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying saved searches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]models.SavedSearch, len(userIDs))
	for rows.Next() {
		var (
			userID, areas, keywords      string
			minPrice, maxPrice, minBaths sql.NullFloat64
			minBeds                      sql.NullInt64
			ss                           models.SavedSearch
		)
		if err := rows.Scan(&userID, &ss.ID, &ss.Name, &areas, &minPrice, &maxPrice,
			&minBeds, &minBaths, &keywords, &ss.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning saved search row: %w", err)
		}
		if _, ok := wanted[userID]; !ok {
			continue
		}
		if err := json.Unmarshal([]byte(areas), &ss.Areas); err != nil {
			return nil, fmt.Errorf("decoding areas of saved search %s: %w", ss.ID, err)
		}
		if err := json.Unmarshal([]byte(keywords), &ss.Keywords); err != nil {
			return nil, fmt.Errorf("decoding keywords of saved search %s: %w", ss.ID, err)
		}
		ss.MinPrice = floatPtr(minPrice)
		ss.MaxPrice = floatPtr(maxPrice)
		ss.MinBathrooms = floatPtr(minBaths)
		if minBeds.Valid {
			v := int(minBeds.Int64)
			ss.MinBedrooms = &v
		}
		out[userID] = append(out[userID], ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saved search rows: %w", err)
	}
	return out, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
