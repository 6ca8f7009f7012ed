// Package postgres implements the canonical property store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
)

const recentSearchLimit = 20

const propertySelect = `
	SELECT p.id, p.title, p.description, p.price, p.currency,
	       p.property_type, p.listing_type, p.status,
	       p.bedrooms, p.bathrooms, p.floor_area,
	       p.street, p.city, p.postcode, p.county, p.country,
	       p.latitude, p.longitude,
	       p.view_count, p.created_at, p.updated_at, p.published_at,
	       u.id, u.name
	FROM properties p
	JOIN users u ON u.id = p.owner_id`

// Store reads denormalized property and user views from PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// New connects a pool to the canonical database and verifies connectivity.
func New(ctx context.Context, cfg *config.PostgresConfig, log logger.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Info("Connected to postgres")
	return &Store{pool: pool, logger: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetPropertyByID returns the denormalized view of one property. A
// syntactically invalid id resolves to not-found without touching the
// database.
func (s *Store) GetPropertyByID(ctx context.Context, id string) (*domain.PropertyDocument, error) {
	propertyID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrPropertyNotFound
	}

	row := s.pool.QueryRow(ctx, propertySelect+" WHERE p.id = $1", propertyID)
	doc, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("failed to query property %s: %w", id, err)
	}

	if err := s.attachDetails(ctx, map[string]*domain.PropertyDocument{doc.ID: doc}); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListEligibleProperties returns every property in an index-eligible status,
// fully denormalized. Used by full index rebuilds.
func (s *Store) ListEligibleProperties(ctx context.Context) ([]domain.PropertyDocument, error) {
	rows, err := s.pool.Query(ctx, propertySelect+" WHERE p.status = ANY($1) ORDER BY p.id", domain.EligibleStatuses())
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible properties: %w", err)
	}
	defer rows.Close()

	var docs []domain.PropertyDocument
	byID := make(map[string]*domain.PropertyDocument)
	for rows.Next() {
		doc, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	for i := range docs {
		byID[docs[i].ID] = &docs[i]
	}
	if err := s.attachDetails(ctx, byID); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetUserProfile returns a user's preferences, fully denormalized favorites,
// and most recent saved searches, newest first.
func (s *Store) GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	profile := &domain.UserProfile{UserID: userID}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, uid).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to query user %s: %w", userID, err)
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	err = s.pool.QueryRow(ctx,
		`SELECT property_types, price_min, price_max FROM user_preferences WHERE user_id = $1`, uid,
	).Scan(&profile.Preferences.PropertyTypes, &profile.Preferences.PriceMin, &profile.Preferences.PriceMax)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to query preferences for user %s: %w", userID, err)
	}

	favorites, err := s.loadFavorites(ctx, uid)
	if err != nil {
		return nil, err
	}
	profile.Favorites = favorites

	searches, err := s.loadRecentSearches(ctx, uid)
	if err != nil {
		return nil, err
	}
	profile.RecentSearches = searches

	return profile, nil
}

func (s *Store) loadFavorites(ctx context.Context, userID uuid.UUID) ([]domain.PropertyDocument, error) {
	rows, err := s.pool.Query(ctx, propertySelect+`
		JOIN user_favorites f ON f.property_id = p.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites for user %s: %w", userID, err)
	}
	defer rows.Close()

	var docs []domain.PropertyDocument
	for rows.Next() {
		doc, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite rows: %w", err)
	}

	byID := make(map[string]*domain.PropertyDocument, len(docs))
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
	}
	if err := s.attachDetails(ctx, byID); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) loadRecentSearches(ctx context.Context, userID uuid.UUID) ([]domain.SavedSearch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT COALESCE(property_type, ''), COALESCE(listing_type, ''), COALESCE(city, ''), ran_at
		 FROM saved_searches WHERE user_id = $1 ORDER BY ran_at DESC LIMIT $2`,
		userID, recentSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved searches for user %s: %w", userID, err)
	}
	defer rows.Close()

	var searches []domain.SavedSearch
	for rows.Next() {
		var search domain.SavedSearch
		if err := rows.Scan(&search.PropertyType, &search.ListingType, &search.City, &search.RanAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved search row: %w", err)
		}
		searches = append(searches, search)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved search rows: %w", err)
	}
	return searches, nil
}

// attachDetails loads features, amenities, and images for a batch of
// properties with one grouped query per relation.
func (s *Store) attachDetails(ctx context.Context, byID map[string]*domain.PropertyDocument) error {
	if len(byID) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(byID))
	for id := range byID {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("invalid property id %q in result set: %w", id, err)
		}
		ids = append(ids, parsed)
	}

	if err := s.attachFeatures(ctx, byID, ids); err != nil {
		return err
	}
	if err := s.attachAmenities(ctx, byID, ids); err != nil {
		return err
	}
	return s.attachImages(ctx, byID, ids)
}

func (s *Store) attachFeatures(ctx context.Context, byID map[string]*domain.PropertyDocument, ids []uuid.UUID) error {
	rows, err := s.pool.Query(ctx,
		`SELECT property_id, name, value FROM property_features WHERE property_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to query property features: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var propertyID uuid.UUID
		var name string
		var value bool
		if err := rows.Scan(&propertyID, &name, &value); err != nil {
			return fmt.Errorf("failed to scan feature row: %w", err)
		}
		doc := byID[propertyID.String()]
		if doc.Features == nil {
			doc.Features = make(map[string]bool)
		}
		doc.Features[name] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating feature rows: %w", err)
	}
	return nil
}

func (s *Store) attachAmenities(ctx context.Context, byID map[string]*domain.PropertyDocument, ids []uuid.UUID) error {
	rows, err := s.pool.Query(ctx,
		`SELECT property_id, name FROM property_amenities WHERE property_id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return fmt.Errorf("failed to query property amenities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var propertyID uuid.UUID
		var name string
		if err := rows.Scan(&propertyID, &name); err != nil {
			return fmt.Errorf("failed to scan amenity row: %w", err)
		}
		doc := byID[propertyID.String()]
		doc.Amenities = append(doc.Amenities, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating amenity rows: %w", err)
	}
	return nil
}

func (s *Store) attachImages(ctx context.Context, byID map[string]*domain.PropertyDocument, ids []uuid.UUID) error {
	rows, err := s.pool.Query(ctx,
		`SELECT property_id, url, is_main FROM property_images WHERE property_id = ANY($1) ORDER BY position`, ids)
	if err != nil {
		return fmt.Errorf("failed to query property images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var propertyID uuid.UUID
		var img domain.Image
		if err := rows.Scan(&propertyID, &img.URL, &img.IsMain); err != nil {
			return fmt.Errorf("failed to scan image row: %w", err)
		}
		doc := byID[propertyID.String()]
		doc.Images = append(doc.Images, img)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating image rows: %w", err)
	}
	return nil
}

// scanProperty scans one base property row. Features, amenities, and images
// are attached separately.
func scanProperty(row pgx.Row) (*domain.PropertyDocument, error) {
	var doc domain.PropertyDocument
	var id, ownerID uuid.UUID
	var lat, lon *float64

	err := row.Scan(
		&id, &doc.Title, &doc.Description, &doc.Price, &doc.Currency,
		&doc.PropertyType, &doc.ListingType, &doc.Status,
		&doc.Bedrooms, &doc.Bathrooms, &doc.FloorArea,
		&doc.Address.Street, &doc.Address.City, &doc.Address.Postcode,
		&doc.Address.County, &doc.Address.Country,
		&lat, &lon,
		&doc.ViewCount, &doc.CreatedAt, &doc.UpdatedAt, &doc.PublishedAt,
		&ownerID, &doc.Owner.Name,
	)
	if err != nil {
		return nil, err
	}

	doc.ID = id.String()
	doc.Owner.ID = ownerID.String()
	if lat != nil && lon != nil {
		doc.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
	}
	return &doc, nil
}
