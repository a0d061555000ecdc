package center

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Cache stores the last successfully fetched catalog in the local database so
// browsing keeps working without a connection.
type Cache struct {
	db *sqlx.DB
}

func NewCache(db *sqlx.DB) *Cache {
	return &Cache{db: db}
}

func (c *Cache) put(ctx context.Context, kind string, id int, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO catalog_cache (kind, id, payload, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		kind, id, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to cache %s %d: %w", kind, id, err)
	}
	return nil
}

func (c *Cache) StoreCenters(ctx context.Context, centers []Center) error {
	for _, center := range centers {
		if err := c.put(ctx, "center", center.ID, center); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) StoreSections(ctx context.Context, sections []Section) error {
	for _, section := range sections {
		if err := c.put(ctx, "section", section.ID, section); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) Centers(ctx context.Context) ([]Center, error) {
	var payloads []string
	err := c.db.SelectContext(ctx, &payloads,
		`SELECT payload FROM catalog_cache WHERE kind = 'center' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached centers: %w", err)
	}

	centers := make([]Center, 0, len(payloads))
	for _, p := range payloads {
		var center Center
		if err := json.Unmarshal([]byte(p), &center); err != nil {
			continue
		}
		centers = append(centers, center)
	}
	return centers, nil
}

func (c *Cache) Sections(ctx context.Context) ([]Section, error) {
	var payloads []string
	err := c.db.SelectContext(ctx, &payloads,
		`SELECT payload FROM catalog_cache WHERE kind = 'section' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached sections: %w", err)
	}

	sections := make([]Section, 0, len(payloads))
	for _, p := range payloads {
		var section Section
		if err := json.Unmarshal([]byte(p), &section); err != nil {
			continue
		}
		sections = append(sections, section)
	}
	return sections, nil
}
