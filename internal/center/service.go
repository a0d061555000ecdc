package center

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/SultokTheF/uiren-mobile/internal/api"
	"github.com/SultokTheF/uiren-mobile/internal/logger"
)

const (
	centersPath    = "api/centers/"
	sectionsPath   = "api/sections/"
	categoriesPath = "api/section-categories/"
)

type Service struct {
	client api.Doer
	cache  *Cache
}

// NewService builds the catalog service. cache may be nil; browsing then
// works online only.
func NewService(client api.Doer, cache *Cache) *Service {
	return &Service{client: client, cache: cache}
}

// Centers lists all activity centers. On a network failure the last cached
// catalog is served instead, so the list survives offline use.
func (s *Service) Centers(ctx context.Context) ([]Center, error) {
	var centers []Center
	if err := s.client.Get(ctx, centersPath, nil, &centers); err != nil {
		if cached, ok := s.cachedCenters(ctx, err); ok {
			return cached, nil
		}
		return nil, fmt.Errorf("failed to fetch centers: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.StoreCenters(ctx, centers); err != nil {
			logger.Errorf("Failed to cache centers: %v", err)
		}
	}
	return centers, nil
}

// Sections lists sections, optionally filtered to one center (0 means all).
func (s *Service) Sections(ctx context.Context, centerID int) ([]Section, error) {
	query := url.Values{}
	query.Set("page", "all")
	if centerID > 0 {
		query.Set("center", strconv.Itoa(centerID))
	}

	var sections []Section
	if err := s.client.Get(ctx, sectionsPath, query, &sections); err != nil {
		if s.cache != nil && isOffline(err) && centerID == 0 {
			if cached, cacheErr := s.cache.Sections(ctx); cacheErr == nil && len(cached) > 0 {
				logger.Debug("Serving sections from offline cache")
				return cached, nil
			}
		}
		return nil, fmt.Errorf("failed to fetch sections: %w", err)
	}

	if s.cache != nil && centerID == 0 {
		if err := s.cache.StoreSections(ctx, sections); err != nil {
			logger.Errorf("Failed to cache sections: %v", err)
		}
	}
	return sections, nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.client.Get(ctx, categoriesPath, nil, &categories); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

func (s *Service) CenterByID(ctx context.Context, id int) (*Center, error) {
	var center Center
	path := fmt.Sprintf("%s%d/", centersPath, id)
	if err := s.client.Get(ctx, path, nil, &center); err != nil {
		return nil, fmt.Errorf("failed to fetch center %d: %w", id, err)
	}
	return &center, nil
}

func (s *Service) SectionByID(ctx context.Context, id int) (*Section, error) {
	var section Section
	path := fmt.Sprintf("%s%d/", sectionsPath, id)
	if err := s.client.Get(ctx, path, nil, &section); err != nil {
		return nil, fmt.Errorf("failed to fetch section %d: %w", id, err)
	}
	return &section, nil
}

func (s *Service) cachedCenters(ctx context.Context, cause error) ([]Center, bool) {
	if s.cache == nil || !isOffline(cause) {
		return nil, false
	}
	cached, err := s.cache.Centers(ctx)
	if err != nil || len(cached) == 0 {
		return nil, false
	}
	logger.Debug("Serving centers from offline cache")
	return cached, true
}

// isOffline reports whether the failure was transport-level rather than a
// backend answer. Only those fall back to the cache; HTTP errors surface.
func isOffline(err error) bool {
	var netErr *api.NetworkError
	return errors.As(err, &netErr) || errors.Is(err, api.ErrTimeout)
}
