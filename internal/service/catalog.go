package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

var (
	tagColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	tagSlugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// CatalogService serves tag and ingredient reference data
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, errors.Wrap(err, "list tags")
	}
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("tag")
		}
		return nil, errors.Wrap(err, "get tag")
	}
	return &tag, nil
}

// ListIngredients returns ingredients whose name starts with prefix,
// ignoring case. An empty prefix returns everything.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name ASC, id ASC")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		pattern := escapeLike(prefix) + "%"
		if s.db.Dialector.Name() == "postgres" {
			query = query.Where("name ILIKE ? ESCAPE '\\'", pattern)
		} else {
			// sqlite folds ASCII letters only
			query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", strings.ToLower(pattern))
		}
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, errors.Wrap(err, "list ingredients")
	}
	return ingredients, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("ingredient")
		}
		return nil, errors.Wrap(err, "get ingredient")
	}
	return &ingredient, nil
}

// ValidateTag checks the color and slug formats of tag
func ValidateTag(tag *models.Tag) error {
	if strings.TrimSpace(tag.Name) == "" {
		return Validation("tag name is required")
	}
	if !tagColorPattern.MatchString(tag.Color) {
		return Validation("tag color %q must be a #RRGGBB hex value", tag.Color)
	}
	if !tagSlugPattern.MatchString(tag.Slug) {
		return Validation("tag slug %q may only contain letters, digits, hyphens and underscores", tag.Slug)
	}
	return nil
}

// LoadTags inserts tags, skipping ones that already exist, and returns the
// number of new rows
func (s *CatalogService) LoadTags(ctx context.Context, tags []models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	for i := range tags {
		if err := ValidateTag(&tags[i]); err != nil {
			return 0, err
		}
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tags)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "load tags")
	}
	return result.RowsAffected, nil
}

// LoadIngredients inserts ingredients, skipping (name, unit) pairs that
// already exist, and returns the number of new rows
func (s *CatalogService) LoadIngredients(ctx context.Context, ingredients []models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	for _, ingredient := range ingredients {
		if strings.TrimSpace(ingredient.Name) == "" || strings.TrimSpace(ingredient.MeasurementUnit) == "" {
			return 0, Validation("ingredient name and measurement unit are required")
		}
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredients, 500)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "load ingredients")
	}
	return result.RowsAffected, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
