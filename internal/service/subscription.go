package service

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// FollowedAuthor is an author in a subscription listing. Recipes may be
// capped; RecipesCount is always the author's full total.
type FollowedAuthor struct {
	Author       models.User
	Recipes      []models.Recipe
	RecipesCount int64
}

// NoRecipesLimit lists every recipe of a followed author
const NoRecipesLimit = -1

// SubscriptionService manages follow relations between users
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Follow subscribes the requester to authorID and returns the author view
func (s *SubscriptionService) Follow(ctx context.Context, requester types.Requester, authorID uint, recipesLimit int) (*FollowedAuthor, error) {
	if requester.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if requester.UserID == authorID {
		return nil, Validation("you cannot follow yourself")
	}

	author, err := s.user(ctx, authorID)
	if err != nil {
		return nil, err
	}

	following, err := s.IsSubscribed(ctx, requester, authorID)
	if err != nil {
		return nil, err
	}
	if following {
		return nil, Validation("you are already following this user")
	}

	follow := &models.Follow{UserID: requester.UserID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(follow).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, Validation("you are already following this user")
		}
		return nil, errors.Wrap(err, "create follow")
	}
	log.WithFields(log.Fields{"user_id": requester.UserID, "author_id": authorID}).Debug("follow created")

	views, err := s.annotate(ctx, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unfollow removes the requester's subscription to authorID
func (s *SubscriptionService) Unfollow(ctx context.Context, requester types.Requester, authorID uint) error {
	if requester.IsAnonymous() {
		return ErrUnauthenticated
	}
	if _, err := s.user(ctx, authorID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", requester.UserID, authorID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete follow")
	}
	if result.RowsAffected == 0 {
		return &Error{Kind: KindNotFound, Message: "you are not following this user"}
	}
	return nil
}

// ListFollowed returns one page of the authors the requester follows
func (s *SubscriptionService) ListFollowed(ctx context.Context, requester types.Requester, page types.Pagination, recipesLimit int) ([]FollowedAuthor, int64, error) {
	if requester.IsAnonymous() {
		return nil, 0, ErrUnauthenticated
	}

	followed := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.User{}).
			Joins("JOIN follows ON follows.author_id = users.id").
			Where("follows.user_id = ?", requester.UserID)
	}

	var total int64
	if err := followed().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count followed authors")
	}

	var authors []models.User
	query := followed().Order("users.id ASC")
	if page.Limit > 0 {
		query = query.Limit(page.Limit).Offset(page.Offset())
	}
	if err := query.Find(&authors).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list followed authors")
	}

	views, err := s.annotate(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// IsSubscribed reports whether the requester follows authorID; false for anonymous
func (s *SubscriptionService) IsSubscribed(ctx context.Context, requester types.Requester, authorID uint) (bool, error) {
	if requester.IsAnonymous() {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", requester.UserID, authorID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "check follow")
	}
	return count > 0, nil
}

// FollowedAuthorIDs returns which of authorIDs the requester follows, in one query
func (s *SubscriptionService) FollowedAuthorIDs(ctx context.Context, requester types.Requester, authorIDs []uint) (map[uint]bool, error) {
	followed := make(map[uint]bool)
	if requester.IsAnonymous() || len(authorIDs) == 0 {
		return followed, nil
	}

	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id IN ?", requester.UserID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "load follows")
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}

// annotate loads recipe counts and (optionally capped) recipes for all
// authors with one query each. A zero limit loads no recipes.
func (s *SubscriptionService) annotate(ctx context.Context, authors []models.User, recipesLimit int) ([]FollowedAuthor, error) {
	if len(authors) == 0 {
		return []FollowedAuthor{}, nil
	}

	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}

	var counts []struct {
		AuthorID uint
		Total    int64
	}
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error
	if err != nil {
		return nil, errors.Wrap(err, "count author recipes")
	}
	totals := make(map[uint]int64, len(counts))
	for _, c := range counts {
		totals[c.AuthorID] = c.Total
	}

	var recipes []models.Recipe
	switch {
	case recipesLimit == 0:
	case recipesLimit > 0:
		err = s.db.WithContext(ctx).Raw(`
			SELECT id, author_id, name, image, cooking_time
			FROM (
				SELECT recipes.*, ROW_NUMBER() OVER (
					PARTITION BY author_id ORDER BY created_at DESC, id DESC
				) AS position
				FROM recipes
				WHERE author_id IN ?
			) ranked
			WHERE position <= ?
			ORDER BY author_id, created_at DESC, id DESC`, ids, recipesLimit).
			Scan(&recipes).Error
	default:
		err = s.db.WithContext(ctx).
			Where("author_id IN ?", ids).
			Order("created_at DESC, id DESC").
			Find(&recipes).Error
	}
	if err != nil {
		return nil, errors.Wrap(err, "load author recipes")
	}

	byAuthor := make(map[uint][]models.Recipe, len(authors))
	for _, r := range recipes {
		byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], r)
	}

	views := make([]FollowedAuthor, len(authors))
	for i, a := range authors {
		views[i] = FollowedAuthor{
			Author:       a,
			Recipes:      byAuthor[a.ID],
			RecipesCount: totals[a.ID],
		}
	}
	return views, nil
}

func (s *SubscriptionService) user(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("user")
		}
		return nil, errors.Wrap(err, "get user")
	}
	return &user, nil
}
