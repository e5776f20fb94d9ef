package categoryRepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"servimatch/models"
	"servimatch/utils"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrCategoryNotFound is returned when the category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// CategoryDirectory resolves category names for response enrichment.
type CategoryDirectory interface {
	GetName(ctx context.Context, categoryID int64) (string, error)
}

// MongoCategoryRepo reads the "categories" collection.
type MongoCategoryRepo struct {
	coll *mongo.Collection
}

func NewMongoCategoryRepo(db *mongo.Database) *MongoCategoryRepo {
	return &MongoCategoryRepo{coll: db.Collection("categories")}
}

func (r *MongoCategoryRepo) GetName(ctx context.Context, categoryID int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	var category models.Category
	if err := r.coll.FindOne(ctx, bson.M{"id": categoryID}).Decode(&category); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrCategoryNotFound
		}
		return "", fmt.Errorf("failed to fetch category %d: %w", categoryID, err)
	}
	return category.Name, nil
}

// CachedCategoryDirectory fronts another directory with Redis.
// A nil cache client disables caching.
type CachedCategoryDirectory struct {
	next  CategoryDirectory
	cache *redis.Client
}

func NewCachedCategoryDirectory(next CategoryDirectory, cache *redis.Client) *CachedCategoryDirectory {
	return &CachedCategoryDirectory{next: next, cache: cache}
}

func (d *CachedCategoryDirectory) GetName(ctx context.Context, categoryID int64) (string, error) {
	if d.cache == nil {
		return d.next.GetName(ctx, categoryID)
	}

	key := utils.CategoryCachePrefix + strconv.FormatInt(categoryID, 10)
	name, err := d.cache.Get(ctx, key).Result()
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, redis.Nil) {
		utils.GetLogger().Warn("Category cache read failed", zap.Int64("categoryId", categoryID), zap.Error(err))
	}

	name, err = d.next.GetName(ctx, categoryID)
	if err != nil {
		return "", err
	}
	if err := d.cache.Set(ctx, key, name, utils.CategoryCacheTTL).Err(); err != nil {
		utils.GetLogger().Warn("Category cache write failed", zap.Int64("categoryId", categoryID), zap.Error(err))
	}
	return name, nil
}
