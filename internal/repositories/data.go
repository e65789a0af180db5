package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/jobs-finder/internal/entities"
	"github.com/maxaizer/jobs-finder/internal/logger"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"time"
)

const dataOperationTimeout = 3 * time.Second

// Data is the sqlite backed KeyValueStore.
type Data struct {
	db *gorm.DB
}

func NewDataRepository(db *gorm.DB) *Data {
	return &Data{db: db}
}

func (repo *Data) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), dataOperationTimeout)
	defer cancel()

	var value entities.StoredValue
	err := repo.db.WithContext(ctx).First(&value, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).Errorf("failed to load %q: %v", key, err)
		}
		return "", false
	}
	return value.Value, true
}

func (repo *Data) Set(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), dataOperationTimeout)
	defer cancel()

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entities.StoredValue{Key: key, Value: value}).Error
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).Errorf("failed to save %q: %v", key, err)
	}
}

func (repo *Data) Remove(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), dataOperationTimeout)
	defer cancel()

	err := repo.db.WithContext(ctx).Delete(&entities.StoredValue{}, "key = ?", key).Error
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).Errorf("failed to remove %q: %v", key, err)
	}
}
