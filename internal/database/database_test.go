package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
)

type widget struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"unique;not null"`
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil, "find widget", "widget", 1))
	assert.True(t, apperr.IsNotFound(Translate(gorm.ErrRecordNotFound, "find widget", "widget", 1)))
	assert.True(t, apperr.IsConflict(Translate(gorm.ErrDuplicatedKey, "create widget", "widget", nil)))

	forbidden := apperr.Forbidden("not authorized")
	assert.Same(t, forbidden, Translate(forbidden, "update widget", "widget", 1))

	err := Translate(errors.New("connection reset"), "find widget", "widget", 1)
	assert.ErrorIs(t, err, apperr.ErrDependency)
}

func TestOpenTranslatesDuplicateKeys(t *testing.T) {
	db, err := OpenMemory(&widget{})
	require.NoError(t, err)

	require.NoError(t, db.Create(&widget{Name: "a"}).Error)
	err = db.Create(&widget{Name: "a"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMigrateWithoutConnection(t *testing.T) {
	assert.Error(t, Migrate(nil, &widget{}))
}
