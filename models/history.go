package models

import (
	"context"
	"time"

	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/utils"
	"gorm.io/gorm"
)

// History records every mutation against the authoritative store. Rows are
// written in the same transaction as the mutation they describe.
type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   string    `gorm:"size:36;index" json:"reference_id"`
	ReferenceType string    `gorm:"size:255" json:"reference_type"`
	UserName      string    `gorm:"size:100" json:"user_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func createHistory(tx *gorm.DB, ctx context.Context, actionType, referenceId, referenceType, description string) error {
	userName, ok := utils.GetUsernameFromContext(ctx)
	if !ok || userName == "" {
		userName = "system"
	}

	history := History{
		ActionType:    actionType,
		Description:   description,
		ReferenceID:   referenceId,
		ReferenceType: referenceType,
		UserName:      userName,
	}
	return tx.Create(&history).Error
}

func GetHistories(ctx context.Context, referenceId *string, userName *string, limit int) ([]*History, error) {
	db := config.GetDB()
	var results []*History

	dbCtx := db.WithContext(ctx).Model(&History{})
	if referenceId != nil && *referenceId != "" {
		dbCtx = dbCtx.Where("reference_id = ?", *referenceId)
	}
	if userName != nil && *userName != "" {
		dbCtx = dbCtx.Where("user_name = ?", *userName)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	err := dbCtx.Order("created_at DESC").Limit(limit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
