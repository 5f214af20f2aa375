package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The like, mute and viewer tables are (submission_id, user_id) sets. These
// helpers keep the three repos in step: inserts are idempotent and removals
// of absent members are no-ops.

func insertMember(db *gorm.DB, row interface{}) (bool, error) {
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func deleteMember(db *gorm.DB, model interface{}, submissionID, userID uuid.UUID) (bool, error) {
	res := db.Where("submission_id = ? AND user_id = ?", submissionID, userID).Delete(model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func deleteAllMembers(db *gorm.DB, model interface{}, submissionID uuid.UUID) (int64, error) {
	res := db.Where("submission_id = ?", submissionID).Delete(model)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func countMembers(db *gorm.DB, model interface{}, submissionID uuid.UUID) (int64, error) {
	var n int64
	if err := db.Model(model).Where("submission_id = ?", submissionID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func hasMember(db *gorm.DB, model interface{}, submissionID, userID uuid.UUID) (bool, error) {
	var n int64
	if err := db.Model(model).
		Where("submission_id = ? AND user_id = ?", submissionID, userID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func listMemberIDs(db *gorm.DB, model interface{}, submissionID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if err := db.Model(model).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Pluck("user_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func nowUTC() time.Time { return time.Now().UTC() }
