package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireCompanyPostingLock serializes settlement posting per company across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same *gorm.DB that will do the posting transaction.
func AcquireCompanyPostingLock(tx *gorm.DB, companyId int) error {
	lockName := fmt.Sprintf("posting:%d", companyId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for company_id=%d", companyId)
	}
	return nil
}

func ReleaseCompanyPostingLock(tx *gorm.DB, companyId int) {
	lockName := fmt.Sprintf("posting:%d", companyId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
