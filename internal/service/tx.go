package service

import (
	"database/sql"

	"gorm.io/gorm"
)

// txRunner is the transaction boundary the services run their mutations
// through. *gorm.DB satisfies it; tests swap in an in-memory runner.
type txRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}
