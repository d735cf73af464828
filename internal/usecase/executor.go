package usecase

import "github.com/jackc/pgx/v4"

// defaultTxOptions keeps use cases on ReadCommitted unless a flow
// needs stricter isolation.
func defaultTxOptions() pgx.TxOptions { return pgx.TxOptions{} }
