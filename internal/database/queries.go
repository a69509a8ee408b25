package database

// Deposit request queries.
const (
	queryInsertDepositRequest = `
		INSERT INTO deposit_requests (user_id, amount_vnd, transfer_content, qr_code, note, status, created_at)
		VALUES (?, ?, ?, ?, ?, 'PENDING', ?)`

	queryGetDepositRequest = `
		SELECT id, user_id, amount_vnd, transfer_content, qr_code, note, status, admin_note, decided_at, created_at
		FROM deposit_requests WHERE id = ?`

	queryPendingDepositRequests = `
		SELECT id, user_id, amount_vnd, transfer_content, qr_code, note, status, admin_note, decided_at, created_at
		FROM deposit_requests WHERE status = 'PENDING' ORDER BY created_at`

	// The WHERE status = 'PENDING' clause is the monotonicity guard: zero
	// rows affected means the request already reached a terminal state.
	queryDecideDepositRequest = `
		UPDATE deposit_requests SET status = ?, admin_note = ?, decided_at = ?
		WHERE id = ? AND status = 'PENDING'`
)

// Wallet queries.
const (
	queryGetWalletBalance = `SELECT balance_vnd FROM wallets WHERE user_id = ?`

	queryListWallets = `SELECT user_id, balance_vnd, updated_at FROM wallets ORDER BY user_id`

	queryUpsertWalletCredit = `
		INSERT INTO wallets (user_id, balance_vnd, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET balance_vnd = balance_vnd + excluded.balance_vnd, updated_at = excluded.updated_at`

	// Debits require an existing row with sufficient balance; zero rows
	// affected means the movement would break the non-negative invariant.
	queryDebitWallet = `
		UPDATE wallets SET balance_vnd = balance_vnd + ?, updated_at = ?
		WHERE user_id = ? AND balance_vnd + ? >= 0`

	queryInsertWalletTransaction = `
		INSERT INTO wallet_transactions (id, user_id, type, amount_vnd, balance_after_vnd, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryWalletHistory = `
		SELECT id, user_id, type, amount_vnd, balance_after_vnd, description, created_at
		FROM wallet_transactions WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
)

// Bank config queries.
const (
	queryListBankConfigs = `
		SELECT id, name, enabled, endpoint, method, headers, auth_token, api_key,
		       array_path, amount_path, content_path, reference_path, timestamp_path,
		       filter_field, filter_condition, filter_value, created_at, updated_at
		FROM bank_configs ORDER BY name`

	queryListEnabledBankConfigs = `
		SELECT id, name, enabled, endpoint, method, headers, auth_token, api_key,
		       array_path, amount_path, content_path, reference_path, timestamp_path,
		       filter_field, filter_condition, filter_value, created_at, updated_at
		FROM bank_configs WHERE enabled = 1 ORDER BY name`

	queryDeleteBankConfigs = `DELETE FROM bank_configs`

	queryInsertBankConfig = `
		INSERT INTO bank_configs (id, name, enabled, endpoint, method, headers, auth_token, api_key,
		                          array_path, amount_path, content_path, reference_path, timestamp_path,
		                          filter_field, filter_condition, filter_value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// Bonus tier queries.
const (
	queryListBonusTiers = `
		SELECT id, min_amount_vnd, max_amount_vnd, bonus_percent, position
		FROM bonus_tiers ORDER BY position, min_amount_vnd`

	queryDeleteBonusTiers = `DELETE FROM bonus_tiers`

	queryInsertBonusTier = `
		INSERT INTO bonus_tiers (id, min_amount_vnd, max_amount_vnd, bonus_percent, position)
		VALUES (?, ?, ?, ?, ?)`
)

// Audit log queries.
const (
	queryCheckSettledReference = `
		SELECT id FROM auto_topup_logs
		WHERE bank_config_id = ? AND bank_reference = ? AND outcome = 'SETTLED' LIMIT 1`

	queryInsertTopupLog = `
		INSERT INTO auto_topup_logs (id, bank_config_id, bank_name, bank_reference, deposit_id, user_id,
		                             amount_vnd, bonus_vnd, outcome, detail, transaction_time, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListTopupLogs = `
		SELECT id, bank_config_id, bank_name, bank_reference, deposit_id, user_id,
		       amount_vnd, bonus_vnd, outcome, detail, transaction_time, processed_at
		FROM auto_topup_logs ORDER BY processed_at DESC LIMIT ?`
)
