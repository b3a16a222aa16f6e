package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			main_currency_id INTEGER,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// user_id NULL means the currency is global.
		`CREATE TABLE IF NOT EXISTS currencies (
			id SERIAL PRIMARY KEY,
			user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			symbol TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_currencies_global_name
			ON currencies(name) WHERE user_id IS NULL`,

		`CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			currency_id INTEGER NOT NULL REFERENCES currencies(id) ON DELETE RESTRICT,
			decimal_places INTEGER NOT NULL DEFAULT 2,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_currency_id ON accounts(currency_id)`,

		// user_id NULL means the category is global (read-only to users).
		`CREATE TABLE IF NOT EXISTS categories (
			id SERIAL PRIMARY KEY,
			user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'expense',
			parent_id INTEGER REFERENCES categories(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_global_name
			ON categories(name) WHERE user_id IS NULL`,

		// Single table for all transaction variants. kind discriminates
		// plain entries, exchange legs and commissions; the variant columns
		// are NULL for other kinds. Amounts are integers scaled by the
		// account's decimal places.
		`CREATE TABLE IF NOT EXISTS transactions (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE RESTRICT,
			category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
			amount BIGINT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TIMESTAMPTZ NOT NULL,
			to_main_currency_amount BIGINT,
			kind TEXT NOT NULL DEFAULT 'plain',
			exchange_type TEXT,
			related_transaction_id INTEGER REFERENCES transactions(id) ON DELETE CASCADE,
			commission_type TEXT,
			exchange_from_id INTEGER REFERENCES transactions(id) ON DELETE CASCADE,
			exchange_to_id INTEGER REFERENCES transactions(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_kind ON transactions(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_category_id ON transactions(category_id)`,

		// Append-only rate history. A new rate is a new row.
		`CREATE TABLE IF NOT EXISTS conversion_rates (
			id SERIAL PRIMARY KEY,
			user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			from_currency_id INTEGER NOT NULL REFERENCES currencies(id) ON DELETE CASCADE,
			to_currency_id INTEGER NOT NULL REFERENCES currencies(id) ON DELETE CASCADE,
			source TEXT NOT NULL DEFAULT 'paralelo',
			rate DOUBLE PRECISION NOT NULL,
			date TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversion_rates_pair_date
			ON conversion_rates(from_currency_id, to_currency_id, date DESC)`,

		// The unique keys make report lookup-or-create atomic; the
		// duplicate-cleanup routine stays as a safety net only.
		`CREATE TABLE IF NOT EXISTS report_accounts (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			from_date DATE NOT NULL,
			to_date DATE NOT NULL,
			initial_balance BIGINT NOT NULL DEFAULT 0,
			end_balance BIGINT NOT NULL DEFAULT 0,
			total_income BIGINT NOT NULL DEFAULT 0,
			total_expenses BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, account_id, from_date, to_date)
		)`,

		`CREATE TABLE IF NOT EXISTS report_currencies (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			currency_id INTEGER NOT NULL REFERENCES currencies(id) ON DELETE CASCADE,
			from_date DATE NOT NULL,
			to_date DATE NOT NULL,
			initial_balance BIGINT NOT NULL DEFAULT 0,
			end_balance BIGINT NOT NULL DEFAULT 0,
			total_income BIGINT NOT NULL DEFAULT 0,
			total_expenses BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, currency_id, from_date, to_date)
		)`,

		`ALTER TABLE users DROP CONSTRAINT IF EXISTS fk_users_main_currency`,
		`ALTER TABLE users ADD CONSTRAINT fk_users_main_currency
			FOREIGN KEY (main_currency_id) REFERENCES currencies(id) ON DELETE SET NULL`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// SeedCurrencies inserts the default global currencies.
func SeedCurrencies(ctx context.Context, pool *pgxpool.Pool) error {
	currencies := map[string]string{
		"USD": "$",
		"EUR": "€",
		"VES": "Bs",
	}

	for name, symbol := range currencies {
		_, err := pool.Exec(ctx, `
			INSERT INTO currencies (name, symbol) VALUES ($1, $2)
			ON CONFLICT (name) WHERE user_id IS NULL DO NOTHING
		`, name, symbol)
		if err != nil {
			return fmt.Errorf("failed to seed currency %q: %w", name, err)
		}
	}

	return nil
}

// SeedCategories inserts the default global categories, including the three
// the exchange orchestrator auto-tags with.
func SeedCategories(ctx context.Context, pool *pgxpool.Pool) error {
	categories := []struct {
		name  string
		ctype string
	}{
		{"Exchanges", "expense"},
		{"Exchanges Income", "income"},
		{"Commissions", "expense"},
		{"Food", "expense"},
		{"Transportation", "expense"},
		{"Housing", "expense"},
		{"Utilities", "expense"},
		{"Entertainment", "expense"},
		{"Health", "expense"},
		{"Salary", "income"},
		{"Others", "expense"},
	}

	for _, cat := range categories {
		_, err := pool.Exec(ctx, `
			INSERT INTO categories (name, type) VALUES ($1, $2)
			ON CONFLICT (name) WHERE user_id IS NULL DO NOTHING
		`, cat.name, cat.ctype)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", cat.name, err)
		}
	}

	return nil
}
