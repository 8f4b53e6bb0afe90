// Package repo — история заданий слияния в PostgreSQL.
//
// История необязательна: она ведётся, только если задан DB_URL.
// Схема создаётся JobRepo.EnsureSchema при первом подключении.
package repo
