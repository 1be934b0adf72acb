package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PracticeRecord 一次播放会话的记录。
type PracticeRecord struct {
	ID        string
	Sentence  string
	Rate      float64
	Mode      string
	Completed bool
	Elapsed   time.Duration
	CreatedAt time.Time
}

// LogPractice 写入一条练习记录，返回记录 ID。
func (db *DB) LogPractice(r PracticeRecord) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := db.Exec(
		`INSERT INTO practice_log (id, sentence, rate, mode, completed, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Sentence, r.Rate, r.Mode, r.Completed, r.Elapsed.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("写入练习记录失败: %w", err)
	}
	return r.ID, nil
}

// RecentPractice 按时间倒序返回最近的练习记录。
func (db *DB) RecentPractice(limit int) ([]PracticeRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, sentence, rate, mode, completed, elapsed_ms, created_at
		FROM practice_log ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询练习记录失败: %w", err)
	}
	defer rows.Close()

	var out []PracticeRecord
	for rows.Next() {
		var (
			r         PracticeRecord
			elapsedMs int64
		)
		if err := rows.Scan(&r.ID, &r.Sentence, &r.Rate, &r.Mode, &r.Completed, &elapsedMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("读取练习记录失败: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Translation 读取缓存的翻译。
func (db *DB) Translation(text, target string) (string, bool, error) {
	var translated string
	err := db.QueryRow(`SELECT translated FROM translations WHERE text = ? AND target = ?`, text, target).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("查询翻译缓存失败: %w", err)
	}
	return translated, true, nil
}

// SaveTranslation 写入或更新翻译缓存。
func (db *DB) SaveTranslation(text, target, translated string) error {
	_, err := db.Exec(`
		INSERT INTO translations (text, target, translated) VALUES (?, ?, ?)
		ON CONFLICT(text, target) DO UPDATE SET translated = excluded.translated, created_at = CURRENT_TIMESTAMP`,
		text, target, translated)
	if err != nil {
		return fmt.Errorf("写入翻译缓存失败: %w", err)
	}
	return nil
}
