package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iabetor/speakline/internal/logger"
	_ "modernc.org/sqlite"
)

// DB 是 speakline 的 SQLite 数据库连接。
// 标注数据、翻译缓存和练习记录共用一个文件。
type DB struct {
	*sql.DB
	path string
}

// Open 打开或创建数据库。
// dbPath 为空时使用 ~/.speakline/speakline.db。
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			dbPath = filepath.Join(home, ".speakline", "speakline.db")
		} else {
			dbPath = "./speakline.db"
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 渲染回调和翻译预取可能同时写，串行化连接避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("启用外键约束失败: %w", err)
	}

	logger.Infof("[database] 数据库已打开: %s", dbPath)
	return &DB{DB: db, path: dbPath}, nil
}

// Path 返回数据库文件路径。
func (db *DB) Path() string {
	return db.path
}

// Migrate 创建所有表和索引。
func (db *DB) Migrate() error {
	migrations := []string{
		// 句子，position 决定导航顺序
		`CREATE TABLE IF NOT EXISTS sentences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			position INTEGER NOT NULL,
			text TEXT NOT NULL UNIQUE
		)`,
		// 单词标注
		`CREATE TABLE IF NOT EXISTS word_annotations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sentence_id INTEGER NOT NULL REFERENCES sentences(id) ON DELETE CASCADE,
			token TEXT NOT NULL,
			stress BOOLEAN DEFAULT 0,
			delete_char TEXT DEFAULT '',
			UNIQUE(sentence_id, token)
		)`,
		// 翻译字幕缓存
		`CREATE TABLE IF NOT EXISTS translations (
			text TEXT NOT NULL,
			target TEXT NOT NULL,
			translated TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (text, target)
		)`,
		// 练习记录
		`CREATE TABLE IF NOT EXISTS practice_log (
			id TEXT PRIMARY KEY,
			sentence TEXT NOT NULL,
			rate REAL NOT NULL,
			mode TEXT NOT NULL,
			completed BOOLEAN DEFAULT 0,
			elapsed_ms INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_sentences_position ON sentences(position)`,
		`CREATE INDEX IF NOT EXISTS idx_practice_log_sentence ON practice_log(sentence)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			logger.Warnf("[database] 创建索引失败: %v", err)
		}
	}

	logger.Debugf("[database] 数据库迁移完成")
	return nil
}

// Close 关闭数据库连接。
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}
