package database

import (
	"fmt"

	"github.com/iabetor/speakline/internal/annotation"
	"github.com/iabetor/speakline/internal/logger"
)

// SaveAnnotations 用 set 整体替换数据库中的标注数据。
func (db *DB) SaveAnnotations(set *annotation.Set) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	// PRAGMA foreign_keys 只对当前连接生效，这里显式删除子表
	if _, err := tx.Exec(`DELETE FROM word_annotations`); err != nil {
		return fmt.Errorf("清空标注失败: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sentences`); err != nil {
		return fmt.Errorf("清空句子失败: %w", err)
	}

	for pos, sentence := range set.Sentences() {
		res, err := tx.Exec(`INSERT INTO sentences (position, text) VALUES (?, ?)`, pos, sentence)
		if err != nil {
			return fmt.Errorf("写入句子 %q 失败: %w", sentence, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		words, _ := set.Words(sentence)
		for token, a := range words {
			del, _ := a.DeleteChar()
			if _, err := tx.Exec(
				`INSERT INTO word_annotations (sentence_id, token, stress, delete_char) VALUES (?, ?, ?, ?)`,
				id, token, a.Stress, del,
			); err != nil {
				return fmt.Errorf("写入标注 %q 失败: %w", token, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	logger.Infof("[database] 已导入 %d 个句子的标注", set.Len())
	return nil
}

// LoadAnnotations 读取全部标注数据。
func (db *DB) LoadAnnotations() (*annotation.Set, error) {
	rows, err := db.Query(`
		SELECT s.text, w.token, w.stress, w.delete_char
		FROM sentences s
		LEFT JOIN word_annotations w ON w.sentence_id = s.id
		ORDER BY s.position, w.id`)
	if err != nil {
		return nil, fmt.Errorf("查询标注失败: %w", err)
	}
	defer rows.Close()

	var order []string
	words := make(map[string]map[string]annotation.Annotation)
	for rows.Next() {
		var (
			text   string
			token  *string
			stress *bool
			del    *string
		)
		if err := rows.Scan(&text, &token, &stress, &del); err != nil {
			return nil, fmt.Errorf("读取标注失败: %w", err)
		}
		if _, seen := words[text]; !seen {
			order = append(order, text)
			words[text] = make(map[string]annotation.Annotation)
		}
		if token == nil {
			// 句子没有任何单词标注
			continue
		}
		a := annotation.Annotation{Stress: stress != nil && *stress}
		if del != nil && *del != "" {
			a.Liaison = &annotation.Liaison{Delete: *del}
		}
		words[text][*token] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	set := annotation.NewSet()
	for _, text := range order {
		set.Add(text, words[text])
	}
	return set, nil
}
