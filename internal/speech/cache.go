package speech

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iabetor/speakline/internal/audio"
	"github.com/iabetor/speakline/internal/logger"
)

const indexFile = "clip_index.json"

// clipEntry 缓存索引中的一条记录，音频本身存为同名 .pcm 文件。
type clipEntry struct {
	Text       string `json:"text"`
	SampleRate int    `json:"sample_rate"`
	Marks      []Mark `json:"marks,omitempty"`
	Size       int64  `json:"size"`
	CachedAt   string `json:"cached_at"`
	LastUsed   string `json:"last_used"`
}

// ClipCache 把合成结果缓存到磁盘，反复练习同一句时不必重新请求云端。
// 按最近使用时间淘汰。
type ClipCache struct {
	mu       sync.Mutex
	cacheDir string
	maxSize  int64 // 字节，0 表示禁用
	index    map[string]*clipEntry
}

// NewClipCache 创建缓存。maxSizeMB 为 0 时禁用缓存。
func NewClipCache(cacheDir string, maxSizeMB int64) (*ClipCache, error) {
	c := &ClipCache{
		cacheDir: cacheDir,
		maxSize:  maxSizeMB * 1024 * 1024,
		index:    make(map[string]*clipEntry),
	}
	if maxSizeMB <= 0 {
		c.maxSize = 0
		return c, nil
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}
	if err := c.loadIndex(); err != nil {
		logger.Warnf("[cache] 加载缓存索引失败（将使用空索引）: %v", err)
		c.index = make(map[string]*clipEntry)
	}
	c.validateIndex()
	return c, nil
}

// CacheKey 由后端、语音和朗读参数生成缓存键。
func CacheKey(backend string, u Utterance) string {
	voice := ""
	if u.Voice != nil {
		voice = u.Voice.ID
	}
	h := sha1.New()
	for _, part := range []string{
		backend,
		voice,
		strconv.FormatFloat(u.Rate, 'f', 2, 64),
		strconv.FormatFloat(u.Pitch, 'f', 2, 64),
		strconv.FormatFloat(u.Volume, 'f', 2, 64),
		u.Text,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Enabled 返回缓存是否启用。nil 缓存视为禁用。
func (c *ClipCache) Enabled() bool {
	return c != nil && c.maxSize > 0
}

// Len 返回缓存条目数。
func (c *ClipCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Load 读取缓存的音频，并刷新最近使用时间。
func (c *ClipCache) Load(key string) (*Clip, bool) {
	if !c.Enabled() {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.index[key]
	if !ok {
		return nil, false
	}
	data, err := os.ReadFile(c.filePath(key))
	if err != nil {
		logger.Warnf("[cache] 读取缓存文件失败: %v", err)
		delete(c.index, key)
		_ = c.saveIndexLocked()
		return nil, false
	}

	entry.LastUsed = now()
	_ = c.saveIndexLocked()

	marks := make([]Mark, len(entry.Marks))
	copy(marks, entry.Marks)
	return &Clip{
		Samples:    audio.BytesToFloat32(data),
		SampleRate: entry.SampleRate,
		Marks:      marks,
	}, true
}

// Store 写入一段合成结果，超过上限时淘汰最久未使用的条目。
func (c *ClipCache) Store(key, text string, clip *Clip) error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data := audio.Float32ToBytes(clip.Samples)
	tmp := c.filePath(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("写入缓存文件失败: %w", err)
	}
	if err := os.Rename(tmp, c.filePath(key)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("重命名缓存文件失败: %w", err)
	}

	ts := now()
	c.index[key] = &clipEntry{
		Text:       text,
		SampleRate: clip.SampleRate,
		Marks:      append([]Mark(nil), clip.Marks...),
		Size:       int64(len(data)),
		CachedAt:   ts,
		LastUsed:   ts,
	}
	c.evictLocked()

	if err := c.saveIndexLocked(); err != nil {
		return fmt.Errorf("保存缓存索引失败: %w", err)
	}
	logger.Debugf("[cache] 已缓存: %q (%d bytes)", text, len(data))
	return nil
}

func (c *ClipCache) filePath(key string) string {
	return filepath.Join(c.cacheDir, key+".pcm")
}

func (c *ClipCache) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(c.cacheDir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &c.index)
}

// saveIndexLocked 持久化缓存索引（调用方需持有锁）。
func (c *ClipCache) saveIndexLocked() error {
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.cacheDir, indexFile), data, 0644)
}

// validateIndex 移除本地文件不存在的条目。
func (c *ClipCache) validateIndex() {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.index {
		if _, err := os.Stat(c.filePath(key)); err != nil {
			delete(c.index, key)
			removed++
		}
	}
	if removed > 0 {
		logger.Infof("[cache] 索引校验：移除 %d 个无效条目", removed)
		_ = c.saveIndexLocked()
	}
	logger.Debugf("[cache] 缓存已加载: %d 段音频, 目录 %s", len(c.index), c.cacheDir)
}

// evictLocked 按最近使用时间淘汰，直到总大小不超过上限（调用方需持有锁）。
func (c *ClipCache) evictLocked() {
	var total int64
	keys := make([]string, 0, len(c.index))
	for k, e := range c.index {
		total += e.Size
		keys = append(keys, k)
	}
	if total <= c.maxSize {
		return
	}

	sort.Slice(keys, func(i, j int) bool {
		return c.index[keys[i]].LastUsed < c.index[keys[j]].LastUsed
	})
	for _, k := range keys {
		if total <= c.maxSize {
			break
		}
		if err := os.Remove(c.filePath(k)); err != nil && !os.IsNotExist(err) {
			logger.Warnf("[cache] 删除缓存文件失败: %v", err)
			continue
		}
		total -= c.index[k].Size
		logger.Debugf("[cache] LRU 淘汰: %q", c.index[k].Text)
		delete(c.index, k)
	}
}

// now 返回可按字典序比较的时间戳。
func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z")
}
