package timing

import "time"

// 启发式时间轴参数，均以 0.9 倍速为基准。
const (
	baseRate        = 0.9
	baseUnitMs      = 150.0
	slowStartMs     = 200.0
	normalStartMs   = 50.0
	slowRateCeiling = 0.5
)

// Entry 是时间轴上的一个单词。
type Entry struct {
	WordIndex int
	Start     time.Duration
}

// Timeline 按单词顺序排列的高亮时间表。
type Timeline struct {
	Entries []Entry
	// End 是最后一个单词读完的时间。
	End time.Duration
}

// Len 返回单词数。
func (t Timeline) Len() int {
	return len(t.Entries)
}

// UnitDuration 返回单位权重对应的时长：150ms × (0.9 / rate)。
func UnitDuration(rate float64) time.Duration {
	return msToDuration(unitMs(rate))
}

// InitialOffset 返回第一个单词的起始偏移。
// 语速低于 0.5 时引擎起音明显变慢，按 200ms × (0.9 / rate) 补偿；否则固定 50ms。
func InitialOffset(rate float64) time.Duration {
	return msToDuration(initialMs(rate))
}

// WordDuration 返回单个单词在给定语速下的估算时长。
func WordDuration(weight, rate float64) time.Duration {
	return msToDuration(weight * unitMs(rate))
}

// BuildTimeline 根据权重和语速生成确定性的时间轴。
// 相同输入总是得到相同输出。
func BuildTimeline(weights []float64, rate float64) Timeline {
	unit := unitMs(rate)
	acc := initialMs(rate)
	entries := make([]Entry, len(weights))
	for i, w := range weights {
		entries[i] = Entry{WordIndex: i, Start: msToDuration(acc)}
		acc += w * unit
	}
	return Timeline{Entries: entries, End: msToDuration(acc)}
}

func unitMs(rate float64) float64 {
	return baseUnitMs * (baseRate / rate)
}

func initialMs(rate float64) float64 {
	if rate < slowRateCeiling {
		return slowStartMs * (baseRate / rate)
	}
	return normalStartMs
}

// msToDuration 在毫秒浮点累加完成后再取整，避免逐词舍入误差累积。
func msToDuration(ms float64) time.Duration {
	return time.Duration(ms*float64(time.Millisecond) + 0.5)
}
