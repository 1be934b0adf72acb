package timing

import (
	"sync"

	"github.com/iabetor/speakline/internal/logger"
)

// State 表示引擎的播放状态。
type State int

const (
	// StateIdle：没有活动会话，没有高亮。
	StateIdle State = iota
	// StatePlaying：会话进行中（语音播放或启发式时间轴）。
	StatePlaying
)

var stateNames = [...]string{
	"Idle",
	"Playing",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// StateMachine 管理线程安全的状态转换。
type StateMachine struct {
	mu       sync.RWMutex
	current  State
	onChange func(from, to State)
}

// NewStateMachine 创建一个初始状态为 Idle 的状态机。
func NewStateMachine() *StateMachine {
	return &StateMachine{current: StateIdle}
}

// SetOnChange 注册状态变化回调。
func (sm *StateMachine) SetOnChange(fn func(from, to State)) {
	sm.mu.Lock()
	sm.onChange = fn
	sm.mu.Unlock()
}

// Current 返回当前状态。
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Transition 尝试切换状态。合法转换只有：
//
//	Idle    → Playing  （play）
//	Playing → Idle     （播放结束、stop 或被新的 play 取代）
//
// 非法转换返回 false 且不改变状态。
func (sm *StateMachine) Transition(to State) bool {
	sm.mu.Lock()
	from := sm.current
	if from == to || to > StatePlaying {
		sm.mu.Unlock()
		logger.Debugf("[timing] 忽略状态转换 %s → %s", from, to)
		return false
	}
	sm.current = to
	fn := sm.onChange
	sm.mu.Unlock()

	logger.Debugf("[timing] %s → %s", from, to)
	if fn != nil {
		fn(from, to)
	}
	return true
}

// ForceIdle 无条件重置为 Idle，已是 Idle 时不触发回调。
func (sm *StateMachine) ForceIdle() {
	sm.Transition(StateIdle)
}
