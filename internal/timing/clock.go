package timing

import "time"

// Clock 提供当前时间和延时回调，测试中替换为可手动推进的时钟。
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer 是一个待触发的延时回调。
type Timer interface {
	Stop() bool
}

// SystemClock 返回基于 time 包的真实时钟。
func SystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
