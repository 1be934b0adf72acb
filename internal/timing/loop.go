package timing

import (
	"sync"

	"github.com/iabetor/speakline/internal/logger"
)

// Loop 是单 goroutine 的事件循环。所有会话状态只在循环里读写，
// 定时器和语音回调都通过 Post 排队，因此不会出现两个回调交错执行。
//
// 队列无上限：任务内部可以安全地 Post，不会阻塞循环自身。
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	exited chan struct{}
}

// NewLoop 创建并启动事件循环。
func NewLoop() *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		exited: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post 把任务加入队列，立即返回。循环已关闭时返回 false。
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do 排队执行任务并等待完成。不能在循环内部的任务里调用。
func (l *Loop) Do(fn func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	<-done
	return true
}

// Close 停止接收新任务，执行完已排队的任务后退出。
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.exited
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.exited
}

func (l *Loop) run() {
	defer close(l.exited)
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			closed := l.closed
			l.mu.Unlock()
			if closed {
				return
			}
			<-l.wake
			continue
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.exec(fn)
	}
}

// exec 执行单个任务；任务 panic 不会让循环退出。
func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[timing] 事件循环任务 panic: %v", r)
		}
	}()
	fn()
}
