package mockapi

import "sync/atomic"

// Faults 运行时修改认证行为的测试开关
type Faults struct {
	failRefresh  atomic.Int64
	refreshCalls atomic.Int64
	expireAccess atomic.Bool
	failCurrent  atomic.Int64
	unavailable  atomic.Bool
}

// FailNextRefreshes 接下来 n 次刷新返回 401
func (f *Faults) FailNextRefreshes(n int) {
	f.failRefresh.Store(int64(n))
}

// FailNextCurrentUser 接下来 n 次 /users/me 返回 500
func (f *Faults) FailNextCurrentUser(n int) {
	f.failCurrent.Store(int64(n))
}

// ExpireAccessTokens 在刷新成功或关闭开关之前，所有访问凭据都按过期处理
func (f *Faults) ExpireAccessTokens(on bool) {
	f.expireAccess.Store(on)
}

// Unavailable 所有 API 路由返回 503
func (f *Faults) Unavailable(on bool) {
	f.unavailable.Store(on)
}

// RefreshCalls 启动或上次 Reset 以来的刷新请求次数
func (f *Faults) RefreshCalls() int {
	return int(f.refreshCalls.Load())
}

func (f *Faults) Reset() {
	f.failRefresh.Store(0)
	f.failCurrent.Store(0)
	f.refreshCalls.Store(0)
	f.expireAccess.Store(false)
	f.unavailable.Store(false)
}

// take decrements n if positive and reports whether it did.
func take(n *atomic.Int64) bool {
	for {
		v := n.Load()
		if v <= 0 {
			return false
		}
		if n.CompareAndSwap(v, v-1) {
			return true
		}
	}
}
