// Package ratelimit は固定ウィンドウ方式のレート制限を提供する。
//
// カウンタの保存先はStoreインターフェースで抽象化されており、
// Redis（全インスタンスで共有）とインメモリ（プロセスローカル）の2実装がある。
// Redis障害時にインメモリへ切り替える挙動はFallbackStoreとして分離している。
package ratelimit

import (
	"context"
	"time"
)

// Entry はキーごとのカウンタ状態（現在のウィンドウ内のリクエスト数とリセット時刻）。
type Entry struct {
	Count     int
	ResetTime time.Time
}

// Store はレート制限カウンタの保存先。
type Store interface {
	// Increment はキーのカウンタをアトミックに1増やし、増加後のエントリを返す。
	// エントリが存在しないかリセット時刻を過ぎている場合は
	// {Count: 1, ResetTime: now+window} で作り直す。
	Increment(ctx context.Context, key string, window time.Duration) (Entry, error)
}
