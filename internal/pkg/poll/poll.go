// Package poll 异步任务的固定间隔轮询
package poll

import (
	"context"
	"fmt"
	"time"

	apperrors "baytt/internal/errors"
)

// State 任务的归一化状态
type State int

const (
	StatePending State = iota
	StateSucceeded
	StateFailed
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// CheckFunc 查询一次任务状态
type CheckFunc[T any] func(ctx context.Context, attempt int) (T, State, error)

// Options 轮询参数
type Options struct {
	Interval    time.Duration // 两次查询之间的等待
	MaxAttempts int           // 查询次数上限
	Name        string        // 用于错误信息，例如 "video task 123"
}

// Until 以固定间隔查询直到任务进入终态，最多查询 MaxAttempts 次。
// 成功返回结果；失败状态返回 ProviderError；次数耗尽返回 TimeoutError。
// 查询本身出错时立即返回，不做重试。
func Until[T any](ctx context.Context, opts Options, check CheckFunc[T]) (T, error) {
	var zero T
	if opts.MaxAttempts <= 0 {
		return zero, fmt.Errorf("poll %s: max attempts must be positive", opts.Name)
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, state, err := check(ctx, attempt)
		if err != nil {
			return zero, err
		}

		switch state {
		case StateSucceeded:
			return result, nil
		case StateFailed:
			return result, apperrors.NewProviderError(fmt.Sprintf("%s failed", opts.Name), nil)
		}

		if attempt == opts.MaxAttempts {
			break
		}

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, apperrors.NewTimeoutError(
		fmt.Sprintf("%s did not finish after %d attempts (interval %s)", opts.Name, opts.MaxAttempts, opts.Interval),
		nil,
	)
}
