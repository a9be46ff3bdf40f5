// Package scorer 定义外部评分器契约并提供统一的调用适配
//
// 评分器（异常检测、紧急分类、风险回归）是外部协作方，
// 可能随时不可用；适配器把它们的异构输出归一化为统一的 Signal，
// 并把失败、超时、panic 一律吸收为"缺席信号"，绝不中断整体分析。
package scorer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-health-monitor/internal/models"
)

// Kind 评分器类型
type Kind string

const (
	KindAnomaly        Kind = "anomaly"
	KindClassification Kind = "classification"
	KindRisk           Kind = "risk"
)

// Scorer 评分器契约
// 可用性可能在运行时变化（模型加载/卸载），每次调用前都要重新检查
type Scorer interface {
	// Kind 返回评分器类型
	Kind() Kind

	// IsAvailable 返回评分器当前是否可用
	IsAvailable() bool

	// Score 对一条读数评分，history 为该设备的历史读数（最旧在前）
	Score(ctx context.Context, reading models.Reading, history []models.Reading) (*models.Signal, error)
}

// DefaultTimeout 评分器调用默认超时
const DefaultTimeout = 2 * time.Second

// Adapter 评分器适配器
// 每次分析对每种评分器至多调用一次，带超时保护
type Adapter struct {
	scorers map[Kind]Scorer
	timeout time.Duration
	logger  *zap.Logger

	// 评分器失败回调（用于指标上报，可为 nil）
	onFailure func(kind Kind)
}

// NewAdapter 创建适配器
func NewAdapter(scorers []Scorer, timeout time.Duration, logger *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := make(map[Kind]Scorer, len(scorers))
	for _, s := range scorers {
		m[s.Kind()] = s
	}
	return &Adapter{
		scorers: m,
		timeout: timeout,
		logger:  logger,
	}
}

// OnFailure 注册评分器失败回调
func (a *Adapter) OnFailure(fn func(kind Kind)) {
	a.onFailure = fn
}

// Available 返回当前可用的评分器类型
func (a *Adapter) Available() []Kind {
	var kinds []Kind
	for _, kind := range []Kind{KindAnomaly, KindClassification, KindRisk} {
		if s, ok := a.scorers[kind]; ok && s.IsAvailable() {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Invoke 调用一种评分器
// 返回 nil 表示缺席：评分器未注册、不可用、出错、超时或 panic。
// 缺席不是失败，调用方按"无意见"处理。
func (a *Adapter) Invoke(ctx context.Context, kind Kind, reading models.Reading, history []models.Reading) *models.Signal {
	s, ok := a.scorers[kind]
	if !ok {
		return nil
	}

	// 可用性每次调用重新检查，不缓存过期结果
	if !s.IsAvailable() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		signal *models.Signal
		err    error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("scorer panic: %v", r)}
			}
		}()
		signal, err := s.Score(ctx, reading, history)
		done <- result{signal: signal, err: err}
	}()

	select {
	case <-ctx.Done():
		a.reportFailure(kind, ctx.Err())
		return nil
	case res := <-done:
		if res.err != nil {
			a.reportFailure(kind, res.err)
			return nil
		}
		return res.signal
	}
}

// reportFailure 记录评分器失败（只记录，不上抛）
func (a *Adapter) reportFailure(kind Kind, err error) {
	a.logger.Warn("Scorer failed, treating as absent",
		zap.String("scorer", string(kind)),
		zap.Error(err),
	)
	if a.onFailure != nil {
		a.onFailure(kind)
	}
}
