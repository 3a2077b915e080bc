package service

import (
	"context"

	"github.com/turtacn/sentinel/internal/domain/models"
)

// AlertPublisher delivers alerts for critical outcomes to downstream responders.
// AlertPublisher 将关键结果的告警投递给下游响应方。
type AlertPublisher interface {
	// Publish sends one alert. Failures are reported but never fail detection.
	// Publish 发送一条告警。失败会被报告，但绝不会导致检测失败。
	Publish(ctx context.Context, alert models.Alert) error

	// Close flushes and releases the underlying transport.
	// Close 刷新并释放底层传输。
	Close() error
}

// Throttler keeps a per-client request budget that tightens as threat rises.
// Throttler 为每个客户端维护请求预算，威胁升高时收紧。
type Throttler interface {
	// Allow reports whether the client may proceed and consumes one token if so.
	// Allow 判断客户端是否可以继续，如可以则消耗一个令牌。
	Allow(key models.ProfileKey) bool

	// Tighten lowers the client's rate according to the detected level.
	// Tighten 根据检测到的级别降低客户端速率。
	Tighten(key models.ProfileKey, level models.ThreatLevel)

	// Reset restores the default budget for the client.
	// Reset 恢复客户端的默认预算。
	Reset(key models.ProfileKey)
}
