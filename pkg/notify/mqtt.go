package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/config"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/logger"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/metrics"
)

// MQTTNotifier 基于 MQTT 的通知器，下游机器人/推送服务订阅消费
type MQTTNotifier struct {
	client      mqtt.Client
	topicPrefix string
	qos         byte
}

// NewMQTTNotifier 创建 MQTT 通知器并建立连接
func NewMQTTNotifier(cfg *config.MQTTConfig) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(time.Duration(cfg.KeepAlive) * time.Second).
		SetAutoReconnect(cfg.AutoReconnect).
		SetConnectRetry(true).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Info("MQTT 已连接", logger.String("broker", cfg.Broker))
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Warn("MQTT 连接断开", logger.Err(err))
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "referral"
	}

	return &MQTTNotifier{
		client:      client,
		topicPrefix: prefix,
		qos:         cfg.QoS,
	}, nil
}

// CommissionPosted 发布佣金入账事件
func (n *MQTTNotifier) CommissionPosted(ctx context.Context, event *CommissionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal commission event: %w", err)
	}

	topic := fmt.Sprintf("%s/commission/%d", n.topicPrefix, event.ReferrerID)
	token := n.client.Publish(topic, n.qos, false, payload)

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish commission event: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	metrics.GetMetrics().RecordMQTTMessage(topic, "out")
	return nil
}

// Close 断开 MQTT 连接
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
