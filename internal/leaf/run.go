package leaf

import (
	"context"
	"log/slog"
	"time"

	"auramesh/internal/config"
	"auramesh/internal/loop"
	"auramesh/internal/mesh"
	"auramesh/internal/protocol"
)

const connectTimeout = 5 * time.Second

// Run starts the leaf and blocks until ctx is done.
func Run(ctx context.Context, cfg config.Leaf, logger *slog.Logger) error {
	logger.Info("config loaded",
		"backend", string(cfg.Backend),
		"mqttBroker", cfg.MQTT.Broker,
		"mqttPort", cfg.MQTT.Port,
		"meshTopic", cfg.MQTT.Topic,
		"reportInterval", cfg.ReportInterval,
		"gasLimit", cfg.GasLimit,
		"distanceLimit", cfg.DistanceLimit,
		"buzzerHold", cfg.BuzzerHold,
	)

	b, err := openBoard(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("board close", "error", err)
		}
	}()

	inbox := mesh.NewInbox(mesh.DefaultInboxSize)
	transport := mesh.NewMQTT(mesh.MQTTConfig{
		Broker:   cfg.MQTT.Broker,
		Port:     cfg.MQTT.Port,
		ClientID: cfg.MQTT.ClientID,
		Topic:    cfg.MQTT.Topic,
	}, inbox, logger)

	node := NewNode(Config{
		Codec:          protocol.NewCodec(protocol.Labels{Leaf: cfg.Labels.Leaf, Gateway: cfg.Labels.Gateway}),
		Climate:        b.climate,
		Latch:          NewBuzzerLatch(b.buzzer, cfg.GasLimit, cfg.BuzzerHold, logger),
		Line:           NewSafetyLine(b.safety, cfg.DistanceLimit, logger),
		ReportInterval: cfg.ReportInterval,
		Logger:         logger,
	}, transport, inbox)
	defer func() { _ = node.Close() }()

	connectCtx, connectCancel := context.WithTimeout(ctx, connectTimeout)
	err = transport.Connect(connectCtx)
	connectCancel()
	if err != nil {
		logger.Warn("mesh connect failed (continuing, will retry)", "error", err)
	}

	return loop.Run(ctx, cfg.LoopInterval, node.Tick)
}
