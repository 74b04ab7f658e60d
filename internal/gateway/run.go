package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"auramesh/internal/config"
	"auramesh/internal/hazard"
	"auramesh/internal/httpapi"
	"auramesh/internal/loop"
	"auramesh/internal/mesh"
	"auramesh/internal/mesh/ble"
	"auramesh/internal/metrics"
	"auramesh/internal/protocol"
	"auramesh/internal/uplink"
)

const connectTimeout = 5 * time.Second

// Run starts the gateway and blocks until ctx is done or a component fails.
func Run(ctx context.Context, cfg config.Gateway, logger *slog.Logger) error {
	logger.Info("config loaded",
		"backend", string(cfg.Backend),
		"mqttBroker", cfg.MQTT.Broker,
		"mqttPort", cfg.MQTT.Port,
		"meshTopic", cfg.MQTT.Topic,
		"uplinkBaseURL", cfg.UplinkBaseURL,
		"uplinkTimeout", cfg.UplinkTimeout,
		"cycleInterval", cfg.CycleInterval,
		"metricsAddr", cfg.MetricsAddr,
		"bleAdapter", cfg.BLEAdapter,
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

	codec := protocol.NewCodec(protocol.Labels{Leaf: cfg.Labels.Leaf, Gateway: cfg.Labels.Gateway})
	reg := metrics.NewRegistry()
	m := metrics.NewGateway(reg)

	drainer := uplink.NewDrainer(
		uplink.NewHTTPPoster(cfg.UplinkBaseURL, cfg.UplinkTimeout),
		logger,
		uplink.WithObserver(m),
		uplink.WithTimeout(cfg.UplinkTimeout),
	)

	inbox := mesh.NewInbox(mesh.DefaultInboxSize)
	transport := mesh.NewMQTT(mesh.MQTTConfig{
		Broker:   cfg.MQTT.Broker,
		Port:     cfg.MQTT.Port,
		ClientID: cfg.MQTT.ClientID,
		Topic:    cfg.MQTT.Topic,
	}, inbox, logger)

	node := New(Config{
		Codec:      codec,
		Ranger:     b.ranger,
		Gas:        b.gas,
		Accel:      b.accel,
		Alarm:      b.alarm,
		Display:    b.display,
		Drainer:    drainer,
		Thresholds: hazard.DefaultThresholds,
		Interval:   cfg.CycleInterval,
		Observer:   m,
		Frames:     m,
		Logger:     logger,
	}, transport, inbox)
	defer func() { _ = node.Close() }()

	// A down broker must not stop local sensing; paho keeps retrying.
	connectCtx, connectCancel := context.WithTimeout(ctx, connectTimeout)
	err = transport.Connect(connectCtx)
	connectCancel()
	if err != nil {
		logger.Warn("mesh connect failed (continuing, will retry)", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(gctx, cfg.LoopInterval, func(now time.Time) {
			node.Tick(gctx, now)
		})
	})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", metrics.Handler(reg))
		mux.HandleFunc("GET /healthz", httpapi.Healthz(nil, logger))
		srv := httpapi.NewServer(cfg.MetricsAddr, mux, logger)
		g.Go(func() error { return httpapi.Serve(gctx, srv, logger) })
	}

	if cfg.BLEAdapter != "" {
		handler := ble.NewBeaconHandler(codec, inbox, logger)
		listener := ble.NewListener(ble.Options{
			Adapter: cfg.BLEAdapter,
			Filter:  ble.Filter{ManufacturerDataPref: ble.BeaconPrefix},
		}, logger)
		g.Go(func() error {
			// BLE is a secondary path; losing it leaves the mesh running.
			if err := listener.Run(gctx, handler.HandleMatch); err != nil {
				logger.Warn("ble listener stopped", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}
