// Command stompcat is a small producer/consumer demo over the RabbitMQ
// STOMP dialect: run with STOMP_MODE=produce to send each line of stdin to
// a queue, or STOMP_MODE=consume (the default) to log and ack messages as
// they arrive (SPEC_FULL.md §4.13).
package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"go.opentelemetry.io/otel"

	"github.com/nsheridan/gostomp/internal/config"
	"github.com/nsheridan/gostomp/internal/stomplog"
	"github.com/nsheridan/gostomp/internal/tracing"
	"github.com/nsheridan/gostomp/stomp"
	"github.com/nsheridan/gostomp/stomp/rabbitmq"
	"github.com/nsheridan/gostomp/stomp/stompmetrics"
	"github.com/nsheridan/gostomp/stomp/stomptrace"
	"github.com/nsheridan/gostomp/stomp/transport"
)

type appConfig struct {
	ServiceName string
	Network     string
	Addr        string
	Login       string
	Passcode    string
	Queue       string
	Mode        string
	MetricsName string
}

func loadConfig() appConfig {
	return appConfig{
		ServiceName: config.GetEnv("SERVICE_NAME", "stompcat"),
		Network:     config.GetEnv("STOMP_NETWORK", "tcp"),
		Addr:        config.GetEnv("STOMP_ADDR", "localhost:61613"),
		Login:       config.GetEnv("STOMP_LOGIN", "guest"),
		Passcode:    config.GetEnv("STOMP_PASSCODE", "guest"),
		Queue:       config.GetEnv("STOMP_QUEUE", "stompcat"),
		Mode:        config.GetEnv("STOMP_MODE", "consume"),
		MetricsName: config.GetEnv("STOMP_METRICS_SUBSYSTEM", "stompcat"),
	}
}

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	log := stomplog.New("stompcat")

	shutdownTracing, err := tracing.Init(cfg.ServiceName)
	if err != nil {
		log.Error("failed to initialize tracer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("stompcat exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	metrics := stompmetrics.New(cfg.MetricsName)
	dialer := metrics.WrapDialer(&transport.NetDialer{})

	login, passcode := cfg.Login, cfg.Passcode
	conn, err := rabbitmq.Connect(dialer, cfg.Network, cfg.Addr, &login, &passcode, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Disconnect(); err != nil {
			log.Error("disconnect failed", slog.Any("error", err))
		}
	}()

	log.Info("connected", slog.String("addr", cfg.Addr), slog.String("mode", cfg.Mode))

	switch cfg.Mode {
	case "produce":
		return produce(ctx, conn, cfg, log)
	default:
		return consume(ctx, conn, cfg, log)
	}
}

func produce(ctx context.Context, conn *rabbitmq.Conn, cfg appConfig, log *slog.Logger) error {
	tracer := otel.Tracer(cfg.ServiceName)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()

		spanCtx, span := tracer.Start(ctx, "stompcat.send")
		headers := stomptrace.Inject(spanCtx, nil)
		err := conn.Send(cfg.Queue, []byte(line), rabbitmq.SendOptions{Extra: headers})
		span.End()
		if err != nil {
			return err
		}
		log.Info("sent", slog.Int("bytes", len(line)))
	}
	return scanner.Err()
}

func consume(ctx context.Context, conn *rabbitmq.Conn, cfg appConfig, log *slog.Logger) error {
	if err := conn.CreateQueue(cfg.Queue); err != nil {
		return err
	}
	if err := conn.SubscribeQueue(cfg.Queue); err != nil {
		return err
	}

	tracer := otel.Tracer(cfg.ServiceName)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, err := conn.ReceiveMsg()
		if err != nil {
			return err
		}

		msgCtx := stomptrace.Extract(ctx, msg.Headers)
		_, span := tracer.Start(msgCtx, "stompcat.receive")
		log.Info("received", slog.String("message_id", msg.ID), slog.Int("bytes", len(msg.Body)))
		err = conn.AckMsg(stomp.NewHeaders(stomp.HeaderMessageID, msg.ID))
		span.End()
		if err != nil {
			return err
		}
	}
}
