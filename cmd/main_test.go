package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/wikibird2024/intergrate-fall/internal/adapters/http/api"
	"github.com/wikibird2024/intergrate-fall/internal/adapters/repository"
	service "github.com/wikibird2024/intergrate-fall/internal/app"
	"github.com/wikibird2024/intergrate-fall/internal/config"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
	"github.com/wikibird2024/intergrate-fall/pkg/metrics"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("FALL_ADDR", ":8080")
			_ = os.Setenv("FALL_QUEUE_SIZE", "1000")
			_ = os.Setenv("FALL_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("FALL_ADDR")
				_ = os.Unsetenv("FALL_QUEUE_SIZE")
				_ = os.Unsetenv("FALL_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := service.New(repository.NewMemoryStore())
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := service.New(repository.NewMemoryStore(),
					service.WithWorkerCount(8),
					service.WithQueueSize(2000),
					service.WithDedupeSize(1000),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing store selection", func() {
			ctx := context.Background()
			log := logger.Get()

			convey.Convey("Then an empty db_path selects the in-memory store", func() {
				cfg := config.New()
				cfg.DBPath = ""
				store, err := openStore(ctx, cfg, log)
				convey.So(err, convey.ShouldBeNil)
				convey.So(store, convey.ShouldNotBeNil)
				convey.So(store.Close(), convey.ShouldBeNil)
			})

			convey.Convey("And a file path opens the SQLite store", func() {
				cfg := config.New()
				cfg.DBPath = t.TempDir() + "/events.db"
				store, err := openStore(ctx, cfg, log)
				convey.So(err, convey.ShouldBeNil)
				convey.So(store, convey.ShouldNotBeNil)
				convey.So(store.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When testing alert channel construction", func() {
			ctx := context.Background()
			log := logger.Get()

			convey.Convey("Then no channels are built when none are enabled", func() {
				cfg := config.New()
				cfg.MQTTEnabled = false
				cfg.TelegramEnabled = false
				channels, err := buildChannels(ctx, cfg, log)
				convey.So(err, convey.ShouldBeNil)
				convey.So(channels, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := service.New(repository.NewMemoryStore())
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then HTTP server should be creatable", func() {
				server := api.NewServer(svc, svc, 100)
				convey.So(server, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager()
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should stop when the context is done", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := service.New(repository.NewMemoryStore())
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then it should stop when the context is done", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})
	})
}
