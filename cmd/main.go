package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	_ "radiator_heating/docs"
	"radiator_heating/internal/handlers"
	"radiator_heating/internal/logger"
	"radiator_heating/internal/mqtt"
	"radiator_heating/internal/repository"
	"radiator_heating/internal/repository/db"
	"radiator_heating/internal/server"
	"radiator_heating/internal/service"
	"radiator_heating/internal/shelly"
)

const defaultTick = 30 * time.Second

// @title           Radiator Heating Controller API
// @version         1.0
// @description     Schedule/thermostat driven control of Shelly radiator relays.
// @BasePath        /
func main() {
	// load config.yml first so the log level comes from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log_level"))

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	transport := shelly.NewClient(deviceTimeout())

	var publisher service.StatePublisher
	var mqttPub *mqtt.Publisher
	if broker := viper.GetString("mqtt.broker"); broker != "" {
		mqttPub, err = mqtt.Connect(mqtt.Config{
			Broker:      broker,
			ClientID:    viper.GetString("mqtt.client_id"),
			Username:    viper.GetString("mqtt.username"),
			Password:    viper.GetString("mqtt.password"),
			TopicPrefix: viper.GetString("mqtt.topic_prefix"),
		}, log.Component("mqtt"))
		if err != nil {
			log.Fatalw("failed to connect mqtt broker", "broker", broker, "err", err)
		}
		publisher = mqttPub
	}

	services := service.NewService(repos, transport, publisher, log.Component("loop"), service.LoopConfig{
		DeviceTimeout:      deviceTimeout(),
		MaxConcurrentCalls: viper.GetInt("control.max_concurrent_calls"),
	})
	apiHandler := handlers.NewHandler(services, log.Component("http"))

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the heating control loop
	go services.ControlLoop.Run(ctx, tickInterval())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, mqttPub, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "heating.db")
		dbPath = "heating.db"
	}
	return db.InitDB(dbPath)
}

func tickInterval() time.Duration {
	if s := viper.GetInt("control.tick_seconds"); s > 0 {
		return time.Duration(s) * time.Second
	}
	return defaultTick
}

func deviceTimeout() time.Duration {
	if s := viper.GetInt("control.device_timeout_seconds"); s > 0 {
		return time.Duration(s) * time.Second
	}
	return 3 * time.Second
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, mqttPub *mqtt.Publisher, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the control loop
	cancel()

	if mqttPub != nil {
		mqttPub.Close()
	}

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
