package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gorilla/handlers"
	"github.com/pborman/getopt/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hostdiag/wifiradar/internal/agent"
	"github.com/hostdiag/wifiradar/internal/api"
	"github.com/hostdiag/wifiradar/pkg/config"
)

var (
	startTime = time.Now()
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optListen := getopt.StringLong("listen", 'l', "", "Listen address, overrides the configuration file")
	optStatic := getopt.StringLong("static", 'd', "", "Directory with frontend assets to serve")
	optVerbosity := getopt.Uint16Long("verbosity", 'v', uint16(4), "Verbosity level (1 to 5, 1 is lowest)")

	helpFlag := getopt.Bool('h', "Display help")

	getopt.Parse()

	if *helpFlag {
		getopt.Usage()
		os.Exit(0)
	}

	verbosityLevel := log.InfoLevel
	switch *optVerbosity {
	case uint16(1):
		verbosityLevel = log.FatalLevel
	case uint16(2):
		verbosityLevel = log.ErrorLevel
	case uint16(3):
		verbosityLevel = log.WarnLevel
	case uint16(4):
		verbosityLevel = log.InfoLevel
	case uint16(5):
		verbosityLevel = log.DebugLevel
	default:
		verbosityLevel = log.DebugLevel
	}

	logger := &log.Logger{Level: verbosityLevel, Handler: &logHandler{Writer: os.Stderr}}

	opts := []config.Option{
		config.WithLogger(logger),
	}
	if *optConfig != "" {
		opts = append(opts, config.WithConfigFile(*optConfig))
	}
	if *optListen != "" {
		opts = append(opts, config.WithListenAddr(*optListen))
	}
	if *optStatic != "" {
		opts = append(opts, config.WithStaticDir(*optStatic))
	}
	cfg := config.NewConfig(opts...)

	radar, err := agent.New(cfg)
	if err != nil {
		fmt.Println("fatal: " + err.Error())
		os.Exit(1)
	}
	radar.Start()

	router := api.NewRouter(logger, radar, cfg.StaticDir())
	server := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: handlers.LoggingHandler(os.Stdout, router),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("listening on http://%s", cfg.ListenAddr())
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		radar.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("exit: %s", err)
		os.Exit(1)
	}
}

type logHandler struct {
	io.Writer
}

func (h *logHandler) HandleLog(e *log.Entry) (err error) {
	var s string
	if e.Level == log.DebugLevel {
		s = fmt.Sprintf("%s", e.Message)
	} else if e.Level == log.ErrorLevel {
		s = fmt.Sprintf("[%14.6f] <!err> %s", time.Since(startTime).Seconds(), e.Message)
	} else {
		s = fmt.Sprintf("[%14.6f] <%s> %s", time.Since(startTime).Seconds(), e.Level, e.Message)
	}
	if len(e.Fields) > 0 {
		s += fmt.Sprintf(": %+v", e.Fields)
	}
	s += "\n"
	_, err = h.Writer.Write([]byte(s))
	return
}
