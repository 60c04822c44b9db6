package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
	"golang.org/x/sync/errgroup"

	"github.com/avaleev/rubiks-server/internal/cube"
	"github.com/avaleev/rubiks-server/internal/solver"
)

var (
	log = logrus.New()

	configPath string
	config     = &Config{}

	pg *postgres
)

func init() {
	const (
		defaultConfigPath = "/run/config.json"
		usage             = "config file path"
	)
	flag.StringVar(&configPath, "config", defaultConfigPath, usage)
	flag.StringVar(&configPath, "c", defaultConfigPath, usage+" (shorthand)")
}

func setupLogging() {
	logLevel := logrus.InfoLevel
	if config.Development() {
		logLevel = logrus.DebugLevel
	}
	log.SetLevel(logLevel)
	log.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	solver.Log = log

	if config.Log.File == "" {
		return
	}
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   config.Log.File,
		MaxSize:    config.Log.MaxSizeMB,
		MaxBackups: config.Log.MaxBackups,
		MaxAge:     config.Log.MaxAgeDays,
		Level:      logLevel,
		Formatter:  &logrus.JSONFormatter{},
	})
	if err != nil {
		log.Fatal("unable to create rotating log file: ", err)
	}
	log.AddHook(hook)
}

func setupPostgres(ctx context.Context) {
	var err error

	pg, err = NewPostgres(ctx, config.Postgres.DbUrl())
	if err != nil {
		log.Fatal("unable to create connection pool: ", err)
	}
	if err := pg.Ping(ctx); err != nil {
		log.Fatal("unable to ping database: ", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatal("unable to prepare schema: ", err)
	}
}

// selfTest solves a short scramble at startup so a broken engine is caught
// before the server takes traffic.
func selfTest() {
	c := cube.Solved()
	scramble := c.Scramble(4, rand.New(rand.NewPCG(1, 2)))

	res, err := solver.NewSequential(solver.WithBudget(5 * time.Second)).Solve(c, 8)
	if err != nil {
		log.Fatal("solver self-test failed: ", err)
	}
	if res.Status != solver.StatusSolved {
		log.Fatalf("solver self-test failed: scramble %v gave status %s",
			cube.FormatMoves(scramble), res.Status)
	}
	log.WithFields(logrus.Fields{
		"moves": len(res.Moves),
		"nodes": res.Nodes,
		"time":  res.Elapsed.String(),
	}).Info("solver self-test passed")
}

func main() {
	mainCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	flag.Parse()

	if err := ReadConfig(configPath, config); err != nil {
		log.Fatalf("unable to read config %s: %s", configPath, err.Error())
	}

	setupLogging()

	log.Info("starting up, mode = ", config.Mode)
	log.WithFields(config.Fields()).Debug("config")

	setupPostgres(mainCtx)
	defer pg.Close()

	selfTest()

	server := &http.Server{
		Addr:    config.Addr,
		Handler: buildHandler(),
		BaseContext: func(l net.Listener) context.Context {
			return mainCtx
		},
	}

	log.Infof("ready to serve @ %s", config.Addr)

	g, gCtx := errgroup.WithContext(mainCtx)
	g.Go(func() error {
		return server.ListenAndServe()
	})
	g.Go(func() error {
		<-gCtx.Done()
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Printf("exit reason: %s\n", err)
	}
}
