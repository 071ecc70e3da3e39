package main

import (
	"context"
	"flag"
	"github.com/CodedInternet/vehicledash/comms"
	"github.com/CodedInternet/vehicledash/dashboard"
	"github.com/CodedInternet/vehicledash/logger"
	"github.com/CodedInternet/vehicledash/onboard"
	"github.com/CodedInternet/vehicledash/telemetry"
	"github.com/asdine/storm/v3"
	"github.com/benbjohnson/clock"
	"github.com/caarlos0/env/v6"
	"github.com/go-chi/chi"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

type EnvConfig struct {
	JWT_ISSUER  string `env:"VEHICLE_ID" envDefault:"DEV"`
	JWT_SECRET  string `env:"JWT_SECRET" envDefault:"xWumOlRfhu+LBi2F2e1yF4FiaopQ5mr8klL4fpILnlI="`
	PRODUCTION  bool   `env:"PRODUCTION" envDefault:"0"`
	DEBUG       bool   `env:"DEBUG" envDefault:"0"`
	SRCDIR      string `env:"SRCDIR" envDefault:"."`
	HTMLDIR     string `env:"HTMLDIR" envDefault:"./static/"`
	DB_PATH     string `env:"DB_PATH" envDefault:"./tmp/dev.db"`
	SERIAL_PORT string `env:"SERIAL_PORT"`
	SERIAL_BAUD int    `env:"SERIAL_BAUD" envDefault:"115200"`
	DB          *storm.DB
	Conductor   *comms.Conductor
	Demo        bool
}

var (
	ENV *EnvConfig
)

func init() {
	// Load main config
	ENV = new(EnvConfig)
	if err := env.Parse(ENV); err != nil {
		panic(err)
	}

	dbFile, err := filepath.Abs(ENV.DB_PATH)
	if err != nil {
		panic(err)
	}
	dir := filepath.Dir(dbFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		os.MkdirAll(dir, 0755)
	}

	db, err := openDb(dbFile)
	if err != nil {
		panic(err)
	}
	ENV.DB = db
}

func main() {
	// process flags
	demo := flag.Bool("demo", false, "Feed the dashboard from the built in simulator")
	port := flag.String("port", "0.0.0.0:8080", "Specify the ip:port to listen on")
	layoutFile := flag.String("layout", "", "Dashboard layout file (defaults to $SRCDIR/dashboard.yaml if present)")
	withShell := flag.Bool("shell", false, "Start the development shell on stdin")
	flag.Parse()

	logger.Init(ENV.DEBUG)
	defer ENV.DB.Close() // close database when finished

	ENV.Demo = *demo

	layout, err := loadLayout(*layoutFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to load layout")
	}

	dash, err := dashboard.New(layout)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to build dashboard")
	}
	defer dash.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a nil *Link must not end up inside the interface
	var steerer comms.Steerer
	var link *onboard.Link
	if ENV.SERIAL_PORT != "" && !ENV.Demo {
		link, err = onboard.OpenSerial(ENV.SERIAL_PORT, ENV.SERIAL_BAUD)
		if err != nil {
			logger.Fatal().Err(err).Str("port", ENV.SERIAL_PORT).Msg("unable to open serial link")
		}
		steerer = link
	}

	hub := comms.NewHub(comms.SUBSCRIBER_BUFFER)
	defer hub.Close()
	ENV.Conductor = comms.NewConductor(dash, hub, steerer, clock.New())
	go ENV.Conductor.Run(ctx)

	sink := func(r telemetry.Record) {
		ENV.Conductor.Submit(r)
	}

	switch {
	case ENV.Demo:
		logger.Info().Msg("running with simulated telemetry")
		sim := onboard.NewSimulator(clock.New(), time.Now().UnixNano())
		task := sim.Start(ctx, sink)
		defer task.Stop()
	case link != nil:
		logger.Info().Str("port", ENV.SERIAL_PORT).Int("baud", ENV.SERIAL_BAUD).Msg("reading telemetry from serial link")
		go func() {
			if err := link.Run(ctx, sink); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("serial link stopped")
			}
		}()
	default:
		logger.Info().Msg("no telemetry source, waiting for /ws/telemetry")
	}

	if *withShell {
		// Start an instance of the shell so it can be controlled from the CLI
		shell := newShell(ENV.Conductor)
		go shell.Start()
	}

	srv := &http.Server{Addr: *port, Handler: newRouter(ENV.Conductor)}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	logger.Info().Str("addr", *port).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// loadLayout reads the dashboard layout, falling back to the built in one
// when no file is given and none exists in SRCDIR.
func loadLayout(path string) (dashboard.Layout, error) {
	if path == "" {
		path = filepath.Join(ENV.SRCDIR, "dashboard.yaml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			logger.Info().Msg("using default layout")
			return dashboard.DefaultLayout(), nil
		}
	}
	logger.Info().Str("file", path).Msg("loading layout")
	return dashboard.LoadLayout(path)
}

func openDb(dbFile string) (db *storm.DB, err error) {
	db, err = storm.Open(dbFile)
	if err != nil {
		return
	}

	// call inits for each type
	if err := db.Init(&User{}); err != nil {
		return nil, err
	}

	return
}

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	fs := http.StripPrefix(path, http.FileServer(root))

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", 301).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.ServeHTTP(w, r)
	}))
}
