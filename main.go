package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/CodedInternet/firebot/comms"
	"github.com/CodedInternet/firebot/onboard"
	"github.com/CodedInternet/firebot/onboard/hardware"
	"github.com/asdine/storm/v3"
	"github.com/caarlos0/env/v6"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type EnvConfig struct {
	JWT_ISSUER string `env:"JWT_ISSUER" envDefault:"DEV"`
	JWT_SECRET string `env:"JWT_SECRET" envDefault:"xWumOlRfhu+LBi2F2e1yF4FiaopQ5mr8klL4fpILnlI="`
	DEBUG      bool   `env:"DEBUG" envDefault:"0"`
	CONFIG     string `env:"FIREBOT_CONFIG" envDefault:"./firebot.yaml"`
	DBFILE     string `env:"FIREBOT_DB" envDefault:"./tmp/firebot.db"`
	HTMLDIR    string `env:"HTMLDIR" envDefault:"./frontend/dist/"`
	DB         *storm.DB
	Bot        *onboard.Bot
	Journal    *onboard.Journal
	Conductor  *comms.Conductor
	Simulated  bool
}

var (
	ENV *EnvConfig
)

func init() {
	// a .env file is optional, real environment variables take precedence
	godotenv.Load()

	ENV = new(EnvConfig)
	if err := env.Parse(ENV); err != nil {
		log.Fatal(err)
	}
}

func main() {
	simulated := flag.Bool("sim", false, "Run against the simulated board")
	port := flag.String("port", "0.0.0.0:80", "Specify the ip:port to listen on")
	interactive := flag.Bool("shell", true, "Start the development shell")
	flag.Parse()

	db, err := openDb(ENV.DBFILE)
	if err != nil {
		log.Fatal(err)
	}
	ENV.DB = db
	defer ENV.DB.Close() // close database when finished

	config, err := onboard.LoadConfig(ENV.CONFIG)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hal hardware.HAL
	ENV.Simulated = *simulated
	if ENV.Simulated {
		log.Println("Creating simulator")
		board := onboard.NewSimulatedBoard(config)
		go board.Run(ctx)
		hal = board
	} else {
		board, err := hardware.NewFirmataHAL(config.Board.Port)
		if err != nil {
			log.Fatal(err)
		}
		board.OnError = func(err error) {
			log.Println("board:", err)
		}
		defer board.Close()
		hal = board
	}

	ENV.Bot = onboard.NewBot(hal, config)
	ENV.Bot.Debug = ENV.DEBUG

	ENV.Journal, err = onboard.NewJournal(ENV.DB)
	if err != nil {
		log.Fatal(err)
	}
	ENV.Bot.Subscribe(ENV.Journal.Observe)

	ENV.Conductor = comms.NewConductor(ENV.Bot)
	ENV.Bot.Subscribe(ENV.Conductor.Broadcast)

	if *interactive {
		// Start an instance of the shell so it can be controlled from the CLI
		go newShell(ENV.Bot, ENV.Journal, ENV.DB).Start()
	}

	srv := &http.Server{
		Addr:    *port,
		Handler: newRouter(),
	}

	go func() {
		if err := ENV.Bot.Run(ctx); err != context.Canceled {
			log.Println("control loop:", err)
		}
		srv.Shutdown(context.Background())
	}()

	log.Println("Listening on", *port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func newRouter() chi.Router {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	r.Route("/api", apiRoutes)

	r.Route("/ws", func(r chi.Router) {
		if !ENV.DEBUG {
			r.Use(ValidateJWT)
		} else {
			log.Println("Running in debug mode. Stream authentication disabled.")
		}

		r.Get("/control", StreamHandler)
	})

	// add static base routes
	FileServer(r, "/", http.Dir(ENV.HTMLDIR))

	return r
}

func openDb(dbFile string) (db *storm.DB, err error) {
	dbFile, err = filepath.Abs(dbFile)
	if err != nil {
		return
	}
	if err = os.MkdirAll(filepath.Dir(dbFile), 0755); err != nil {
		return nil, errors.Wrap(err, "unable to create db directory")
	}

	db, err = storm.Open(dbFile)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open db %s", dbFile)
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
