package main

import (
	"context"
	"time"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/routes"
	"github.com/cppla/blogapi/store"
	"github.com/cppla/blogapi/store/gormstore"
	"github.com/cppla/blogapi/store/memstore"
	"github.com/cppla/blogapi/store/mongostore"
	"github.com/cppla/blogapi/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	st, err := openStore(cfg)
	if err != nil {
		utils.Sugar.Fatalf("open %s store: %v", cfg.DBDriver, err)
	}
	defer st.Close()

	rc := utils.NewRedis(cfg)
	if rc != nil {
		defer rc.Close()
	}

	r := routes.SetupRouter(cfg, routes.Dependencies{
		Store:     st,
		Tokens:    utils.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn),
		Hasher:    utils.NewBcryptHasher(cfg.BcryptCost),
		Blacklist: utils.NewTokenBlacklist(rc),
	})

	utils.Sugar.Infof("Starting server on port %s (store=%s)", cfg.AppPort, cfg.DBDriver)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

func openStore(cfg config.AppConfig) (store.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		uri := cfg.DatabaseURI
		if uri == "" {
			uri = "mongodb://127.0.0.1:27017"
		}
		return mongostore.Open(ctx, uri, cfg.MongoDatabase)
	case config.DriverMemory:
		utils.Sugar.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	default:
		return gormstore.Open(cfg)
	}
}
