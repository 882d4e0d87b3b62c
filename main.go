package main

import (
	"StoreChat/bot"
	"StoreChat/impl/core"
	"StoreChat/internal/cache"
	"StoreChat/internal/config"
	"StoreChat/internal/database"
	"StoreChat/internal/http-server/api"
	"StoreChat/internal/http-server/handlers/health"
	"StoreChat/internal/lib/logger"
	"StoreChat/internal/lib/sl"
	"StoreChat/internal/pubsub"
	"StoreChat/internal/responder"
	"StoreChat/internal/service/auth"
	"StoreChat/internal/ws"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const presenceStaleAfter = 2 * time.Minute

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Telegram bot for admin alerts
	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
			tgBot = nil
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")
		}
	}

	lg.Info("starting storechat", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	handler := core.New(lg)
	if tgBot != nil {
		handler.SetAlertSender(tgBot)
	}

	hub := ws.NewHub(lg)
	hub.SetHandler(handler)
	hub.SetAllowedOrigins(conf.Chat.AllowedOrigins)
	hub.SetSendBuffer(conf.Chat.SendBuffer)
	handler.SetHub(hub)

	authService := auth.NewAuthService(lg, conf.Auth.JwtSecret, conf.Auth.TokenTTL)
	handler.SetAuthService(authService)
	if conf.Auth.JwtSecret == "" {
		lg.Warn("jwt secret not set, rest api and token login disabled")
	}

	rules, err := responder.Load(conf.Chat.RulesPath)
	if err != nil {
		lg.Error("auto responder rules", slog.String("path", conf.Chat.RulesPath), sl.Err(err))
		rules = responder.Default()
	}
	handler.SetResponder(rules)
	handler.SetAutoReplyDelay(conf.Chat.AutoReplyDelay)
	handler.SetSupportName(conf.Chat.SupportName)
	handler.SetStrictTickets(conf.Chat.StrictTickets)

	var storage health.Checker
	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.Error("mongo client", sl.Err(err))
	}
	if db != nil {
		handler.SetRepository(db)
		storage = db
		defer db.Close()

		indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err = db.EnsureMessageIndexes(indexCtx); err != nil {
			lg.Warn("message indexes", sl.Err(err))
		}
		cancel()

		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	} else {
		lg.Warn("mongo disabled, messages will not be stored")
	}

	if conf.Redis.Enabled {
		rdb, err := cache.NewRedisClient(conf)
		if err != nil {
			lg.Error("redis client", sl.Err(err))
		} else {
			defer func() {
				_ = rdb.Close()
			}()

			backplane := pubsub.NewRedisBackplane(rdb, conf.Redis.Prefix, lg)
			hub.SetBackplane(backplane)
			go func() {
				if err := backplane.Run(ctx, hub); err != nil && ctx.Err() == nil {
					lg.Error("backplane stopped", sl.Err(err))
				}
			}()

			presence := cache.NewRedisPresence(rdb, conf.Redis.Prefix, backplane.InstanceID(), presenceStaleAfter)
			hub.SetPresence(presence)
			handler.SetPresence(presence)

			lg.With(
				slog.String("addr", conf.Redis.Addr),
				slog.String("instance", backplane.InstanceID()),
			).Info("redis backplane initialized")
		}
	} else {
		lg.Debug("redis disabled, running single instance")
	}

	handler.Init()
	defer handler.Stop()
	defer hub.Shutdown()

	// *** blocking start with http server ***
	err = api.New(ctx, conf, lg, handler, hub, storage)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Info("service stopped")
}
