package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
	"time"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId int64  `yaml:"admin_id" env:"TELEGRAM_ADMIN_ID" env-default:"0"`
		BotName string `yaml:"bot_name" env-default:"StoreChatBot"`
		Enabled bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"storechat"`
	} `yaml:"mongo"`
	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
		Prefix   string `yaml:"prefix" env-default:"storechat:"`
	} `yaml:"redis"`
	Auth struct {
		JwtSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:""`
		TokenTTL  time.Duration `yaml:"token_ttl" env-default:"24h"`
	} `yaml:"auth"`
	Chat struct {
		AutoReplyDelay time.Duration `yaml:"auto_reply_delay" env-default:"1s"`
		SupportName    string        `yaml:"support_name" env-default:"Delightico Support"`
		RulesPath      string        `yaml:"rules_path" env-default:""`
		StrictTickets  bool          `yaml:"strict_tickets" env-default:"false"`
		SendBuffer     int           `yaml:"send_buffer" env-default:"256"`
		AllowedOrigins []string      `yaml:"allowed_origins" env-separator:","`
	} `yaml:"chat"`
	Metrics struct {
		Enabled bool `yaml:"enabled" env-default:"true"`
	} `yaml:"metrics"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env:"PORT" env-default:"9100"`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
