package state

import (
	"context"
	"os"

	"randevu/config"
	"randevu/notifications"
	"randevu/reminders"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/infinitybotlist/eureka/genconfig"
	"github.com/infinitybotlist/eureka/snippets"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Logger    *zap.SugaredLogger
	Context   = context.Background()
	Validator = validator.New()

	Config *config.Config

	// Reminder engine wiring, assembled in Setup
	Amqp      *amqp.Connection
	Notifier  notifications.Notifier
	Store     reminders.Store
	Reminders *reminders.Engine
)

func Setup() {
	Validator.RegisterValidation("notblank", validators.NotBlank)
	Validator.RegisterValidation("nospaces", snippets.ValidatorNoSpaces)

	genconfig.GenConfig(config.Config{})

	cfg, err := os.ReadFile("config.yaml")

	if err != nil {
		panic(err)
	}

	err = yaml.Unmarshal(cfg, &Config)

	if err != nil {
		panic(err)
	}

	err = Validator.Struct(Config)

	if err != nil {
		panic("configError: " + err.Error())
	}

	Logger = snippets.CreateZap().Sugar()

	Pool, err = pgxpool.New(Context, Config.Meta.PostgresURL)

	if err != nil {
		panic(err)
	}

	rOptions, err := redis.ParseURL(Config.Meta.RedisURL)

	if err != nil {
		panic(err)
	}

	Redis = redis.NewClient(rOptions)

	if Config.Meta.AmqpURL != "" {
		Amqp, err = amqp.Dial(Config.Meta.AmqpURL)

		if err != nil {
			panic(err)
		}

		ch, err := Amqp.Channel()

		if err != nil {
			panic(err)
		}

		Notifier, err = notifications.NewAmqpNotifier(ch, Config.Reminders.Exchange, Logger)

		if err != nil {
			panic(err)
		}
	} else {
		Logger.Warn("No AMQP URL configured, reminder events will not be published")
		Notifier = notifications.Discard{}
	}

	Store = reminders.NewPgStore(Pool)
	Reminders = reminders.New(Store, Notifier, Logger)
}
