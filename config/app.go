package config

type App struct {
	Port          string  `env:"APP_PORT" default:"8080"`
	DatabaseURL   string  `env:"DATABASE_URL,required"`
	JWTSecret     string  `env:"JWT_SECRET,required"`
	DailyFineRate float64 `env:"DAILY_FINE_RATE" default:"5.00"`
	WebhookURL    string  `env:"NOTIFY_WEBHOOK_URL"`
	Env           string  `env:"APP_ENV" default:"dev"`
}
