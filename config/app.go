package config

type App struct {
	Port            string `env:"APP_PORT" default:"8080"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	JWTSecret       string `env:"JWT_SECRET,required"`
	RoutingBaseURL  string `env:"ROUTING_BASE_URL"`
	GeocoderBaseURL string `env:"GEOCODER_BASE_URL"`
	Env             string `env:"APP_ENV" default:"dev"`

	// delivery / rental knobs
	ReturnDeadlineDays int     `env:"RETURN_DEADLINE_DAYS" default:"30"`
	DailyLateFee       float64 `env:"DAILY_LATE_FEE" default:"1.00"`
}
