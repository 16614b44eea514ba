package config

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseURI   string `env:"DATABASE_URI"`
	SecretKey     string `env:"SECRET_KEY"`
	ClientTimeout int    `env:"CLIENT_TIMEOUT"`
	LogLevel      string `env:"LOG_LEVEL"`
	Workers       int    `env:"WORKERS"`
}
