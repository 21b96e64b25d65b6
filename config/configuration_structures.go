package config

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	SecretKey       string `yaml:"secret_key"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
}

// SetupTokenConfig : настройки одноразовых setup-токенов
type SetupTokenConfig struct {
	TTL string `yaml:"ttl"`
}

// AdminConfig : администратор по умолчанию, создаваемый при первом запуске
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// NotifierConfig : webhook, на который отправляется setup-токен нового аккаунта
type NotifierConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// ThrottleConfig : ограничение количества попыток входа
type ThrottleConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Window      string `yaml:"window"`
}

// SweepConfig : период фоновой очистки отозванных и просроченных refresh-токенов
type SweepConfig struct {
	Interval string `yaml:"interval"`
}
