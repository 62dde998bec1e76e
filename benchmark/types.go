package benchmark

type Config struct {
	Host string
	Port int
}

type Logger struct {
	Level string
}

type Database struct {
	Config *Config
	Logger *Logger
}

type Cache struct {
	Logger *Logger
}

type Repository struct {
	DB    *Database
	Cache *Cache
}

type Service struct {
	Repo   *Repository
	Logger *Logger
}

func NewConfig() *Config {
	return &Config{Host: "localhost", Port: 8080}
}

func NewLogger() *Logger {
	return &Logger{Level: "info"}
}

func NewDatabase(cfg *Config, log *Logger) *Database {
	return &Database{Config: cfg, Logger: log}
}

func NewCache(log *Logger) *Cache {
	return &Cache{Logger: log}
}

func NewRepository(db *Database, cache *Cache) *Repository {
	return &Repository{DB: db, Cache: cache}
}

func NewService(repo *Repository, log *Logger) *Service {
	return &Service{Repo: repo, Logger: log}
}
