package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	SeedFile     string
	Port         string
	WorkerCount  int
	FetchTimeout int
	APIAccessKey string

	// Analytics cache
	RedisAddr string
	CacheTTL  int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
