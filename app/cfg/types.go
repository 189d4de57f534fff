package cfg

type Cfg struct {
	// Storage configuration
	RedisAddr string
	DBPath    string

	// Application configuration
	TargetsDir        string
	Port              string
	EnableHTTP        bool
	WorkerCount       int
	SchedulerInterval int
	SeenTTLDays       int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
