package feed

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
}

// Item is a notification candidate extracted from a parsed feed. Title and
// Link are always non-empty; LinkHash is the deduplication key derived from
// the normalized link.
type Item struct {
	GUID     string
	Title    string
	Link     string
	LinkHash string
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Feed     ConfigFeed     `yaml:"feed"`
	Webhook  ConfigWebhook  `yaml:"webhook"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigFeed struct {
	Name string `yaml:"name"` // Display name used in notification headers
	URL  string `yaml:"url"`
}

type ConfigWebhook struct {
	URL string `yaml:"url"`
}

type ConfigSettings struct {
	Enabled bool `yaml:"enabled"`
	Timeout int  `yaml:"timeout"` // fetch timeout, seconds
}
