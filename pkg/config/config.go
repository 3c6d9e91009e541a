package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Elastic   ElasticConfig
	Search    SearchConfig
	Sweep     SweepConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
	Vector    VectorConfig
	Embedding EmbeddingConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type ElasticConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Index    string
}

// SearchConfig carries the tunables of the similarity search: which
// fields hold the AI-generated candidate tokens, the default boost per
// clause kind, and the display toggles of the exploration frontend.
type SearchConfig struct {
	Strategy            string
	ResultCount         int
	LinkBase            string
	SubjectBoost        float64
	TagsField           string
	TagsFieldLabel      string
	TagsBoost           float64
	SentencesField      string
	SentencesFieldLabel string
	SentencesBoost      float64
	RelationFields      []string
	Debug               bool
	Statistics          bool
	StripHTML           bool
	SegmentFallback     bool
}

// SweepConfig is the boost grid evaluated by the sweep endpoint.
type SweepConfig struct {
	ResultCount    int
	SubjectBoosts  []float64
	TagBoosts      []float64
	SentenceBoosts []float64
	Strategies     []string
}

type RedisConfig struct {
	Host       string
	Port       int
	Password   string
	DB         int
	TTLSeconds int
}

type SQLiteConfig struct {
	Path string
}

type VectorConfig struct {
	Enabled        bool
	Endpoint       string
	APIKey         string
	CollectionName string
	VectorDim      int
}

type EmbeddingConfig struct {
	APIKey string
	Model  string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/issuelens")

	viper.SetEnvPrefix("ISSUELENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Search.ResultCount <= 0 {
		return nil, fmt.Errorf("search.resultCount must be positive, got %d", config.Search.ResultCount)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("elastic.host", "127.0.0.1")
	viper.SetDefault("elastic.port", 9200)
	viper.SetDefault("elastic.username", "")
	viper.SetDefault("elastic.password", "")
	viper.SetDefault("elastic.index", "issues_with_notes")

	viper.SetDefault("search.strategy", "weighted_should")
	viper.SetDefault("search.resultCount", 10)
	viper.SetDefault("search.linkBase", "https://forge.typo3.org/issues/")
	viper.SetDefault("search.subjectBoost", 1.0)
	viper.SetDefault("search.tagsField", "ai_tags")
	viper.SetDefault("search.tagsFieldLabel", "Tags (AI generated)")
	viper.SetDefault("search.tagsBoost", 0.2)
	viper.SetDefault("search.sentencesField", "ai_sentences")
	viper.SetDefault("search.sentencesFieldLabel", "Sentences (AI generated)")
	viper.SetDefault("search.sentencesBoost", 0.000001)
	viper.SetDefault("search.relationFields", []string{"relations", "relations_dupe", "relations_sequence"})
	viper.SetDefault("search.debug", false)
	viper.SetDefault("search.statistics", false)
	viper.SetDefault("search.stripHTML", true)
	viper.SetDefault("search.segmentFallback", false)

	viper.SetDefault("sweep.resultCount", 10)
	viper.SetDefault("sweep.subjectBoosts", []float64{0.01, 0.1, 0.5})
	viper.SetDefault("sweep.tagBoosts", []float64{0.2, 0.5, 1.0, 1.5, 2.0})
	viper.SetDefault("sweep.sentenceBoosts", []float64{0.2, 0.5, 1.0, 1.5, 2.0})
	viper.SetDefault("sweep.strategies", []string{"weighted_should", "multi_match"})

	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSeconds", 300)

	viper.SetDefault("sqlite.path", "./data/issuelens.db")

	viper.SetDefault("vector.enabled", false)
	viper.SetDefault("vector.endpoint", "localhost:19530")
	viper.SetDefault("vector.collectionName", "issue_embeddings")
	viper.SetDefault("vector.vectorDim", 1536)

	viper.SetDefault("embedding.model", "text-embedding-3-small")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
