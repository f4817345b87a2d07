package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable through STORE_BACKEND.
const (
	StoreDynamo = "dynamodb"
	StoreMongo  = "mongodb"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	// SenderAuthToken is the secret shared between the desktop client and every endpoint.
	SenderAuthToken string

	StoreBackend string
	DynamoTables DynamoTables
	Mongo        MongoConfig

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	S3BucketName   string
	MaxUploadBytes int64
	SNSTopicARN    string

	ResendAPIKey  string
	MailSender    string
	MailRecipient string

	KeepHistory       time.Duration // records older than this are purged by the caretaker
	CaretakerPageSize int32
	CaretakerBudget   time.Duration // upper bound for a run triggered over HTTP

	StoreTimeout    time.Duration
	PublishTimeout  time.Duration
	ProviderTimeout time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Feedback string
}

// MongoConfig locates the feedback collection when STORE_BACKEND=mongodb.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		SenderAuthToken: os.Getenv("FEEDBACK_SENDER_AUTHTOKEN"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreDynamo)),
		DynamoTables: DynamoTables{
			Feedback: getEnv("DYNAMO_TABLE_FEEDBACK", "fmpfeedback"),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGODB_DATABASE", "feedback"),
			Collection: getEnv("MONGODB_COLLECTION", "fmpfeedback"),
		},

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		S3BucketName:   getEnv("S3_BUCKET_NAME", "fmpfeedback-uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 1<<20)),
		SNSTopicARN:    getEnv("SNS_TOPIC_ARN", ""),

		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
		MailSender:    getEnv("FEEDBACK_MAIL_SENDER", ""),
		MailRecipient: getEnv("FEEDBACK_MAIL_RECIPIENT", ""),

		KeepHistory:       time.Duration(getEnvInt("CARETAKER_KEEP_HISTORY", 30)) * 24 * time.Hour,
		CaretakerPageSize: int32(getEnvInt("CARETAKER_PAGE_SIZE", 100)),
		CaretakerBudget:   getEnvDuration("CARETAKER_HTTP_BUDGET", 20*time.Second),

		StoreTimeout:    getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		PublishTimeout:  getEnvDuration("PUBLISH_TIMEOUT", 5*time.Second),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// MailConfigured reports whether every value the relay needs to send mail is set.
func (c *Config) MailConfigured() bool {
	return c.ResendAPIKey != "" && c.MailSender != "" && c.MailRecipient != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
