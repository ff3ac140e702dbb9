package config

import "time"

// PipelineSettings is read once at startup and handed to service constructors.
type PipelineSettings struct {
	GeminiAPIKey           string
	GeminiModel            string
	CategorizationProvider string // gemini | openai
	OpenAIAPIKey           string
	OpenAIModel            string

	BlobStore          string // local | gcs
	UploadDir          string
	BaseURL            string
	GCSBucket          string
	GCSCredentialsJSON string

	RoundingPolicy        string
	MaxExtractedItems     int
	AIRequestTimeout      time.Duration
	MaxUploadBytes        int
	ExpectedRunSeconds    int
	KeepFailedUploads     bool
	StaleProcessingAfter  time.Duration
	HighPriorityThreshold int
	DefaultTaskDue        time.Duration
}

func LoadPipelineSettings() PipelineSettings {
	return PipelineSettings{
		GeminiAPIKey:           GetEnv("GEMINI_API_KEY"),
		GeminiModel:            GetEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		CategorizationProvider: GetEnvOrDefault("CATEGORIZATION_PROVIDER", "gemini"),
		OpenAIAPIKey:           GetEnv("OPENAI_API_KEY"),
		OpenAIModel:            GetEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),

		BlobStore:          GetEnvOrDefault("BLOB_STORE", "local"),
		UploadDir:          GetEnvOrDefault("UPLOAD_DIR", "./uploads"),
		BaseURL:            GetEnvOrDefault("BASE_URL", "http://localhost:8080"),
		GCSBucket:          GetEnv("GCS_BUCKET"),
		GCSCredentialsJSON: GetEnv("GCS_CREDENTIALS_JSON"),

		RoundingPolicy:        GetEnvOrDefault("ROUNDING_POLICY", "charm99"),
		MaxExtractedItems:     GetEnvInt("MAX_EXTRACTED_ITEMS", 20),
		AIRequestTimeout:      GetEnvDuration("AI_REQUEST_TIMEOUT", 90*time.Second),
		MaxUploadBytes:        GetEnvInt("MAX_UPLOAD_MB", 16) * 1024 * 1024,
		ExpectedRunSeconds:    GetEnvInt("EXPECTED_RUN_SECONDS", 60),
		KeepFailedUploads:     GetEnvBool("KEEP_FAILED_UPLOADS", false),
		StaleProcessingAfter:  GetEnvDuration("STALE_PROCESSING_AFTER", 15*time.Minute),
		HighPriorityThreshold: GetEnvInt("HIGH_PRIORITY_THRESHOLD", 10),
		DefaultTaskDue:        GetEnvDuration("DEFAULT_TASK_DUE", 24*time.Hour),
	}
}
