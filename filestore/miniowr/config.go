package miniowr

// Config defines the configuration options for the MinIO client.
type Config struct {
	// Endpoint is the MinIO server endpoint (e.g., "localhost:9000").
	Endpoint string `yaml:"endpoint" validate:"required"`

	AccessKey string `yaml:"access_key" validate:"required"`
	SecretKey string `yaml:"secret_key" validate:"required" mask:"true"`

	// Region is passed to bucket creation. Empty uses the server default.
	Region string `yaml:"region"`

	UseSSL bool `yaml:"use_ssl" default:"false"`
}
