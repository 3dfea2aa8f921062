package main

import (
	"time"

	"github.com/ILGurin/spp-course-work/file"
	"github.com/ILGurin/spp-course-work/filestore/miniowr"
	"github.com/ILGurin/spp-course-work/observability/logger"
	"github.com/ILGurin/spp-course-work/observability/tracing"
	"github.com/ILGurin/spp-course-work/pg"
)

const (
	storeMinio  = "minio"
	storeMemory = "memory"
)

// Config is the configuration of the storage service.
type Config struct {
	Service ServiceConfig `yaml:"service"`

	Logger  logger.Config  `yaml:"logger"`
	Tracing tracing.Config `yaml:"tracing"`

	Metadata    MetadataConfig    `yaml:"metadata"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Storage     StorageConfig     `yaml:"storage"`
	Workpool    WorkpoolConfig    `yaml:"workpool"`
}

type ServiceConfig struct {
	Name    string `yaml:"name"    default:"storage"`
	Version string `yaml:"version" default:"dev"`
}

// MetadataConfig selects where directory and file rows live.
type MetadataConfig struct {
	Driver   string     `yaml:"driver"   default:"postgres" validate:"oneof=postgres memory"`
	Postgres *pg.Config `yaml:"postgres" validate:"required_if=Driver postgres"`
}

// ObjectStoreConfig selects where file contents live.
type ObjectStoreConfig struct {
	Driver string          `yaml:"driver" default:"minio" validate:"oneof=minio memory"`
	Minio  *miniowr.Config `yaml:"minio"  validate:"required_if=Driver minio"`
}

type StorageConfig struct {
	// ProvisionAttempts bounds the create/conflict/refetch cycles when a
	// user's root directory is created concurrently.
	ProvisionAttempts uint          `yaml:"provision_attempts" default:"3"    validate:"gte=1"`
	ProvisionDelay    time.Duration `yaml:"provision_delay"    default:"10ms"`

	file.Config `yaml:",inline"`
}

type WorkpoolConfig struct {
	// Size is the number of storage operations allowed to run at once.
	Size int `yaml:"size" default:"16" validate:"gte=1"`

	// ShutdownTimeout bounds the wait for running operations on exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
}
