// Package cfgloader loads and validates configuration at the start of an application.
package cfgloader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"
)

const (
	CodeInvalidEnvironment = "INVALID_ENVIRONMENT"
	CodeConfigNotFound     = "CONFIG_NOT_FOUND"
	CodeInvalidConfig      = "INVALID_CONFIG"
)

// MustLoad is Load that logs the failure and exits the process.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		slog.Error("[cfgloader]: " + err.Error())
		os.Exit(1)
	}
	return cfg
}

// Load reads ${ConfigDir}/${ENVIRONMENT}.yaml into T.
//
// A .env file is loaded first when present, and ${VAR} references inside the
// YAML are expanded from the environment. Fields missing from the file get
// the value of their `default` tag, then the struct is checked against its
// `validate` tags. Fields tagged `mask:"true"` are starred out when the
// loaded config is printed.
func Load[T any](opts ...Option) (T, error) {
	var cfg T

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if reflect.ValueOf(cfg).Kind() == reflect.Ptr {
		return cfg, errx.New("[cfgloader]: type parameter must not be a pointer", errx.WithCode(CodeInvalidConfig))
	}

	_ = godotenv.Load()

	env := os.Getenv("ENVIRONMENT")
	if !slices.Contains([]string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}, env) {
		return cfg, errx.New(
			"ENVIRONMENT env variable is not set or invalid. Choices are: production, staging, dev, local, test",
			errx.WithCode(CodeInvalidEnvironment),
			errx.WithDetails(errx.D{"environment": env}),
		)
	}

	path := filepath.Join(o.ConfigDir, env+".yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, errx.New(
			fmt.Sprintf("config file not found in the path %s", path),
			errx.WithCode(CodeConfigNotFound),
		)
	}
	if err != nil {
		return cfg, errx.Wrap(err, errx.WithDetails(errx.D{"path": path}))
	}

	if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, errx.Wrap(err, errx.WithCode(CodeInvalidConfig), errx.WithDetails(errx.D{"path": path}))
	}

	if err = defaults.Set(&cfg); err != nil {
		return cfg, errx.Wrap(err, errx.WithCode(CodeInvalidConfig))
	}

	if err = validate(&cfg, env); err != nil {
		return cfg, err
	}

	if !o.Silent {
		printConfig(cfg)
	}

	return cfg, nil
}

func validate(cfg any, env string) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errx.Wrap(err, errx.WithCode(CodeInvalidConfig))
	}

	failed := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		failed = append(failed, fmt.Sprintf("%s: %s", fe.Namespace(), tag))
	}

	return errx.New(
		fmt.Sprintf("invalid fields in %s config -> %s", env, strings.Join(failed, ", ")),
		errx.WithCode(CodeInvalidConfig),
	)
}
