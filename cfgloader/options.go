package cfgloader

// Options holds configuration options for Load and MustLoad.
type Options struct {
	// Silent disables printing of the loaded (masked) config.
	Silent bool

	// ConfigDir is the directory holding ${ENVIRONMENT}.yaml files.
	ConfigDir string
}

// Option is a functional option for Load and MustLoad.
type Option func(*Options)

// WithSilent disables config printing.
func WithSilent() Option {
	return func(o *Options) {
		o.Silent = true
	}
}

// WithConfigDir overrides the default "./config" directory.
func WithConfigDir(dir string) Option {
	return func(o *Options) {
		o.ConfigDir = dir
	}
}

func defaultOptions() Options {
	return Options{ConfigDir: "./config"}
}
