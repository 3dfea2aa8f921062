package meta

import "sync"

//nolint:gochecknoglobals // process-wide service identity
var (
	serviceName    string
	serviceVersion string
	serviceOnce    sync.Once
)

// SetServiceInfo records the service name and version. Only the first call has effect.
func SetServiceInfo(name, version string) {
	serviceOnce.Do(func() {
		serviceName = name
		serviceVersion = version
	})
}

// GetServiceName returns the recorded service name.
func GetServiceName() string {
	return serviceName
}

// GetServiceVersion returns the recorded service version.
func GetServiceVersion() string {
	return serviceVersion
}

// ServiceMeta returns the service identity as context metadata.
func ServiceMeta() map[ContextKey]string {
	return map[ContextKey]string{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
	}
}
