package meta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ILGurin/spp-course-work/meta"
)

func TestServiceInfo(t *testing.T) {
	meta.SetServiceInfo("storage", "1.2.3")
	meta.SetServiceInfo("other", "9.9.9")

	assert.Equal(t, "storage", meta.GetServiceName())
	assert.Equal(t, "1.2.3", meta.GetServiceVersion())
	assert.Equal(t, map[meta.ContextKey]string{
		meta.ServiceName:    "storage",
		meta.ServiceVersion: "1.2.3",
	}, meta.ServiceMeta())
}
