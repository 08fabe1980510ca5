package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceURL(t *testing.T) {
	assert.Equal(t, "file://./scripts/migrations", sourceURL(""))
	assert.Equal(t, "file:///srv/migrations", sourceURL("/srv/migrations"))
}
