package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeOrganizationSlug(t *testing.T) {
	assert.Equal(t, "acme-inc", MakeOrganizationSlug("Acme Inc"))
	assert.True(t, IsValidOrganizationSlug("acme-inc"))
	assert.False(t, IsValidOrganizationSlug("Acme Inc"))
	assert.False(t, IsValidOrganizationSlug("ab"))
}
