package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestRedactRef(t *testing.T) {
	assert.Equal(t, "farm***", RedactRef("farm-8f3a2c91"))
	assert.Equal(t, "***", RedactRef("x1"))
}
