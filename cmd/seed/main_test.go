package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_MissingItemsFlagReturnsError(t *testing.T) {
	err := run([]string{"seed"})
	assert.ErrorContains(t, err, "items")
}
