package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	_ "github.com/bigcity/rewardstrategy/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	assert.NotPanics(t, main)
}
