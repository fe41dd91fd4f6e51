//go:build !demo

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/store"
)

func TestDefaultBuildChecksCredentials(t *testing.T) {
	st := store.New(store.Seed(testNow, time.UTC))
	strategy := NewStrategy(st, nil)
	_, ok := strategy.(*RealCredentialCheck)
	assert.True(t, ok)
	assert.Equal(t, "credentials", strategy.Name())
}
