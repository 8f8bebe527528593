package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeartbeat_BeatResetsAge(t *testing.T) {
	hb := NewHeartbeat()
	assert.Less(t, hb.Age(), time.Second)

	hb.mu.Lock()
	hb.last = time.Now().Add(-5 * time.Minute)
	hb.mu.Unlock()
	assert.Greater(t, hb.Age(), 4*time.Minute)

	hb.Beat()
	assert.Less(t, hb.Age(), time.Second)
}

func TestHeartbeat_ConcurrentBeats(t *testing.T) {
	hb := NewHeartbeat()
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				hb.Beat()
				hb.Age()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	assert.Less(t, hb.Age(), time.Second)
}
