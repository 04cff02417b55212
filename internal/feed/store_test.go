package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/marinedrive/phyto-backend/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func detection(name string) models.Detection {
	return models.Detection{Name: name, Count: models.NumberValue(1)}
}

func TestStore_SetAndGet(t *testing.T) {
	s := NewStore(nil)
	assert.Empty(t, s.Get())

	in := []models.Detection{detection("Ceratium")}
	s.Set(in)
	in[0].Name = "mutated"

	assert.Equal(t, []models.Detection{detection("Ceratium")}, s.Get())
}

func TestStore_SubscribeNotifies(t *testing.T) {
	s := NewStore(nil)
	updates := make(chan struct{}, 4)
	unsubscribe := s.Subscribe(func() { updates <- struct{}{} })
	require.Equal(t, 1, s.Subscribers())

	s.Set([]models.Detection{detection("a")})
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("subscriber was not notified")
	}

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, s.Subscribers())

	s.Set(nil)
	assert.Empty(t, updates)
}

func TestStore_PanickingSubscriberDoesNotBreakOthers(t *testing.T) {
	s := NewStore(nil)
	var called bool
	s.Subscribe(func() { panic("boom") })
	s.Subscribe(func() { called = true })

	assert.NotPanics(t, func() { s.Set([]models.Detection{detection("a")}) })
	assert.True(t, called)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := s.Subscribe(func() {})
			s.Set([]models.Detection{detection("a")})
			_ = s.Get()
			unsub()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, s.Subscribers())
}
