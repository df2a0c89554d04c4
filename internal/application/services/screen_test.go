package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/application/services"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
)

func TestScreen_GenerationGate(t *testing.T) {
	s := services.NewScreen("s1", entities.RoleDoctor)

	g1 := s.BeginFetch()
	g2 := s.BeginFetch()

	assert.False(t, s.Apply(g1, &entities.DashboardView{Generation: g1}))
	assert.Nil(t, s.View())
	assert.True(t, s.Apply(g2, &entities.DashboardView{Generation: g2}))
	assert.Equal(t, g2, s.View().Generation)
}

func TestScreen_SingleModal(t *testing.T) {
	s := services.NewScreen("s1", entities.RoleDoctor)
	assert.Equal(t, entities.ModalNone, s.Modal().Kind())

	s.OpenModal(entities.PatientDetailModal{RecordID: "a"})
	s.OpenModal(entities.PrescriptionModal{RecordID: "b"})

	assert.Equal(t, entities.ModalPrescription, s.Modal().Kind())
	assert.Equal(t, "b", s.Modal().Subject())

	s.CloseModal()
	assert.Equal(t, entities.ModalNone, s.Modal().Kind())
}

func TestScreenRegistry(t *testing.T) {
	r := services.NewScreenRegistry()

	a := r.Get("s1", entities.RoleDoctor)
	assert.Same(t, a, r.Get("s1", entities.RoleDoctor))
	assert.NotSame(t, a, r.Get("s1", entities.RolePatient))
	assert.Equal(t, 2, r.Len())

	assert.Zero(t, r.Prune(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, r.Prune(time.Millisecond))
	assert.Zero(t, r.Len())
}

func TestMemoryInFlightGuard(t *testing.T) {
	g := services.NewMemoryInFlightGuard()
	ctx := context.Background()

	release, ok, err := g.Acquire(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = g.Acquire(ctx, "k")
	assert.False(t, ok)

	_, ok, _ = g.Acquire(ctx, "other")
	assert.True(t, ok)

	release()
	release()
	_, ok, _ = g.Acquire(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryInFlightGuard_Concurrent(t *testing.T) {
	g := services.NewMemoryInFlightGuard()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := g.Acquire(context.Background(), "same"); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
