package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaply/swaply-api/internal/models"
)

func TestRunOnceReleasesDueTransactions(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	due := f.toFundsHeld(t)

	// Вторая сделка ещё не просрочена
	f.clock = f.clock.Add(AutoReleaseDelay / 2)
	fresh := f.toFundsHeld(t)

	f.clock = f.clock.Add(AutoReleaseDelay/2 + time.Minute)

	scheduler := NewReleaseScheduler(f.machine, f.store, 10)
	released, err := scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	gotDue, err := f.store.GetEscrow(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowCompleted, gotDue.Status)

	gotFresh, err := f.store.GetEscrow(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowFundsHeld, gotFresh.Status)

	// Повторный проход ничего не находит
	released, err = scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, released)
}

func TestRunOnceSkipsDisputed(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx := f.toFundsHeld(t)
	_, _, err := f.machine.OpenDispute(ctx, f.buyer, tx.ID, "спор")
	require.NoError(t, err)

	f.clock = f.clock.Add(AutoReleaseDelay + time.Minute)

	scheduler := NewReleaseScheduler(f.machine, f.store, 10)
	released, err := scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, released)

	got, err := f.store.GetEscrow(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowDisputed, got.Status)
}

func TestSchedulerStartStop(t *testing.T) {
	f := newMachineFixture(t)

	scheduler := NewReleaseScheduler(f.machine, f.store, 10)
	scheduler.Start(time.Hour)
	scheduler.Stop()
	// Повторная остановка безопасна
	scheduler.Stop()
}
