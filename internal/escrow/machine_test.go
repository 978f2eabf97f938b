package escrow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaply/swaply-api/internal/models"
	"github.com/swaply/swaply-api/internal/store"
	"github.com/swaply/swaply-api/internal/swaperr"
)

type machineFixture struct {
	store   *store.MemoryStore
	machine *Machine
	buyer   uuid.UUID
	seller  uuid.UUID
	listing uuid.UUID
	clock   time.Time
}

func newMachineFixture(t *testing.T) *machineFixture {
	t.Helper()

	st := store.NewMemoryStore()
	f := &machineFixture{
		store:   st,
		machine: NewMachine(st, ReferenceValidator{}, nil),
		buyer:   uuid.New(),
		seller:  uuid.New(),
		listing: uuid.New(),
		clock:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.machine.SetClock(func() time.Time { return f.clock })

	st.AddUser(&models.User{ID: f.buyer, Username: "buyer"})
	st.AddUser(&models.User{ID: f.seller, Username: "seller", HasPayoutDetails: true})
	st.AddListing(&models.Listing{
		ID:       f.listing,
		UserID:   f.seller,
		Type:     models.ListingMarketplace,
		Currency: "USD",
	})
	return f
}

func (f *machineFixture) initiate(t *testing.T) *models.EscrowTransaction {
	t.Helper()
	tx, err := f.machine.Initiate(context.Background(), f.buyer, InitiateRequest{
		SellerID:  f.seller,
		ListingID: f.listing,
		Type:      models.EscrowTypeEscrow,
		Amount:    decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	return tx
}

func (f *machineFixture) toFundsHeld(t *testing.T) *models.EscrowTransaction {
	t.Helper()
	tx := f.initiate(t)
	held, _, err := f.machine.ConfirmPayment(context.Background(), f.buyer, tx.ID, "pay_ref_1")
	require.NoError(t, err)
	return held
}

func TestInitiateValidation(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		buyer uuid.UUID
		req   InitiateRequest
		kind  swaperr.Kind
	}{
		{
			name:  "покупатель и продавец совпадают",
			buyer: f.seller,
			req: InitiateRequest{
				SellerID: f.seller, ListingID: f.listing,
				Type: models.EscrowTypeEscrow, Amount: decimal.NewFromInt(100),
			},
			kind: swaperr.KindValidation,
		},
		{
			name:  "неположительная сумма",
			buyer: f.buyer,
			req: InitiateRequest{
				SellerID: f.seller, ListingID: f.listing,
				Type: models.EscrowTypeEscrow, Amount: decimal.Zero,
			},
			kind: swaperr.KindValidation,
		},
		{
			name:  "неизвестный тип сделки",
			buyer: f.buyer,
			req: InitiateRequest{
				SellerID: f.seller, ListingID: f.listing,
				Type: "credit", Amount: decimal.NewFromInt(100),
			},
			kind: swaperr.KindValidation,
		},
		{
			name:  "несуществующее объявление",
			buyer: f.buyer,
			req: InitiateRequest{
				SellerID: f.seller, ListingID: uuid.New(),
				Type: models.EscrowTypeEscrow, Amount: decimal.NewFromInt(100),
			},
			kind: swaperr.KindNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.machine.Initiate(ctx, tc.buyer, tc.req)
			assert.Equal(t, tc.kind, swaperr.KindOf(err))
		})
	}
}

func TestInitiateRejectsBarterListing(t *testing.T) {
	f := newMachineFixture(t)
	barterLot := uuid.New()
	f.store.AddListing(&models.Listing{ID: barterLot, UserID: f.seller, Type: models.ListingBarter})

	_, err := f.machine.Initiate(context.Background(), f.buyer, InitiateRequest{
		SellerID:  f.seller,
		ListingID: barterLot,
		Type:      models.EscrowTypeEscrow,
		Amount:    decimal.NewFromInt(100),
	})
	assert.True(t, swaperr.IsValidation(err))
}

func TestInitiateRequiresPayoutDetailsForEscrow(t *testing.T) {
	f := newMachineFixture(t)
	poorSeller := uuid.New()
	lot := uuid.New()
	f.store.AddUser(&models.User{ID: poorSeller, Username: "noscard"})
	f.store.AddListing(&models.Listing{ID: lot, UserID: poorSeller, Type: models.ListingMarketplace})

	req := InitiateRequest{
		SellerID:  poorSeller,
		ListingID: lot,
		Type:      models.EscrowTypeEscrow,
		Amount:    decimal.NewFromInt(100),
	}
	_, err := f.machine.Initiate(context.Background(), f.buyer, req)
	assert.True(t, swaperr.IsConflict(err))

	// Сделка из рук в руки реквизитов не требует
	req.Type = models.EscrowTypeManual
	tx, err := f.machine.Initiate(context.Background(), f.buyer, req)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowInitiated, tx.Status)
}

func TestHappyPath(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx := f.initiate(t)
	assert.Equal(t, models.EscrowInitiated, tx.Status)
	assert.Equal(t, "USD", tx.Currency) // валюта взята из объявления
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(5000)))

	held, changed, err := f.machine.ConfirmPayment(ctx, f.buyer, tx.ID, "pay_ref_1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.EscrowFundsHeld, held.Status)
	require.NotNil(t, held.FundsHeldAt)
	require.NotNil(t, held.AutoReleaseAt)
	assert.Equal(t, f.clock.Add(AutoReleaseDelay), *held.AutoReleaseAt)

	awaiting, _, err := f.machine.MarkDelivered(ctx, f.seller, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowAwaitingConfirmation, awaiting.Status)

	f.clock = f.clock.Add(time.Hour)
	done, _, err := f.machine.ConfirmDelivery(ctx, f.buyer, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowCompleted, done.Status)

	// Подтверждение, выпуск и завершение — одна отметка времени
	require.NotNil(t, done.DeliveryConfirmedAt)
	require.NotNil(t, done.ReleasedAt)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, *done.DeliveryConfirmedAt, *done.ReleasedAt)
	assert.Equal(t, *done.ReleasedAt, *done.CompletedAt)
}

func TestConfirmPaymentGuards(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx := f.initiate(t)

	// Не покупатель
	_, _, err := f.machine.ConfirmPayment(ctx, f.seller, tx.ID, "ref")
	assert.True(t, swaperr.IsAuthorization(err))

	// Пустая ссылка на платёж
	_, _, err = f.machine.ConfirmPayment(ctx, f.buyer, tx.ID, "  ")
	assert.True(t, swaperr.IsValidation(err))

	// Повторное подтверждение уже удержанных средств
	_, _, err = f.machine.ConfirmPayment(ctx, f.buyer, tx.ID, "ref")
	require.NoError(t, err)
	_, _, err = f.machine.ConfirmPayment(ctx, f.buyer, tx.ID, "ref")
	assert.True(t, swaperr.IsConflict(err))

	// Состояние не изменилось от отклонённых вызовов
	got, err := f.store.GetEscrow(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowFundsHeld, got.Status)
}

func TestConfirmPaymentManualType(t *testing.T) {
	f := newMachineFixture(t)

	tx, err := f.machine.Initiate(context.Background(), f.buyer, InitiateRequest{
		SellerID:  f.seller,
		ListingID: f.listing,
		Type:      models.EscrowTypeManual,
		Amount:    decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, _, err = f.machine.ConfirmPayment(context.Background(), f.buyer, tx.ID, "ref")
	assert.True(t, swaperr.IsValidation(err))
}

func TestManualTransactionLifecycle(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx, err := f.machine.Initiate(ctx, f.buyer, InitiateRequest{
		SellerID:  f.seller,
		ListingID: f.listing,
		Type:      models.EscrowTypeManual,
		Amount:    decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	require.Equal(t, models.EscrowInitiated, tx.Status)

	// Этапы удержания средств к сделке из рук в руки неприменимы
	_, _, err = f.machine.ConfirmPayment(ctx, f.buyer, tx.ID, "ref")
	assert.True(t, swaperr.IsValidation(err))
	_, _, err = f.machine.MarkDelivered(ctx, f.seller, tx.ID)
	assert.True(t, swaperr.IsConflict(err))

	// Подтверждение получения — только покупатель
	_, _, err = f.machine.ConfirmDelivery(ctx, f.seller, tx.ID)
	assert.True(t, swaperr.IsAuthorization(err))

	done, changed, err := f.machine.ConfirmDelivery(ctx, f.buyer, tx.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.EscrowCompleted, done.Status)

	// Средства не удерживались — выпускать нечего
	require.NotNil(t, done.DeliveryConfirmedAt)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, *done.DeliveryConfirmedAt, *done.CompletedAt)
	assert.Nil(t, done.ReleasedAt)
	assert.Nil(t, done.FundsHeldAt)

	// Повторное подтверждение и спор по завершённой сделке отклоняются
	_, _, err = f.machine.ConfirmDelivery(ctx, f.buyer, tx.ID)
	assert.True(t, swaperr.IsConflict(err))
	_, _, err = f.machine.OpenDispute(ctx, f.buyer, tx.ID, "передумал")
	assert.True(t, swaperr.IsConflict(err))
}

func TestManualTransactionDispute(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx, err := f.machine.Initiate(ctx, f.buyer, InitiateRequest{
		SellerID:  f.seller,
		ListingID: f.listing,
		Type:      models.EscrowTypeManual,
		Amount:    decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	disputed, _, err := f.machine.OpenDispute(ctx, f.buyer, tx.ID, "товар не передан")
	require.NoError(t, err)
	assert.Equal(t, models.EscrowDisputed, disputed.Status)

	// После спора сделку уже не завершить
	_, _, err = f.machine.ConfirmDelivery(ctx, f.buyer, tx.ID)
	assert.True(t, swaperr.IsConflict(err))
}

func TestAcknowledgeService(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx := f.toFundsHeld(t)

	// Покупатель отметить оказание услуги не может
	_, _, err := f.machine.AcknowledgeService(ctx, f.buyer, tx.ID)
	assert.True(t, swaperr.IsAuthorization(err))

	awaiting, changed, err := f.machine.AcknowledgeService(ctx, f.seller, tx.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.EscrowAwaitingConfirmation, awaiting.Status)
}

func TestConfirmDeliveryDirectlyFromFundsHeld(t *testing.T) {
	f := newMachineFixture(t)

	tx := f.toFundsHeld(t)
	done, changed, err := f.machine.ConfirmDelivery(context.Background(), f.buyer, tx.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.EscrowCompleted, done.Status)
}

func TestConfirmDeliveryGuards(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx := f.initiate(t)

	// До удержания средств подтверждать нечего
	_, _, err := f.machine.ConfirmDelivery(ctx, f.buyer, tx.ID)
	assert.True(t, swaperr.IsConflict(err))

	// Продавец подтверждать получение не может
	held := f.toFundsHeld(t)
	_, _, err = f.machine.ConfirmDelivery(ctx, f.seller, held.ID)
	assert.True(t, swaperr.IsAuthorization(err))
}

func TestMarkDeliveredGuards(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx := f.initiate(t)

	// Средства ещё не удержаны
	_, _, err := f.machine.MarkDelivered(ctx, f.seller, tx.ID)
	assert.True(t, swaperr.IsConflict(err))

	held := f.toFundsHeld(t)

	// Покупатель не может отметить передачу
	_, _, err = f.machine.MarkDelivered(ctx, f.buyer, held.ID)
	assert.True(t, swaperr.IsAuthorization(err))
}

func TestOpenDispute(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx := f.toFundsHeld(t)

	// Причина обязательна
	_, _, err := f.machine.OpenDispute(ctx, f.buyer, tx.ID, "")
	assert.True(t, swaperr.IsValidation(err))

	disputed, changed, err := f.machine.OpenDispute(ctx, f.buyer, tx.ID, "товар не пришёл")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.EscrowDisputed, disputed.Status)
	require.NotNil(t, disputed.DisputeReason)
	assert.Equal(t, "товар не пришёл", *disputed.DisputeReason)

	// Спор конечен: дальнейшие переходы отклоняются
	_, _, err = f.machine.MarkDelivered(ctx, f.seller, tx.ID)
	assert.True(t, swaperr.IsConflict(err))
	_, _, err = f.machine.ConfirmDelivery(ctx, f.buyer, tx.ID)
	assert.True(t, swaperr.IsConflict(err))
}

func TestOpenDisputeAfterCompletion(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx := f.toFundsHeld(t)
	_, _, err := f.machine.ConfirmDelivery(ctx, f.buyer, tx.ID)
	require.NoError(t, err)

	_, _, err = f.machine.OpenDispute(ctx, f.buyer, tx.ID, "передумал")
	assert.True(t, swaperr.IsConflict(err))
}

func TestAutoRelease(t *testing.T) {
	f := newMachineFixture(t)
	ctx := context.Background()

	tx := f.toFundsHeld(t)

	// Срок ещё не наступил
	_, _, err := f.machine.AutoRelease(ctx, tx.ID)
	assert.True(t, swaperr.IsConflict(err))

	f.clock = f.clock.Add(AutoReleaseDelay + time.Minute)
	done, changed, err := f.machine.AutoRelease(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.EscrowCompleted, done.Status)
	require.NotNil(t, done.ReleasedAt)
}

func TestConcurrentConfirmDelivery(t *testing.T) {
	f := newMachineFixture(t)
	tx := f.toFundsHeld(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	changes := make([]bool, 2)

	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			_, changes[i], errs[i] = f.machine.ConfirmDelivery(context.Background(), f.buyer, tx.ID)
		}(i)
	}
	wg.Wait()

	// Ровно один вызов проходит, второй получает конфликт
	winners := 0
	for i := 0; i < 2; i++ {
		if errs[i] == nil {
			require.True(t, changes[i])
			winners++
		} else {
			assert.True(t, swaperr.IsConflict(errs[i]))
		}
	}
	assert.Equal(t, 1, winners)

	got, err := f.store.GetEscrow(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowCompleted, got.Status)
}
