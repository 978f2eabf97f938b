// Package escrow реализует машину состояний сделки с удержанием средств.
//
// Каждый переход — это "проверил роль, проверил статус, атомарно записал":
// запись идёт условным UPDATE по текущему статусу, так что из двух
// конкурентных вызовов ровно один проходит, а второй получает конфликт без
// каких-либо изменений. Повторов внутри машины нет: вызывающий безопасно
// повторяет всю операцию целиком.
package escrow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swaply/swaply-api/internal/events"
	"github.com/swaply/swaply-api/internal/metrics"
	"github.com/swaply/swaply-api/internal/models"
	"github.com/swaply/swaply-api/internal/store"
	"github.com/swaply/swaply-api/internal/swaperr"
)

// AutoReleaseDelay — срок, по истечении которого удержанные средства
// отпускаются без подтверждения покупателя, если не открыт спор
const AutoReleaseDelay = 7 * 24 * time.Hour

// Machine — машина состояний эскроу
type Machine struct {
	store    store.Store
	payments PaymentAuthority
	notifier events.Notifier
	now      func() time.Time
}

// NewMachine создаёт машину состояний эскроу
func NewMachine(st store.Store, payments PaymentAuthority, notifier events.Notifier) *Machine {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &Machine{
		store:    st,
		payments: payments,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock подменяет источник времени (для тестов)
func (m *Machine) SetClock(now func() time.Time) { m.now = now }

// InitiateRequest — входные данные создания сделки
type InitiateRequest struct {
	SellerID  uuid.UUID
	ListingID uuid.UUID
	Type      models.EscrowType
	Amount    decimal.Decimal
	Currency  string
}

// Initiate создаёт сделку в статусе initiated. Для типа escrow продавец
// обязан иметь настроенные реквизиты выплат; тип manual средства не
// удерживает и этого не требует.
func (m *Machine) Initiate(ctx context.Context, buyerID uuid.UUID, req InitiateRequest) (*models.EscrowTransaction, error) {
	if req.Type != models.EscrowTypeEscrow && req.Type != models.EscrowTypeManual {
		return nil, swaperr.Validation("недопустимый тип сделки")
	}
	if buyerID == req.SellerID {
		return nil, swaperr.Validation("покупатель и продавец не могут совпадать")
	}
	if !req.Amount.IsPositive() {
		return nil, swaperr.Validation("сумма сделки должна быть положительной")
	}

	listing, err := m.store.GetListing(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, swaperr.NotFound("объявление не найдено")
		}
		return nil, err
	}
	if listing.UserID != req.SellerID {
		return nil, swaperr.Validation("объявление не принадлежит продавцу")
	}
	if listing.Type != models.ListingMarketplace {
		return nil, swaperr.Validation("сделка возможна только по маркетплейс-объявлению")
	}

	if req.Type == models.EscrowTypeEscrow {
		has, err := m.store.HasPayoutDetails(ctx, req.SellerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, swaperr.NotFound("продавец не найден")
			}
			return nil, err
		}
		if !has {
			return nil, swaperr.Conflict("продавец ещё не настроил реквизиты для выплат")
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = listing.Currency
	}

	tx := &models.EscrowTransaction{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		SellerID:  req.SellerID,
		ListingID: req.ListingID,
		Type:      req.Type,
		Amount:    req.Amount,
		Currency:  currency,
		Status:    models.EscrowInitiated,
	}
	if err := m.store.CreateEscrow(ctx, tx); err != nil {
		return nil, err
	}
	metrics.EscrowTransitions.WithLabelValues(string(models.EscrowInitiated)).Inc()
	return m.store.GetEscrow(ctx, tx.ID)
}

// ConfirmPayment переводит сделку initiated → funds_held после проверки
// ссылки на захват средств. Вызывать может только покупатель; повторное
// подтверждение уже удержанных средств отклоняется, а не обрабатывается
// заново.
func (m *Machine) ConfirmPayment(ctx context.Context, callerID, txID uuid.UUID, reference string) (*models.EscrowTransaction, bool, error) {
	tx, err := m.getForUpdate(ctx, txID)
	if err != nil {
		return nil, false, err
	}
	if tx.BuyerID != callerID {
		return nil, false, swaperr.Authorization("подтвердить оплату может только покупатель")
	}
	if tx.Type != models.EscrowTypeEscrow {
		return nil, false, swaperr.Validation("сделка без удержания средств не требует оплаты через эскроу")
	}
	if tx.Status != models.EscrowInitiated {
		metrics.GuardRejections.WithLabelValues("confirm_payment").Inc()
		return nil, false, swaperr.Conflict("оплата возможна только по новой сделке")
	}

	if err := m.payments.VerifyCapture(ctx, tx, reference); err != nil {
		return nil, false, err
	}

	now := m.now()
	release := now.Add(AutoReleaseDelay)
	return m.transition(ctx, tx, models.EscrowInitiated, models.EscrowFundsHeld, store.EscrowUpdate{
		PaymentReference: &reference,
		FundsHeldAt:      &now,
		AutoReleaseAt:    &release,
	})
}

// MarkDelivered — продавец отметил, что товар передан / услуга оказана;
// funds_held → awaiting_delivery_confirmation
func (m *Machine) MarkDelivered(ctx context.Context, callerID, txID uuid.UUID) (*models.EscrowTransaction, bool, error) {
	tx, err := m.getForUpdate(ctx, txID)
	if err != nil {
		return nil, false, err
	}
	if tx.SellerID != callerID {
		return nil, false, swaperr.Authorization("отметить передачу может только продавец")
	}
	if tx.Status != models.EscrowFundsHeld {
		metrics.GuardRejections.WithLabelValues("mark_delivered").Inc()
		return nil, false, swaperr.Conflict("средства по сделке не удержаны")
	}
	return m.transition(ctx, tx, models.EscrowFundsHeld, models.EscrowAwaitingConfirmation, store.EscrowUpdate{})
}

// AcknowledgeService — синоним MarkDelivered для сделок по услугам
func (m *Machine) AcknowledgeService(ctx context.Context, callerID, txID uuid.UUID) (*models.EscrowTransaction, bool, error) {
	return m.MarkDelivered(ctx, callerID, txID)
}

// ConfirmDelivery — покупатель подтвердил получение. Подтверждение и
// выпуск средств неразделимы: delivery_confirmed_at, released_at и
// completed_at ставятся одной отметкой времени. Допустим и напрямую из
// funds_held (упрощённый поток без отметки продавца). Сделка "из рук в
// руки" завершается прямо из initiated: средства не удерживались,
// поэтому released_at не ставится.
func (m *Machine) ConfirmDelivery(ctx context.Context, callerID, txID uuid.UUID) (*models.EscrowTransaction, bool, error) {
	tx, err := m.getForUpdate(ctx, txID)
	if err != nil {
		return nil, false, err
	}
	if tx.BuyerID != callerID {
		return nil, false, swaperr.Authorization("подтвердить получение может только покупатель")
	}

	if tx.Type == models.EscrowTypeManual {
		if tx.Status != models.EscrowInitiated {
			metrics.GuardRejections.WithLabelValues("confirm_delivery").Inc()
			return nil, false, swaperr.Conflict("сделка уже завершена или оспорена")
		}
		now := m.now()
		return m.transition(ctx, tx, models.EscrowInitiated, models.EscrowCompleted, store.EscrowUpdate{
			DeliveryConfirmedAt: &now,
			CompletedAt:         &now,
		})
	}

	if tx.Status != models.EscrowAwaitingConfirmation && tx.Status != models.EscrowFundsHeld {
		metrics.GuardRejections.WithLabelValues("confirm_delivery").Inc()
		return nil, false, swaperr.Conflict("сделка не ожидает подтверждения получения")
	}
	return m.release(ctx, tx)
}

// OpenDispute — покупатель открывает спор. Допустимо из любого статуса до
// completed; спор конечен и дальше двигается только вручную, вне ядра.
func (m *Machine) OpenDispute(ctx context.Context, callerID, txID uuid.UUID, reason string) (*models.EscrowTransaction, bool, error) {
	if reason == "" {
		return nil, false, swaperr.Validation("не указана причина спора")
	}
	tx, err := m.getForUpdate(ctx, txID)
	if err != nil {
		return nil, false, err
	}
	if tx.BuyerID != callerID {
		return nil, false, swaperr.Authorization("открыть спор может только покупатель")
	}
	if !CanTransition(tx.Status, models.EscrowDisputed) {
		metrics.GuardRejections.WithLabelValues("open_dispute").Inc()
		return nil, false, swaperr.Conflict("по завершённой сделке спор уже не открыть")
	}
	return m.transition(ctx, tx, tx.Status, models.EscrowDisputed, store.EscrowUpdate{
		DisputeReason: &reason,
	})
}

// AutoRelease отпускает средства по сделке, у которой истёк auto_release_at
// и не был открыт спор. Тот же путь выпуска, что и у ConfirmDelivery, но
// без проверки роли: операцию выполняет планировщик.
func (m *Machine) AutoRelease(ctx context.Context, txID uuid.UUID) (*models.EscrowTransaction, bool, error) {
	tx, err := m.getForUpdate(ctx, txID)
	if err != nil {
		return nil, false, err
	}
	if tx.Status != models.EscrowFundsHeld {
		return nil, false, swaperr.Conflict("средства по сделке не удержаны")
	}
	if tx.AutoReleaseAt == nil || tx.AutoReleaseAt.After(m.now()) {
		return nil, false, swaperr.Conflict("срок автоматического выпуска ещё не наступил")
	}
	out, changed, err := m.release(ctx, tx)
	if changed {
		metrics.EscrowAutoReleases.Inc()
	}
	return out, changed, err
}

// release выполняет переход в completed с одновременной фиксацией
// подтверждения, выпуска средств и завершения
func (m *Machine) release(ctx context.Context, tx *models.EscrowTransaction) (*models.EscrowTransaction, bool, error) {
	now := m.now()
	return m.transition(ctx, tx, tx.Status, models.EscrowCompleted, store.EscrowUpdate{
		DeliveryConfirmedAt: &now,
		ReleasedAt:          &now,
		CompletedAt:         &now,
	})
}

// transition — общий хвост всех операций: условная запись и событие после
// неё. Проигравший гонку CAS получает конфликт, состояние не меняется.
func (m *Machine) transition(ctx context.Context, tx *models.EscrowTransaction, from, to models.EscrowStatus, upd store.EscrowUpdate) (*models.EscrowTransaction, bool, error) {
	if !CanTransition(from, to) {
		return nil, false, swaperr.Conflict("недопустимый переход статуса сделки")
	}

	changed, err := m.store.TransitionEscrow(ctx, tx.ID, from, to, upd)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		metrics.GuardRejections.WithLabelValues("escrow_transition").Inc()
		return nil, false, swaperr.Conflict("статус сделки уже изменился, повторите операцию")
	}

	out, err := m.store.GetEscrow(ctx, tx.ID)
	if err != nil {
		return nil, false, err
	}

	metrics.EscrowTransitions.WithLabelValues(string(to)).Inc()
	m.notifier.EscrowTransition(out, from, to)
	return out, true, nil
}

func (m *Machine) getForUpdate(ctx context.Context, txID uuid.UUID) (*models.EscrowTransaction, error) {
	tx, err := m.store.GetEscrow(ctx, txID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, swaperr.NotFound("сделка не найдена")
		}
		return nil, err
	}
	return tx, nil
}
