package escrow

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/swaply/swaply-api/internal/store"
	"github.com/swaply/swaply-api/internal/swaperr"
)

// ReleaseScheduler периодически находит сделки с истёкшим auto_release_at
// и отпускает по ним средства. Сам он ничего не решает: весь контроль
// статусов остаётся в машине, поэтому гонка планировщика с подтверждением
// покупателя или спором безопасна — проигравший просто получает конфликт.
type ReleaseScheduler struct {
	machine  *Machine
	store    store.Store
	batch    int
	stopChan chan struct{}
	stopOnce sync.Once
	running  bool
	mu       sync.Mutex
}

// NewReleaseScheduler создаёт планировщик автоматического выпуска средств
func NewReleaseScheduler(machine *Machine, st store.Store, batch int) *ReleaseScheduler {
	if batch <= 0 {
		batch = 100
	}
	return &ReleaseScheduler{
		machine:  machine,
		store:    st,
		batch:    batch,
		stopChan: make(chan struct{}),
	}
}

// Start запускает цикл планировщика с заданным интервалом
func (s *ReleaseScheduler) Start(interval time.Duration) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("⚠️ Планировщик авторелиза уже запущен")
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("🚀 Планировщик авторелиза запущен (интервал %v)", interval)

	go func() {
		for {
			if n, err := s.RunOnce(context.Background()); err != nil {
				log.Printf("Ошибка автоматического выпуска средств: %v", err)
			} else if n > 0 {
				log.Printf("✅ Автоматически завершено сделок: %d", n)
			}

			select {
			case <-s.stopChan:
				log.Println("🛑 Планировщик авторелиза остановлен")
				return
			case <-time.After(interval):
			}
		}
	}()
}

// Stop останавливает цикл планировщика
func (s *ReleaseScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// RunOnce обрабатывает одну пачку просроченных сделок и возвращает число
// фактически завершённых
func (s *ReleaseScheduler) RunOnce(ctx context.Context) (int, error) {
	due, err := s.store.ListDueAutoRelease(ctx, s.machine.now(), s.batch)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, tx := range due {
		_, changed, err := s.machine.AutoRelease(ctx, tx.ID)
		if err != nil {
			// Конфликт означает, что сделку успели подтвердить или оспорить
			// между выборкой и выпуском — это не ошибка планировщика
			var se *swaperr.Error
			if errors.As(err, &se) && se.Kind == swaperr.KindConflict {
				continue
			}
			return released, err
		}
		if changed {
			released++
		}
	}
	return released, nil
}
