package escrow

import (
	"context"
	"strings"

	"github.com/swaply/swaply-api/internal/models"
	"github.com/swaply/swaply-api/internal/swaperr"
)

// PaymentAuthority — внешний платёжный провайдер. Ядро само деньги не
// двигает: оно лишь проверяет ссылку на захват средств перед переходом
// в funds_held.
type PaymentAuthority interface {
	// VerifyCapture проверяет, что reference соответствует успешному
	// захвату средств по транзакции
	VerifyCapture(ctx context.Context, tx *models.EscrowTransaction, reference string) error
}

// ReferenceValidator — минимальная реализация PaymentAuthority: принимает
// любую непустую ссылку. Интеграция с конкретным шлюзом живёт за этим
// интерфейсом и в ядро не входит.
type ReferenceValidator struct{}

func (ReferenceValidator) VerifyCapture(_ context.Context, _ *models.EscrowTransaction, reference string) error {
	if strings.TrimSpace(reference) == "" {
		return swaperr.Validation("не указана ссылка на платёж")
	}
	return nil
}
