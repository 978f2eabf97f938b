package escrow

import "github.com/swaply/swaply-api/internal/models"

// transitions — единственное место, где определён граф статусов сделки.
// Статусы движутся только вперёд; disputed и completed конечны.
var transitions = map[models.EscrowStatus][]models.EscrowStatus{
	models.EscrowInitiated: {
		models.EscrowFundsHeld,
		models.EscrowCompleted, // сделка "из рук в руки": средства не удерживались
		models.EscrowDisputed,
	},
	models.EscrowFundsHeld: {
		models.EscrowAwaitingConfirmation,
		models.EscrowCompleted, // упрощённый поток "подтвердил и отпустил" и авторелиз
		models.EscrowDisputed,
	},
	models.EscrowAwaitingConfirmation: {
		models.EscrowCompleted,
		models.EscrowDisputed,
	},
	models.EscrowCompleted: nil,
	models.EscrowDisputed:  nil,
}

// CanTransition сообщает, допустим ли переход from → to
func CanTransition(from, to models.EscrowStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
