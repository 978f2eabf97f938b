// Package swaperr определяет классификацию ошибок ядра.
// Все четыре вида обнаруживаются до коммита: ни одна из них не оставляет
// частичной записи в базе.
package swaperr

import "errors"

// Kind — вид ошибки ядра
type Kind int

const (
	// KindValidation — некорректный запрос (свайп на своё объявление,
	// неверный тип объявления и т.п.)
	KindValidation Kind = iota + 1
	// KindAuthorization — действие выполняет не та сторона, либо между
	// пользователями есть блокировка
	KindAuthorization
	// KindConflict — нарушено предусловие состояния (эскроу не в ожидаемом
	// статусе, предложение уже не pending)
	KindConflict
	// KindNotFound — объявление, предложение или транзакция не найдены
	KindNotFound
)

// Error — ошибка ядра с видом и сообщением для пользователя
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Validation создаёт ошибку валидации
func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

// Authorization создаёт ошибку авторизации
func Authorization(msg string) error { return &Error{Kind: KindAuthorization, Message: msg} }

// Conflict создаёт ошибку конфликта состояния
func Conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

// NotFound создаёт ошибку отсутствия сущности
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

// KindOf возвращает вид ошибки, либо 0 для посторонних ошибок
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsValidation сообщает, является ли ошибка ошибкой валидации
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsAuthorization сообщает, является ли ошибка ошибкой авторизации
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }

// IsConflict сообщает, является ли ошибка конфликтом состояния
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsNotFound сообщает, является ли ошибка отсутствием сущности
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
