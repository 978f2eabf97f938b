package matchengine

import (
	"bytes"

	"github.com/google/uuid"
)

// CanonicalPair упорядочивает пару пользователей и их объявления:
// первым идёт пользователь с меньшим UUID (побайтовое сравнение — так же
// сравнивает UUID и PostgreSQL), его объявление занимает первый слот.
// Каждый вызывающий применяет её до любых чтений и записей, поэтому
// уникальные индексы матчей и переписок не зависят от того, чья сторона
// сработала последней.
func CanonicalPair(userA, userB, listingA, listingB uuid.UUID) (user1, user2, listing1, listing2 uuid.UUID) {
	if bytes.Compare(userA[:], userB[:]) < 0 {
		return userA, userB, listingA, listingB
	}
	return userB, userA, listingB, listingA
}

// CanonicalUsers упорядочивает пару пользователей без объявлений
func CanonicalUsers(userA, userB uuid.UUID) (user1, user2 uuid.UUID) {
	if bytes.Compare(userA[:], userB[:]) < 0 {
		return userA, userB
	}
	return userB, userA
}
