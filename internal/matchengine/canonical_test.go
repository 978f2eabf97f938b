package matchengine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalPairOrderInvariant(t *testing.T) {
	userA := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	userB := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	listingA := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	listingB := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")

	u1, u2, l1, l2 := CanonicalPair(userA, userB, listingA, listingB)
	assert.Equal(t, userA, u1)
	assert.Equal(t, userB, u2)
	assert.Equal(t, listingA, l1)
	assert.Equal(t, listingB, l2)

	// Обратный порядок аргументов даёт тот же результат
	u1r, u2r, l1r, l2r := CanonicalPair(userB, userA, listingB, listingA)
	assert.Equal(t, u1, u1r)
	assert.Equal(t, u2, u2r)
	assert.Equal(t, l1, l1r)
	assert.Equal(t, l2, l2r)
}

func TestCanonicalPairKeepsListingOwnership(t *testing.T) {
	// Объявление первого пользователя всегда в первом слоте
	for i := 0; i < 50; i++ {
		userA, userB := uuid.New(), uuid.New()
		listingA, listingB := uuid.New(), uuid.New()

		u1, _, l1, l2 := CanonicalPair(userA, userB, listingA, listingB)
		if u1 == userA {
			assert.Equal(t, listingA, l1)
			assert.Equal(t, listingB, l2)
		} else {
			assert.Equal(t, listingB, l1)
			assert.Equal(t, listingA, l2)
		}
	}
}

func TestCanonicalUsers(t *testing.T) {
	userA, userB := uuid.New(), uuid.New()

	u1, u2 := CanonicalUsers(userA, userB)
	u1r, u2r := CanonicalUsers(userB, userA)
	assert.Equal(t, u1, u1r)
	assert.Equal(t, u2, u2r)
	assert.NotEqual(t, u1, u2)
}
