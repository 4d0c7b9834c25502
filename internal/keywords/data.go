package keywords

import (
	"math/rand"

	"github.com/themizzi/shopcheck/internal/models"
)

const (
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
)

func randomFrom(rng *rand.Rand, alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}

// RandomLetters returns n ASCII letters.
func RandomLetters(rng *rand.Rand, n int) string {
	return randomFrom(rng, letters, n)
}

// RandomDigits returns n decimal digits.
func RandomDigits(rng *rand.Rand, n int) string {
	return randomFrom(rng, digits, n)
}

// RandomCheckoutInfo returns a complete information form.
func RandomCheckoutInfo(rng *rand.Rand) models.CheckoutInfo {
	return models.CheckoutInfo{
		FirstName:  RandomLetters(rng, 8),
		LastName:   RandomLetters(rng, 10),
		PostalCode: RandomDigits(rng, 5),
	}
}
