package game

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Rand is the randomness source for board sampling and random word
// assignment. *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// CryptoRand draws from crypto/rand.
type CryptoRand struct{}

func (CryptoRand) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return int(v.Int64())
}

// shuffle is an in-place Fisher–Yates shuffle.
func shuffle[T any](items []T, rnd Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// SelectWordsForGame samples gridSize distinct words from bank without
// replacement and numbers the cards from 0.
func SelectWordsForGame(bank []string, gridSize int, rnd Rand) ([]Card, error) {
	if gridSize < MinGridSize {
		return nil, ErrInvalidGridSize
	}
	words := uniqueWords(bank)
	if len(words) < gridSize {
		return nil, ErrInsufficientWords
	}
	if rnd == nil {
		rnd = CryptoRand{}
	}

	shuffle(words, rnd)

	cards := make([]Card, gridSize)
	for i := range cards {
		cards[i] = Card{Word: words[i], Index: i}
	}
	return cards, nil
}

// uniqueWords trims entries and drops blanks and case-insensitive repeats.
func uniqueWords(bank []string) []string {
	seen := make(map[string]bool, len(bank))
	out := make([]string, 0, len(bank))
	for _, w := range bank {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}
