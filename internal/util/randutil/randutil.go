package randutil

import (
	"fmt"
	"math/rand"
	"time"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

func choose(n int, choices string) []byte {
	b := make([]byte, n)
	for i := range b {
		c := choices[rand.Intn(len(choices))]
		b[i] = byte(c)
	}
	return b
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Text returns randomly generated alphanumeric text of length n.
func Text(n int) []byte {
	return choose(n, alphanumeric)
}

// OfferID returns a synthetic offer identifier of the form used by the
// simulator in cmd/offermatcher, prefixed for easy grepping in logs.
func OfferID() string {
	return fmt.Sprintf("offer-%s", Text(8))
}

// AppID returns a synthetic app identifier rooted under appRoot, for
// building fake persistent-reservation fixtures.
func AppID(appRoot string) string {
	return fmt.Sprintf("%s/%s", appRoot, Text(6))
}
