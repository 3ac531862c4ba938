package offer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenAccountant_SetReportsPositiveEdge(t *testing.T) {
	var tok TokenAccountant

	becamePositive := tok.Set(5)
	assert.True(t, becamePositive)
	assert.EqualValues(t, 5, tok.Balance())

	becamePositive = tok.Set(3)
	assert.False(t, becamePositive, "staying positive is not a new edge")

	becamePositive = tok.Set(0)
	assert.False(t, becamePositive)
}

func TestTokenAccountant_AddReportsPositiveEdge(t *testing.T) {
	var tok TokenAccountant
	tok.Set(-2)

	becamePositive := tok.Add(1)
	assert.False(t, becamePositive, "balance is still <= 0")

	becamePositive = tok.Add(5)
	assert.True(t, becamePositive, "balance crossed from <= 0 to positive")
}

func TestTokenAccountant_Debit(t *testing.T) {
	var tok TokenAccountant
	tok.Set(5)
	tok.Debit(3)
	assert.EqualValues(t, 2, tok.Balance())
}
