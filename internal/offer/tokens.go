package offer

// TokenAccountant maintains the global launch-token balance (spec
// §4.2). Like Registry, it is owned exclusively by the Processor and
// is not safe for concurrent use on its own.
type TokenAccountant struct {
	balance int64
}

// Balance returns the current token balance.
func (t *TokenAccountant) Balance() int64 {
	return t.balance
}

// Set overwrites the balance to n. It returns true if the balance
// was <= 0 before this call and n > 0, i.e. the wanted-signal
// observer must be republished.
func (t *TokenAccountant) Set(n int64) (becamePositive bool) {
	becamePositive = t.balance <= 0 && n > 0
	t.balance = n
	return becamePositive
}

// Add adds n to the balance. It returns true if the balance became
// positive as a result of this call (it was <= 0 before).
func (t *TokenAccountant) Add(n int64) (becamePositive bool) {
	becamePositive = t.balance <= 0 && t.balance+n > 0
	t.balance += n
	return becamePositive
}

// Debit decrements the balance by n. The caller (the Processor, in
// §4.5 step 5) is responsible for never calling this with an n that
// would drive the balance negative.
func (t *TokenAccountant) Debit(n int64) {
	t.balance -= n
}
