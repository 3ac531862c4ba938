package offer

import "math/rand"

// reservedAppIDs returns the set of app identifiers encoded in the
// persistent disk reservations carried by the offer, decoded via
// decode. Unparsable persistence IDs are treated as non-matching,
// per spec §9 ("Persistent-reservation decoding").
func reservedAppIDs(o *Offer, decode PersistenceDecoder) map[string]struct{} {
	appIDs := make(map[string]struct{})
	if decode == nil {
		return appIDs
	}
	for _, res := range o.Resources {
		if res.Reservation == nil {
			continue
		}
		appID, ok := decode(res.Reservation.PersistenceID)
		if !ok {
			continue
		}
		appIDs[appID] = struct{}{}
	}
	return appIDs
}

// hasPrecedence reports whether m's precedence predicate intersects
// appIDs.
func hasPrecedence(m Matcher, appIDs map[string]struct{}) bool {
	precedence := m.Precedence()
	if len(precedence) == 0 || len(appIDs) == 0 {
		return false
	}
	for id := range precedence {
		if _, ok := appIDs[id]; ok {
			return true
		}
	}
	return false
}

// buildMatcherQueue implements the ordering rule of spec §4.4:
// matchers holding a persistent reservation for an app identifier
// appearing in the offer are tried first ("reserved"), everyone else
// follows ("normal"). Within each class the order is uniform random,
// using rng, to avoid starving any one matcher.
func buildMatcherQueue(matchers []Matcher, o *Offer, decode PersistenceDecoder, rng *rand.Rand) []Matcher {
	appIDs := reservedAppIDs(o, decode)

	var reserved, normal []Matcher
	for _, m := range matchers {
		if hasPrecedence(m, appIDs) {
			reserved = append(reserved, m)
		} else {
			normal = append(normal, m)
		}
	}

	shuffle(reserved, rng)
	shuffle(normal, rng)

	queue := make([]Matcher, 0, len(reserved)+len(normal))
	queue = append(queue, reserved...)
	queue = append(queue, normal...)
	return queue
}

func shuffle(matchers []Matcher, rng *rand.Rand) {
	rng.Shuffle(len(matchers), func(i, j int) {
		matchers[i], matchers[j] = matchers[j], matchers[i]
	})
}
