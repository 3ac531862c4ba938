/*
Package offer implements the offer matcher manager: a single-writer
coordinator that fans incoming resource offers through a dynamic set
of matcher participants, admits the launch operations they propose
against a global token budget and a per-offer cap, and resolves each
offer exactly once before its deadline.

All mutable state (the matcher registry, the launch-token balance,
the in-flight offer table) is owned by the Processor goroutine started
by Run; Registry, TokenAccountant and OfferData hold that state and
are not safe for concurrent use. The remaining types are either
immutable data (Offer, InstanceOpWithSource, MatchedInstanceOps) or
thin, channel-based handles (Facade onto the Processor, Promise onto
one offer's result).
*/
package offer
