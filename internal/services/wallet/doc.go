/*
Package wallet is the canonical balance store. It owns available balance,
ledger balance, cashback balance and spend counters per wallet, and exposes
the atomic primitives the rest of the engine builds on:

  - Reserve places a hold against available balance pending finalization.
  - Adjust applies an audited administrative credit or debit.
  - Lock/Unlock flip the wallet lock flag with a zero-amount audit entry.
  - WithExclusive and WithExclusivePair run an arbitrary mutation under the
    wallet's exclusion, so the ledger and limit layers can compose their
    writes into the same atomic unit.

Every mutating call holds the wallet's in-process exclusion slot and a
FOR UPDATE row lock for the duration of one database transaction. Two
concurrent debits can therefore never observe the same pre-mutation
balance. GetBalance reads a snapshot and never blocks behind writers.
*/
package wallet
