/*
Package app contains the ABCI application of escrowd.

It glues together the store, the transaction codec, the decorator chain and
the extension handlers. Every transaction is executed against a cache wrap of
the block state and only written when it succeeds. A single lock serializes
all calls that touch the state, so two transactions racing for the same
escrow are applied one after another and the later one observes the outcome
of the first.
*/
package app
