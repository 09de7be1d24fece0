/*
Package escrow implements a two-party escrow settled by a derived authority.

A maker locks a deposit of asset A in a vault account and declares how much of
asset B it wants in return. The vault is owned by an authority derived from
the maker address and a maker chosen seed. Nobody holds a key for that
authority: only this extension can reproduce it, from the data stored in the
escrow record, and act with it.

A taker settles the escrow by paying asset B to the maker and receiving the
whole vault balance. Alternatively the maker refunds the escrow and gets the
deposit back. Both operations are terminal: the vault is closed, the record is
deleted and the storage reserves of both return to the maker. A retired
{maker, seed} pair can never be used again.
*/
package escrow
