/*
Package token implements fungible assets.

A Mint describes an asset: its ticker, the number of decimals and the
authority that may issue new units. Balances are kept in token Accounts. Every
account is associated with exactly one owner and one mint, and lives under an
address derived from both, so that anyone can find the account of an owner
without a lookup.

Moving funds always requires the account owner to be authenticated. An owner
can be a signer or an authority derived by a program.
*/
package token
