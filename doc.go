/*

Package escrowd defines interfaces used throughout the app, such as: storage,
transactions, handlers, conditions and derived authorities.

Extensions under x/ build on these interfaces. The escrow extension (x/escrow)
locks tokens under an authority derived from public data, so that no private
key exists that could move them, and settles the trade in a single atomic
transaction.

*/
package escrowd
