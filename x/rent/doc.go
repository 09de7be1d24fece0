/*
Package rent keeps the storage allowance ledger.

Every persisted token account and escrow record locks a reserve of storage
allowance taken from whoever created it. When the entity is closed the reserve
is returned to a destination chosen by the closing extension.
*/
package rent
