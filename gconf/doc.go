/*
Package gconf implements a configuration store intended to be used as a
global, in-database configuration.

Each extension keeps its configuration under a single "_c:<package>" key. The
configuration is loaded from the genesis file, validated and stored once.
Extensions load it whenever they need it.
*/
package gconf
