/*
Package x contains some standard extensions.

Extensions are packages that provide handlers, models and decorators for a
single concern. The authentication helpers in this package are shared by all
extensions, so that no extension depends on a concrete signature scheme.
*/
package x
