/*
Package orm provides an easy to use db wrapper.

Models are stored in a ModelBucket under a key prefixed with the bucket name.
A bucket can maintain any number of secondary indexes that are updated
whenever a model is created, modified or removed. Models are serialized with
the package Codec (go-amino).
*/
package orm
