/*
Package server contains the building blocks of the escrowd node commands:
preparing the home directory with a genesis file, validating a genesis
before it is used and serving the application over the ABCI socket
protocol, so that a tendermint node can drive it.
*/
package server
