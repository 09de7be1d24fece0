/*
Package utils contains decorators shared by every application stack:
panic recovery, logging, savepoints isolating the store changes of a
failed transaction, and tagging of delivered messages.
*/
package utils
