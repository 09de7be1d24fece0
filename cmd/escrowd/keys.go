package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/crypto"
	"github.com/iov-one/escrowd/errors"
	"github.com/spf13/cobra"
)

var isKeyName = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,32}$`).MatchString

func (c *cli) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the signing keys stored in the home directory",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "new <name>",
			Short: "Generate a new ed25519 key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := c.newKey(args[0])
				if err != nil {
					return err
				}
				return printKey(cmd, args[0], key)
			},
		},
		&cobra.Command{
			Use:   "show <name>",
			Short: "Print the address of a key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := c.loadKey(args[0])
				if err != nil {
					return err
				}
				return printKey(cmd, args[0], key)
			},
		},
	)
	return cmd
}

func printKey(cmd *cobra.Command, name string, key *crypto.PrivateKey) error {
	addr := key.PublicKey().Address()
	b32, err := addr.Bech32()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, addr, b32)
	return nil
}

func (c *cli) keyFile(name string) (string, error) {
	if !isKeyName(name) {
		return "", errors.Wrapf(errors.ErrInvalidInput, "key name %q", name)
	}
	return filepath.Join(c.home(), "keys", name+".key"), nil
}

func (c *cli) newKey(name string) (*crypto.PrivateKey, error) {
	path, err := c.keyFile(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		return nil, errors.Wrapf(errors.ErrDuplicate, "key %q", name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "create key directory: %s", err)
	}
	key := crypto.GenPrivKeyEd25519()
	if err := ioutil.WriteFile(path, []byte(hex.EncodeToString(key.Bytes())), 0600); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "write key: %s", err)
	}
	return key, nil
}

func (c *cli) loadKey(name string) (*crypto.PrivateKey, error) {
	path, err := c.keyFile(name)
	if err != nil {
		return nil, err
	}
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "key %q: %s", name, err)
	}
	b, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "key %q: %s", name, err)
	}
	return crypto.PrivKeyFromBytes(b)
}

// address resolves the name of a stored key or parses an address in any of
// the formats accepted by escrowd.ParseAddress.
func (c *cli) address(s string) (escrowd.Address, error) {
	if isKeyName(s) {
		if key, err := c.loadKey(s); err == nil {
			return key.PublicKey().Address(), nil
		}
	}
	addr, err := escrowd.ParseAddress(s)
	if err != nil {
		return nil, err
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}
