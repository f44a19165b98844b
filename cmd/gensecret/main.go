// Command gensecret prints a random hex encoded key suitable for SECRET_KEY
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const defaultKeyBytes = 32

func main() {
	n := pflag.IntP("bytes", "n", defaultKeyBytes, "Key length in bytes")
	pflag.Parse()

	if *n < 16 {
		fmt.Fprintf(os.Stderr, "key shorter than 16 bytes is too weak: %d\n", *n)
		os.Exit(1)
	}

	b := make([]byte, *n)
	if _, err := rand.Read(b); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
