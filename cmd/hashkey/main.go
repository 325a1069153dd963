// Command hashkey prints the bcrypt hash of an API key for API_KEY_BCRYPT_HASH.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/provisioning-service/internal/auth"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	key := flag.Arg(0)
	if key == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("read key from stdin: %v", err)
		}
		key = strings.TrimSpace(line)
	}
	if key == "" {
		log.Fatal("usage: hashkey [-cost N] <api-key>  (or pipe the key on stdin)")
	}

	hash, err := auth.HashSecret(key, *cost)
	if err != nil {
		log.Fatalf("hash key: %v", err)
	}
	fmt.Println(hash)
}
