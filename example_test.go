package rsyncdelta_test

import (
	"fmt"
	"log"
	"os"

	"github.com/mkochoc/rsyncdelta"
)

func ExampleNew() {
	// first create both target and source files
	err := os.WriteFile("test_source.bin", []byte{12, 32, 1, 2, 3, 4, 5, 6, 7, 8}, 0666)
	defer os.Remove("test_source.bin")
	if err != nil {
		log.Fatal(err)
	}
	err = os.WriteFile("test_target.bin", []byte{1, 2, 3, 4, 5, 6, 7}, 0666)
	defer os.Remove("test_target.bin")
	if err != nil {
		log.Fatal(err)
	}
	app := rsyncdelta.New(3)

	// second process the Signature and then the Delta
	err = app.Signature("test_target.bin", "test_signature")
	defer os.Remove("test_signature")
	if err != nil {
		log.Fatal(err)
	}

	err = app.Delta("test_signature", "test_source.bin", "test_delta")
	defer os.Remove("test_delta")
	if err != nil {
		log.Fatal(err)
	}

	// third reconstruct the source from the target plus the delta, and
	// verify it matches byte for byte
	err = app.Patch("test_target.bin", "test_delta", "test_reconstructed.bin")
	defer os.Remove("test_reconstructed.bin")
	if err != nil {
		log.Fatal(err)
	}

	source, err := os.ReadFile("test_source.bin")
	if err != nil {
		log.Fatal(err)
	}
	reconstructed, err := os.ReadFile("test_reconstructed.bin")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(reconstructed) == string(source))

	// Output:
	// true
}
